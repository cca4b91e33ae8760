package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type migrateFixture struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func TestInitDB_SQLite(t *testing.T) {
	db, err := InitDB("sqlite", ":memory:", false, &migrateFixture{})
	require.NoError(t, err)

	require.NoError(t, db.Create(&migrateFixture{Name: "a"}).Error)
	var n int64
	db.Model(&migrateFixture{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestInitDB_UnknownDriver(t *testing.T) {
	_, err := InitDB("mysql", "x", false)
	assert.Error(t, err)
}
