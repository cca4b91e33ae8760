package model

type VendorStatus string

const (
	VendorStatusPending  VendorStatus = "pending"
	VendorStatusApproved VendorStatus = "approved"
	VendorStatusRejected VendorStatus = "rejected"
)

func (s VendorStatus) Valid() bool {
	switch s {
	case VendorStatusPending, VendorStatusApproved, VendorStatusRejected:
		return true
	}
	return false
}

// Vendor 入驻商家
type Vendor struct {
	BaseModel
	Name         string       `gorm:"size:128;not null" json:"name"`
	Email        string       `gorm:"size:255;index" json:"email"`
	Phone        string       `gorm:"size:32" json:"phone"`
	Status       VendorStatus `gorm:"size:20;default:pending;index" json:"status"`
	StatusReason string       `gorm:"size:512" json:"status_reason"`
}

func (Vendor) TableName() string {
	return "vendors"
}
