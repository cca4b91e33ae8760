package utils

import (
	"sync"
	"time"
)

// TTLCache 带过期时间的内存缓存，使用 sync.Map 保证并发安全
type TTLCache[V any] struct {
	items sync.Map
	ttl   time.Duration
	now   func() time.Time
}

// cacheItem 内部结构，包含值和过期时间
type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{ttl: ttl, now: time.Now}
}

// SetClock 替换时钟（测试用）
func (c *TTLCache[V]) SetClock(now func() time.Time) {
	c.now = now
}

// Set 写入并刷新过期时间
func (c *TTLCache[V]) Set(key string, value V) {
	c.items.Store(key, cacheItem[V]{
		value:      value,
		expiration: c.now().Add(c.ttl),
	})
}

// Get 获取缓存并验证是否过期
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.items.Load(key)
	if !ok {
		return zero, false
	}

	item := val.(cacheItem[V])

	// 检查是否过期
	if c.now().After(item.expiration) {
		c.items.Delete(key) // 懒删除
		return zero, false
	}

	return item.value, true
}

// Touch 续期
func (c *TTLCache[V]) Touch(key string) bool {
	v, ok := c.Get(key)
	if ok {
		c.Set(key, v)
	}
	return ok
}

// Delete 删除缓存
func (c *TTLCache[V]) Delete(key string) {
	c.items.Delete(key)
}

// Sweep 清理所有过期项，返回清理数量
func (c *TTLCache[V]) Sweep() int {
	now := c.now()
	removed := 0
	c.items.Range(func(k, v any) bool {
		if now.After(v.(cacheItem[V]).expiration) {
			c.items.Delete(k)
			removed++
		}
		return true
	})
	return removed
}

// Len 当前条目数（含未清理的过期项）
func (c *TTLCache[V]) Len() int {
	n := 0
	c.items.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
