package service

import (
	"time"

	"market_admin_v1/pkg/utils"
)

// DefaultWizardTTL 向导会话空闲过期时间
const DefaultWizardTTL = 2 * time.Hour

// WizardSessionStore 内存中的向导会话，访问即续期
type WizardSessionStore struct {
	cache *utils.TTLCache[*WizardController]
}

func NewWizardSessionStore(ttl time.Duration) *WizardSessionStore {
	if ttl <= 0 {
		ttl = DefaultWizardTTL
	}
	return &WizardSessionStore{cache: utils.NewTTLCache[*WizardController](ttl)}
}

// SetClock 替换时钟（测试用）
func (s *WizardSessionStore) SetClock(now func() time.Time) {
	s.cache.SetClock(now)
}

func (s *WizardSessionStore) Put(w *WizardController) {
	s.cache.Set(w.ID(), w)
}

func (s *WizardSessionStore) Get(id string) (*WizardController, bool) {
	w, ok := s.cache.Get(id)
	if ok {
		s.cache.Set(id, w)
	}
	return w, ok
}

// Has 是否存活，不续期
func (s *WizardSessionStore) Has(id string) bool {
	_, ok := s.cache.Get(id)
	return ok
}

func (s *WizardSessionStore) Delete(id string) {
	s.cache.Delete(id)
}

// Sweep 清理过期会话，返回清理数量
func (s *WizardSessionStore) Sweep() int {
	return s.cache.Sweep()
}

func (s *WizardSessionStore) Len() int {
	return s.cache.Len()
}
