package session

import (
	"PhotoAlbum/pkg/catalog"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNoSession = errors.New("session not found or expired")

// Session 把一个随机令牌绑定到已登录的 viewer。
type Session struct {
	Token     string         `json:"token"`
	Viewer    catalog.Viewer `json:"viewer"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Manager 在内存中保存会话，进程重启后所有会话失效。
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	ttl time.Duration
	now func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create 为 viewer 创建新会话并返回它。
func (m *Manager) Create(viewer catalog.Viewer) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := &Session{
		Token:     uuid.New().String(),
		Viewer:    viewer,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.sessions[s.Token] = s
	return s
}

// Lookup 返回令牌对应的 viewer。
func (m *Manager) Lookup(token string) (catalog.Viewer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[token]
	if !exists || !m.now().Before(s.ExpiresAt) {
		return catalog.Viewer{}, ErrNoSession
	}
	return s.Viewer, nil
}

func (m *Manager) Delete(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Sweep 删除所有已过期的会话，返回删除的数量。
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for token, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}
