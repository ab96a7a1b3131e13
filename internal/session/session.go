package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const defaultMaxHistory = 2

type message struct {
	role    string
	content string
}

// Manager keeps in-memory conversation history per session, bounded to the
// most recent maxHistory question/answer exchanges.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string][]message
	maxHistory int
}

func NewManager(maxHistory int) *Manager {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &Manager{
		sessions:   make(map[string][]message),
		maxHistory: maxHistory,
	}
}

// Create registers a new empty session and returns its ID.
func (m *Manager) Create() string {
	id := uuid.New().String()
	m.mu.Lock()
	m.sessions[id] = nil
	m.mu.Unlock()
	return id
}

// AddExchange records one question/answer pair, dropping the oldest
// exchanges beyond the history bound.
func (m *Manager) AddExchange(sessionID, question, answer string) {
	if sessionID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := append(m.sessions[sessionID],
		message{role: "user", content: question},
		message{role: "assistant", content: answer},
	)
	if limit := m.maxHistory * 2; len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	m.sessions[sessionID] = msgs
}

// History formats the session's messages for prompt context. Unknown or
// empty sessions yield "".
func (m *Manager) History(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.sessions[sessionID]
	if len(msgs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", titleRole(msg.role), msg.content))
	}
	return strings.Join(lines, "\n")
}

// Clear empties a session's history while keeping the session alive.
func (m *Manager) Clear(sessionID string) {
	m.mu.Lock()
	m.sessions[sessionID] = nil
	m.mu.Unlock()
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
