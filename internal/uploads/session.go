package uploads

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session tracks one in-flight chunked upload. Chunks may arrive in any
// order; the session records which indexes have landed and the byte
// total so far.
type Session struct {
	Key            string       `json:"key"`
	FileName       string       `json:"fileName"`
	MimeType       string       `json:"mimeType"`
	TotalChunks    int          `json:"totalChunks"`
	ReceivedChunks map[int]bool `json:"receivedChunks"`
	Size           int64        `json:"size"`
	UserID         uuid.UUID    `json:"userID"`
	GroupID        *uuid.UUID   `json:"groupID,omitempty"`
	ParentID       *uuid.UUID   `json:"parentID,omitempty"`
	Assembling     bool         `json:"assembling"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// SessionKey identifies an upload by uploader, destination namespace and
// file name, so the same user can upload same-named files to different
// places concurrently.
func SessionKey(userID uuid.UUID, groupID *uuid.UUID, fileName string) string {
	if groupID == nil {
		return fmt.Sprintf("%s_%s", userID, fileName)
	}
	return fmt.Sprintf("%s_%s_%s", userID, groupID, fileName)
}

// SessionStore persists upload sessions. Implementations must be safe
// for concurrent use; the coordinator serializes access per key on top.
type SessionStore interface {
	Get(key string) (*Session, error)
	Put(session *Session) error
	Delete(key string) error
	Keys() ([]string, error)
	Close() error
}

// MemorySessionStore keeps sessions in process memory. Sessions are lost
// on restart; use the badger store when uploads must survive one.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

func (m *MemorySessionStore) Get(key string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	return copySession(session), nil
}

func (m *MemorySessionStore) Put(session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Key] = copySession(session)
	return nil
}

func (m *MemorySessionStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

func (m *MemorySessionStore) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.sessions))
	for key := range m.sessions {
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *MemorySessionStore) Close() error { return nil }

// copySession keeps callers from mutating stored state through a shared
// map; the badger store gets the same isolation from serialization.
func copySession(s *Session) *Session {
	clone := *s
	clone.ReceivedChunks = make(map[int]bool, len(s.ReceivedChunks))
	for idx, ok := range s.ReceivedChunks {
		clone.ReceivedChunks[idx] = ok
	}
	return &clone
}
