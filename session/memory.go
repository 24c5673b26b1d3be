package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	aichef "github.com/prasha-au/aichef"
)

// Memory is an in-memory Store for tests. Sessions are held serialized so a
// Load never aliases a previously saved value.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(ctx context.Context, id string) (aichef.Session, error) {
	if err := validateID(id); err != nil {
		return aichef.Session{}, err
	}
	m.mu.RLock()
	raw, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return aichef.Session{ID: id}, nil
	}
	var sess aichef.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return aichef.Session{}, fmt.Errorf("parse session %s: %w", id, err)
	}
	return sess, nil
}

func (m *Memory) Save(ctx context.Context, sess aichef.Session) error {
	if err := validateID(sess.ID); err != nil {
		return err
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}
	m.mu.Lock()
	m.data[sess.ID] = raw
	m.mu.Unlock()
	return nil
}
