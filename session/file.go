package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	aichef "github.com/prasha-au/aichef"
)

// FileStore keeps one JSON file per session under a root directory. Intended
// for local development and the CLI.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) Load(ctx context.Context, id string) (aichef.Session, error) {
	if err := validateID(id); err != nil {
		return aichef.Session{}, err
	}
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return aichef.Session{ID: id}, nil
	}
	if err != nil {
		return aichef.Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	var sess aichef.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return aichef.Session{}, fmt.Errorf("parse session %s: %w", id, err)
	}
	sess.ID = id
	return sess, nil
}

func (s *FileStore) Save(ctx context.Context, sess aichef.Session) error {
	if err := validateID(sess.ID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}
	if err := os.WriteFile(s.path(sess.ID), data, 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.Dir, id+".json")
}
