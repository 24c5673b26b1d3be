// Package session persists chat sessions: message history plus the cross-turn
// chat state, keyed by an opaque session id.
package session

import (
	"context"
	"fmt"
	"strings"

	aichef "github.com/prasha-au/aichef"
)

// Store is the session persistence capability. Load returns an empty session
// for ids that have never been saved. Save replaces the full record; there is
// no versioning, so concurrent turns on one session race and the last save
// wins.
type Store interface {
	Load(ctx context.Context, id string) (aichef.Session, error)
	Save(ctx context.Context, sess aichef.Session) error
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("session id must not be empty")
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("session id must not contain path separators: %q", id)
	}
	return nil
}
