// Package store persists extracted recipes together with their embedding
// vectors, keyed by an id derived deterministically from the source URL.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no entry exists under the requested id.
	ErrNotFound = errors.New("recipe not found")
	// ErrUnavailable means the backing store could not be reached. It is
	// propagated, never silently turned into empty results; fallback policy
	// belongs to the caller.
	ErrUnavailable = errors.New("recipe store unavailable")
)

// Entry is one stored recipe: serialized content and its embedding, written
// together in a single atomic put.
type Entry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Vector    []float32 `json:"vector"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
}

// Store is the recipe persistence capability.
type Store interface {
	GetByID(ctx context.Context, id string) (Entry, error)
	Put(ctx context.Context, entry Entry) error
	// NearestNeighbors returns up to limit entries ordered most similar first
	// (cosine), ties broken by insertion order.
	NearestNeighbors(ctx context.Context, vector []float32, limit int) ([]Entry, error)
}

// SimplifyURL strips the query string and fragment from a page URL, leaving
// scheme://host/path. Resize and tracking parameters never reach storage.
func SimplifyURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute url: %q", raw)
	}
	return u.Scheme + "://" + u.Host + u.Path, nil
}

// DocID derives the deterministic store key for a page URL: hostname and path
// joined by a double underscore, with path slashes trimmed and collapsed to
// underscores. URLs differing only by query string or trailing slash map to
// the same key, which is what makes re-extraction idempotent.
func DocID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("not an absolute url: %q", raw)
	}
	path := strings.Trim(u.Path, "/")
	return u.Hostname() + "__" + strings.ReplaceAll(path, "/", "_"), nil
}

// ObjectUUID maps a doc id into the UUID keyspace required by the vector index.
// The mapping is deterministic so repeated puts target the same object.
func ObjectUUID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docID)).String()
}
