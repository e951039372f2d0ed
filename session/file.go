package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tailored-agentic-units/procure/conversation"
)

// FileStore keeps one JSON file per user under a root directory. Writes go
// through a temp file and rename, so a crash never leaves a partial session.
type FileStore struct {
	root      string
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	mu        sync.RWMutex
}

// NewFileStore creates a Store rooted at dir. The directory is created on the
// first Save. Sessions not updated within ttl are treated as absent and their
// files are removed by a sweep that runs on Save at most once per ttl; a zero
// ttl keeps sessions until deleted.
func NewFileStore(dir string, ttl time.Duration) *FileStore {
	return &FileStore{root: dir, ttl: ttl, now: time.Now, lastSweep: time.Now()}
}

func (s *FileStore) Get(_ context.Context, userID string) (*conversation.Session, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path(userID))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session failed: %w", err)
	}

	var sess conversation.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl {
		s.mu.Lock()
		os.Remove(s.path(userID))
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *FileStore) Save(_ context.Context, sess *conversation.Session) error {
	if sess == nil || sess.UserID == "" {
		return ErrInvalidUser
	}

	stored := *sess
	stored.UpdatedAt = s.now()

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("save session failed: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("save session failed: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save session failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save session failed: %w", err)
	}
	if err := os.Rename(tmpName, s.path(sess.UserID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save session failed: %w", err)
	}
	s.sweep()
	return nil
}

// sweep removes session files not written within ttl. Callers hold s.mu.
func (s *FileStore) sweep() {
	now := s.now()
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > s.ttl {
			os.Remove(filepath.Join(s.root, e.Name()))
		}
	}
}

func (s *FileStore) Delete(_ context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(userID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session failed: %w", err)
	}
	return nil
}

// path escapes userID so any chat id maps to a single file inside root.
func (s *FileStore) path(userID string) string {
	return filepath.Join(s.root, url.PathEscape(userID)+".json")
}
