package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"donna/internal/agent/ports"
	"donna/internal/logging"
)

// Store persists each session as one JSON file under a directory. Writes are
// atomic (temp file + rename) so a crash mid-save never corrupts a session.
type Store struct {
	dir    string
	logger logging.Logger
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// New creates the directory if needed and returns the store.
func New(dir string, logger logging.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("session directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &Store{dir: dir, logger: logging.OrNop(logger)}, nil
}

func (s *Store) Create(ctx context.Context) (*ports.Session, error) {
	now := time.Now()
	session := &ports.Session{
		Version:   ports.SessionVersion,
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	session.Normalize()
	if err := s.Save(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info("Created session %s", session.ID)
	return session, nil
}

func (s *Store) Get(_ context.Context, sessionID string) (*ports.Session, error) {
	path, err := s.pathFor(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session not found: %s", sessionID)
		}
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	var session ports.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	session.Normalize()
	return &session, nil
}

func (s *Store) Save(_ context.Context, session *ports.Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("cannot save session without an id")
	}
	path, err := s.pathFor(session.ID)
	if err != nil {
		return err
	}
	session.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session %s: %w", session.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit session %s: %w", session.ID, err)
	}
	return nil
}

func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	path, err := s.pathFor(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("session not found: %s", sessionID)
		}
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	s.logger.Info("Deleted session %s", sessionID)
	return nil
}

// pathFor validates the id before joining it into a path, so a crafted
// session id can never escape the store directory.
func (s *Store) pathFor(sessionID string) (string, error) {
	if !sessionIDPattern.MatchString(sessionID) {
		return "", fmt.Errorf("invalid session id: %q", sessionID)
	}
	return filepath.Join(s.dir, sessionID+".json"), nil
}

var _ ports.SessionStore = (*Store)(nil)
