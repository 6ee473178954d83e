package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

// FileStore is a file-backed Gateway. Records are JSON documents laid out as
//
//	session/<ownerID>/<sessionID>.json
//	turn/<sessionID>/<turnID>.json
//
// Writes go through a temp-file rename so readers never observe a partial
// document, guarded by an flock per record path. Turn IDs are ULIDs, so the
// sorted directory listing is creation order.
type FileStore struct {
	basePath string
	mu       sync.Mutex
	locks    map[string]*fileLock
}

var _ Gateway = (*FileStore)(nil)

// New creates a FileStore rooted at basePath.
func New(basePath string) *FileStore {
	return &FileStore{
		basePath: basePath,
		locks:    make(map[string]*fileLock),
	}
}

func (s *FileStore) sessionPath(ownerID, sessionID string) string {
	return filepath.Join(s.basePath, "session", ownerID, sessionID+".json")
}

func (s *FileStore) turnPath(sessionID, turnID string) string {
	return filepath.Join(s.basePath, "turn", sessionID, turnID+".json")
}

// CreateSession persists a new session record.
func (s *FileStore) CreateSession(ctx context.Context, session *types.Session) error {
	return s.put(s.sessionPath(session.OwnerID, session.ID), session)
}

// GetSession retrieves a session by ID. The owner is not known to callers, so
// this scans the per-owner directories for the matching record.
func (s *FileStore) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	owners, err := listDir(filepath.Join(s.basePath, "session"))
	if err != nil {
		return nil, err
	}

	for _, ownerID := range owners {
		var session types.Session
		err := s.get(s.sessionPath(ownerID, sessionID), &session)
		if err == nil {
			return &session, nil
		}
		if err != ErrNotFound {
			return nil, err
		}
	}

	return nil, ErrNotFound
}

// UpdateSession replaces an existing session record.
func (s *FileStore) UpdateSession(ctx context.Context, session *types.Session) error {
	path := s.sessionPath(session.OwnerID, session.ID)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to stat session: %w", err)
	}
	return s.put(path, session)
}

// ListSessionsByOwner returns all sessions owned by ownerID, unordered.
func (s *FileStore) ListSessionsByOwner(ctx context.Context, ownerID string) ([]*types.Session, error) {
	var sessions []*types.Session
	err := scanDir(filepath.Join(s.basePath, "session", ownerID), func(data json.RawMessage) error {
		var session types.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		sessions = append(sessions, &session)
		return nil
	})
	return sessions, err
}

// CountActiveSessionsByOwner counts the owner's sessions in active status.
func (s *FileStore) CountActiveSessionsByOwner(ctx context.Context, ownerID string) (int, error) {
	sessions, err := s.ListSessionsByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, session := range sessions {
		if session.Status == types.StatusActive {
			count++
		}
	}
	return count, nil
}

// ScanSessions iterates every stored session across all owners.
func (s *FileStore) ScanSessions(ctx context.Context, fn func(*types.Session) error) error {
	owners, err := listDir(filepath.Join(s.basePath, "session"))
	if err != nil {
		return err
	}

	for _, ownerID := range owners {
		sessions, err := s.ListSessionsByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		for _, session := range sessions {
			if err := fn(session); err != nil {
				return err
			}
		}
	}
	return nil
}

// AppendTurn persists one turn.
func (s *FileStore) AppendTurn(ctx context.Context, turn *types.Turn) error {
	return s.put(s.turnPath(turn.SessionID, turn.ID), turn)
}

// ListTurns returns a session's turns in creation order.
func (s *FileStore) ListTurns(ctx context.Context, sessionID string) ([]*types.Turn, error) {
	var turns []*types.Turn
	err := scanDir(filepath.Join(s.basePath, "turn", sessionID), func(data json.RawMessage) error {
		var turn types.Turn
		if err := json.Unmarshal(data, &turn); err != nil {
			return fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		turns = append(turns, &turn)
		return nil
	})
	return turns, err
}

// put writes a value atomically with file locking.
func (s *FileStore) put(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	lock := s.getLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	// Write to temp file first, then rename (atomic operation)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// get reads and unmarshals a single record.
func (s *FileStore) get(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}

	return nil
}

// getLock returns the lock for a record path.
func (s *FileStore) getLock(path string) *fileLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[path]
	if !ok {
		lock = newFileLock(path)
		s.locks[path] = lock
	}

	return lock
}

// listDir returns the entry names under a directory, without extensions.
// A missing directory is an empty result, not an error.
func listDir(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var items []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			items = append(items, name)
		} else if strings.HasSuffix(name, ".json") {
			items = append(items, strings.TrimSuffix(name, ".json"))
		}
	}

	return items, nil
}

// scanDir calls fn with the raw contents of each JSON record in a directory,
// in sorted filename order.
func scanDir(dirPath string, fn func(json.RawMessage) error) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			continue // Skip files that can't be read
		}

		if err := fn(json.RawMessage(data)); err != nil {
			return err
		}
	}

	return nil
}
