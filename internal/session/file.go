package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/edhire/dashgate-go/internal/types"
)

// FileStore persists the session as JSON on disk. The CLI uses it so a
// login performed elsewhere survives across invocations.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the file at path. The file may
// not exist yet; Get then reports an empty session.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get() types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return types.Session{}
	}

	var sess types.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// An unreadable session file is indistinguishable from no
		// session; the gateway will redirect to login.
		return types.Session{}
	}
	return sess
}

func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		// Fall back to truncating so a subsequent Get still reads empty.
		_ = os.WriteFile(s.path, []byte("{}"), 0600)
	}
}

// Save writes the session to disk with restrictive permissions. The login
// flow itself is external to this library; Save exists so that flow has a
// place to put the tokens the CLI reads back.
func (s *FileStore) Save(sess types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write session file")
	}
	return nil
}
