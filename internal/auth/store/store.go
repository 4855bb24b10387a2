// Package store persists the last signed-in session so a provider can restore it
// on the next start.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/auth/constants"
	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// Store defines how the persisted session is saved and restored.
// Load returns (nil, nil) when nothing is persisted.
type Store interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context) error
}

// record is the on-disk shape of a session
type record struct {
	UID           string    `yaml:"uid"`
	Email         string    `yaml:"email"`
	EmailVerified bool      `yaml:"email_verified"`
	IDToken       string    `yaml:"id_token"`
	RefreshToken  string    `yaml:"refresh_token,omitempty"`
	ExpiresAt     time.Time `yaml:"expires_at"`
}

func toRecord(s *models.Session) record {
	r := record{
		UID:           s.UID,
		Email:         s.Email,
		EmailVerified: s.EmailVerified,
	}
	if s.Token != nil {
		r.IDToken = s.Token.AccessToken
		r.RefreshToken = s.Token.RefreshToken
		r.ExpiresAt = s.Token.Expiry
	}
	return r
}

func (r record) session() *models.Session {
	return &models.Session{
		UID:           r.UID,
		Email:         r.Email,
		EmailVerified: r.EmailVerified,
		Token: &oauth2.Token{
			AccessToken:  r.IDToken,
			TokenType:    constants.TokenType,
			RefreshToken: r.RefreshToken,
			Expiry:       r.ExpiresAt,
		},
	}
}

// FileStore keeps the session as a YAML file readable only by the owner
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore writing to path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file backing the store
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(_ context.Context) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to read %s: %w", f.path, err)
	}

	var r record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("store: failed to unmarshal: %w", err)
	}
	if r.UID == "" || r.IDToken == "" {
		return nil, fmt.Errorf("store: %s is missing uid or id_token", f.path)
	}
	return r.session(), nil
}

func (f *FileStore) Save(_ context.Context, s *models.Session) error {
	if s == nil {
		return fmt.Errorf("store: nil session")
	}

	data, err := yaml.Marshal(toRecord(s))
	if err != nil {
		return fmt.Errorf("store: failed to marshal: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("store: failed to create %s: %w", dir, err)
		}
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileStore) Delete(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: failed to delete %s: %w", f.path, err)
	}
	return nil
}

// MemoryStore keeps the session for the lifetime of the process
type MemoryStore struct {
	mu      sync.Mutex
	session *models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *MemoryStore) Save(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// New returns a FileStore for path, or a MemoryStore when path is empty
func New(path string) Store {
	if path == "" {
		return NewMemoryStore()
	}
	return NewFileStore(path)
}
