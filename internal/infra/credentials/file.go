package credentials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"mediagen/internal/domain"
	"mediagen/internal/storage"
)

const (
	credentialsKey = "credentials.toml"
	lockName       = ".credentials.lock"
	lockRetry      = 50 * time.Millisecond
)

type fileContents struct {
	KreaAPIKey string `toml:"krea_api_key"`
}

// FileBackend keeps the token in credentials.toml under a config directory.
// Writes hold an advisory file lock so concurrent CLI invocations do not
// interleave.
type FileBackend struct {
	store *storage.FileStore
	lock  *flock.Flock
}

// NewFileBackend roots the backend at dir, creating it when missing.
func NewFileBackend(dir string) (*FileBackend, error) {
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &FileBackend{
		store: store,
		lock:  flock.New(filepath.Join(store.BasePath(), lockName)),
	}, nil
}

func (b *FileBackend) Name() string { return "file" }

// Path returns the credentials file location.
func (b *FileBackend) Path() string {
	p, _ := b.store.Path(credentialsKey)
	return p
}

func (b *FileBackend) Load(ctx context.Context) (string, error) {
	data, err := b.store.Read(ctx, credentialsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var contents fileContents
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&contents); err != nil {
		return "", fmt.Errorf("credentials: parse %s: %w", credentialsKey, err)
	}
	return strings.TrimSpace(contents.KreaAPIKey), nil
}

func (b *FileBackend) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Validationf("token is required")
	}
	data, err := toml.Marshal(fileContents{KreaAPIKey: token})
	if err != nil {
		return fmt.Errorf("credentials: encode: %w", err)
	}
	return b.withLock(ctx, func() error {
		_, err := b.store.Write(ctx, credentialsKey, data)
		return err
	})
}

func (b *FileBackend) Clear(ctx context.Context) error {
	return b.withLock(ctx, func() error {
		return b.store.Delete(ctx, credentialsKey)
	})
}

func (b *FileBackend) withLock(ctx context.Context, fn func() error) error {
	ok, err := b.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("credentials: acquire lock: %w", err)
	}
	if !ok {
		return errors.New("credentials: lock held by another process")
	}
	defer func() { _ = b.lock.Unlock() }()
	return fn()
}

var _ Backend = (*FileBackend)(nil)
