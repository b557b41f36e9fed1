package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-wallet-accounts/internal/domain/entity"
	"github.com/oksasatya/go-wallet-accounts/internal/domain/repository"
)

// CommitHook receives the serialized document after every successful save.
type CommitHook func(ctx context.Context, doc []byte)

type Option func(*AccountStore)

// WithCommitHook registers a hook run after the lock is released.
func WithCommitHook(h CommitHook) Option {
	return func(s *AccountStore) { s.hooks = append(s.hooks, h) }
}

// WithLockTimeout bounds how long an operation waits for the document lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *AccountStore) { s.lockTimeout = d }
}

// lockRetryDelay is the poll interval while another process holds the lock file.
const lockRetryDelay = 10 * time.Millisecond

// AccountStore keeps the whole account collection in one JSON document.
type AccountStore struct {
	path   string
	lock   *fileLock
	flock  *flock.Flock
	logger *logrus.Logger
	hooks  []CommitHook

	lockTimeout time.Duration

	writeFile func(path string, data []byte) error
}

// NewAccountStore opens (without reading) the document at path, creating its
// parent directory when missing.
func NewAccountStore(path string, logger *logrus.Logger, opts ...Option) (*AccountStore, error) {
	if path == "" {
		return nil, errors.New("accounts file path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(abs), err)
	}
	s := &AccountStore{
		path:      abs,
		lock:      lockFor(abs),
		flock:     flock.New(LockPath(abs)),
		logger:    logger,
		writeFile: atomicWriteFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the absolute location of the document.
func (s *AccountStore) Path() string { return s.path }

// LockPath names the advisory lock file guarding the document at path.
func LockPath(path string) string { return path + ".lock" }

// Load reads a snapshot of the collection without taking the lock; saves
// replace the document by rename, so a reader sees either the old or the new
// version. A missing or malformed document yields an empty collection.
func (s *AccountStore) Load(ctx context.Context) (*entity.AccountCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load()
}

// Transact serializes load, fn and save against every other Transact on the
// same document path, in this process and in any other process using the
// same lock file.
func (s *AccountStore) Transact(ctx context.Context, fn repository.TxFunc) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	doc, err := s.transactLocked(ctx, fn)
	release()
	if err != nil {
		return err
	}
	for _, h := range s.hooks {
		h(ctx, doc)
	}
	return nil
}

// acquire takes the in-process lock and then the advisory lock file. The
// returned func releases both.
func (s *AccountStore) acquire(ctx context.Context) (func(), error) {
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	if err := s.lock.acquire(ctx); err != nil {
		return nil, err
	}
	ok, err := s.flock.TryLockContext(ctx, lockRetryDelay)
	if err == nil && !ok {
		err = errors.New("lock file busy")
	}
	if err != nil {
		s.lock.release()
		return nil, fmt.Errorf("wait for accounts lock file: %w", err)
	}
	return func() {
		if err := s.flock.Unlock(); err != nil && s.logger != nil {
			s.logger.WithError(err).WithField("path", s.flock.Path()).Warn("release accounts lock file")
		}
		s.lock.release()
	}, nil
}

func (s *AccountStore) transactLocked(ctx context.Context, fn repository.TxFunc) ([]byte, error) {
	c, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := encode(c)
	if err != nil {
		return nil, err
	}
	if err := s.writeFile(s.path, doc); err != nil {
		return nil, fmt.Errorf("save accounts: %w", err)
	}
	return doc, nil
}

func (s *AccountStore) load() (*entity.AccountCollection, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &entity.AccountCollection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return &entity.AccountCollection{}, nil
	}
	var accounts []entity.Account
	if err := json.Unmarshal(b, &accounts); err != nil {
		if s.logger != nil {
			s.logger.WithError(err).WithField("path", s.path).Warn("accounts document is malformed, starting from empty collection")
		}
		return &entity.AccountCollection{}, nil
	}
	for i := range accounts {
		accounts[i].Normalize()
	}
	return &entity.AccountCollection{Accounts: accounts}, nil
}

func encode(c *entity.AccountCollection) ([]byte, error) {
	accounts := c.Accounts
	if accounts == nil {
		accounts = []entity.Account{}
	}
	b, err := json.MarshalIndent(accounts, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode accounts: %w", err)
	}
	return append(b, '\n'), nil
}

// fileLock is a context-aware mutex shared by every store on one path.
type fileLock struct {
	ch chan struct{}
}

var (
	locksMu sync.Mutex
	locks   = map[string]*fileLock{}
)

func lockFor(path string) *fileLock {
	locksMu.Lock()
	defer locksMu.Unlock()
	l, ok := locks[path]
	if !ok {
		l = &fileLock{ch: make(chan struct{}, 1)}
		locks[path] = l
	}
	return l
}

func (l *fileLock) acquire(ctx context.Context) error {
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for accounts lock: %w", ctx.Err())
	}
}

func (l *fileLock) release() { <-l.ch }

var _ repository.AccountRepository = (*AccountStore)(nil)
