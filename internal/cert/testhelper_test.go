package cert

import (
	"errors"
	"io/fs"
	"sync"
	"testing"
	"time"

	pkicrypto "github.com/remiblancher/qcert/internal/crypto"
)

var (
	sharedKeyOnce sync.Once
	sharedKey     *pkicrypto.KeyPair
	sharedKeyErr  error
)

// testKey returns an RSA-2048 key shared by the package tests.
func testKey(t *testing.T) *pkicrypto.KeyPair {
	t.Helper()
	sharedKeyOnce.Do(func() {
		sharedKey, sharedKeyErr = pkicrypto.GenerateKeyPair(pkicrypto.AlgRSA2048)
	})
	if sharedKeyErr != nil {
		t.Fatalf("GenerateKeyPair() error = %v", sharedKeyErr)
	}
	return sharedKey
}

// staticKeyProvider hands out a fixed key and counts calls.
type staticKeyProvider struct {
	kp    *pkicrypto.KeyPair
	err   error
	calls int
}

func (p *staticKeyProvider) GenerateKey(alg pkicrypto.AlgorithmID) (*pkicrypto.KeyPair, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.kp, nil
}

// fakeClock is a settable time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// memFS is an in-memory FileSystem.
type memFS struct {
	files    map[string][]byte
	modes    map[string]fs.FileMode
	dirs     map[string]bool
	mkdirErr error
	writeErr error
}

func newMemFS() *memFS {
	return &memFS{
		files: make(map[string][]byte),
		modes: make(map[string]fs.FileMode),
		dirs:  make(map[string]bool),
	}
}

func (m *memFS) MkdirAll(path string, perm fs.FileMode) error {
	if m.mkdirErr != nil {
		return m.mkdirErr
	}
	m.dirs[path] = true
	return nil
}

func (m *memFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[name] = append([]byte(nil), data...)
	m.modes[name] = perm
	return nil
}

func (m *memFS) ReadFile(name string) ([]byte, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return data, nil
}

var errInjected = errors.New("injected failure")

// newTestManager returns a manager with a shared key, a fixed clock and an
// in-memory filesystem.
func newTestManager(t *testing.T) (*Manager, *fakeClock, *memFS) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)}
	mfs := newMemFS()
	m := NewManager(
		WithKeyProvider(&staticKeyProvider{kp: testKey(t)}),
		WithClock(clock.Now),
		WithFileSystem(mfs),
	)
	return m, clock, mfs
}
