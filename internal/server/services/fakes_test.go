package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gatorauth/internal/common"
	"github.com/dmitrijs2005/gatorauth/internal/cryptox"
	"github.com/dmitrijs2005/gatorauth/internal/dbx"
	"github.com/dmitrijs2005/gatorauth/internal/logging"
	"github.com/dmitrijs2005/gatorauth/internal/server/auth"
	"github.com/dmitrijs2005/gatorauth/internal/server/blacklist"
	"github.com/dmitrijs2005/gatorauth/internal/server/config"
	"github.com/dmitrijs2005/gatorauth/internal/server/models"
	blacklistrepo "github.com/dmitrijs2005/gatorauth/internal/server/repositories/blacklist"
	usersrepo "github.com/dmitrijs2005/gatorauth/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// --- in-memory repositories ---

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*models.User
	err  error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	return u, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) UpdateEmail(_ context.Context, id, email string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	for otherID, other := range m.byID {
		if otherID != id && other.Email == email {
			return common.ErrorAlreadyExists
		}
	}
	u.Email, u.UpdatedAt = email, at
	return nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id, hash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash, u.UpdatedAt = hash, at
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

type memBlacklist struct {
	mu     sync.Mutex
	tokens map[string]bool
	err    error
}

func newMemBlacklist() *memBlacklist { return &memBlacklist{tokens: map[string]bool{}} }

func (m *memBlacklist) Exists(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.tokens[token], nil
}

func (m *memBlacklist) Add(_ context.Context, token string, _ *time.Time, _ time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.tokens[token] {
		return false, nil
	}
	m.tokens[token] = true
	return true, nil
}

func (m *memBlacklist) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type fakeRepoManager struct {
	users     *memUsers
	blacklist *memBlacklist
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository        { return m.users }
func (m *fakeRepoManager) Blacklist(dbx.DBTX) blacklistrepo.Repository {
	return m.blacklist
}

// --- fixture ---

var (
	keysOnce              sync.Once
	accessKey, refreshKey auth.KeyPair
	keysErr               error
)

func testKeys(t *testing.T) (auth.KeyPair, auth.KeyPair) {
	t.Helper()
	keysOnce.Do(func() {
		accessKey, keysErr = auth.GenerateKeyPair(auth.DefaultKeyBits)
		if keysErr != nil {
			return
		}
		refreshKey, keysErr = auth.GenerateKeyPair(auth.DefaultKeyBits)
	})
	require.NoError(t, keysErr)
	return accessKey, refreshKey
}

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	rm       *fakeRepoManager
	clock    *testClock
	codec    *auth.Codec
	users    *UserService
	sessions *SessionService
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	for _, m := range mutate {
		m(cfg)
	}

	rm := &fakeRepoManager{users: newMemUsers(), blacklist: newMemBlacklist()}
	clock := &testClock{now: time.Now()}

	a, r := testKeys(t)
	codec, err := auth.NewCodec(a, r, blacklist.NewGate(rm.blacklist), auth.WithClock(clock.Now))
	require.NoError(t, err)

	hasher := cryptox.NewBcryptHasher(4)

	return &fixture{
		db:       db,
		mock:     mock,
		rm:       rm,
		clock:    clock,
		codec:    codec,
		users:    NewUserService(db, rm, hasher),
		sessions: NewSessionService(db, rm, codec, hasher, cfg, logging.Nop()),
	}
}
