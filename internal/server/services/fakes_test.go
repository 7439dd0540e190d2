package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bizledger/internal/common"
	"github.com/dmitrijs2005/bizledger/internal/dbx"
	"github.com/dmitrijs2005/bizledger/internal/logging"
	"github.com/dmitrijs2005/bizledger/internal/server/auth"
	"github.com/dmitrijs2005/bizledger/internal/server/models"
	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
	"github.com/dmitrijs2005/bizledger/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/bizledger/internal/server/repositories/tenants"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time           { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeAccountsRepo is an in-memory accounts.Repository. Stored accounts are
// copies, as they would be in a real database.
type fakeAccountsRepo struct {
	mu   sync.Mutex
	byID map[string]models.Account

	// createErr, when set, is returned by Create (e.g. a lost uniqueness race).
	createErr error
	updateErr error
	getErr    error

	loginStateUpdates int
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{byID: map[string]models.Account{}}
}

func (f *fakeAccountsRepo) find(match func(models.Account) bool) (*models.Account, error) {
	for _, a := range f.byID {
		if match(a) {
			cp := a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Username == a.Username {
			return nil, accounts.ErrUsernameTaken
		}
		if existing.Email == a.Email {
			return nil, accounts.ErrEmailTaken
		}
	}
	f.byID[a.ID] = *a
	return a, nil
}

func (f *fakeAccountsRepo) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.find(func(a models.Account) bool { return a.Username == username })
}

func (f *fakeAccountsRepo) GetByUsernameOrEmail(_ context.Context, identifier string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if a, err := f.find(func(a models.Account) bool { return a.Username == identifier }); err == nil {
		return a, nil
	}
	return f.find(func(a models.Account) bool { return a.Email == identifier })
}

func (f *fakeAccountsRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.GetByUsername(ctx, username)
	return err == nil, nil
}

func (f *fakeAccountsRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.find(func(a models.Account) bool { return a.Email == email })
	return err == nil, nil
}

func (f *fakeAccountsRepo) UpdateLoginState(_ context.Context, a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.byID[a.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.FailedAttempts = a.FailedAttempts
	stored.LockedUntil = a.LockedUntil
	stored.LastLoginAt = a.LastLoginAt
	f.byID[a.ID] = stored
	f.loginStateUpdates++
	return nil
}

func (f *fakeAccountsRepo) update(username string, fn func(*models.Account)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, a := range f.byID {
		if a.Username == username {
			fn(&a)
			f.byID[id] = a
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeAccountsRepo) UpdateRole(_ context.Context, username string, role rbac.Role) error {
	return f.update(username, func(a *models.Account) { a.Role = role })
}

func (f *fakeAccountsRepo) UpdateActive(_ context.Context, username string, active bool) error {
	return f.update(username, func(a *models.Account) { a.IsActive = active })
}

func (f *fakeAccountsRepo) Unlock(_ context.Context, username string) error {
	return f.update(username, func(a *models.Account) {
		a.FailedAttempts = 0
		a.LockedUntil = nil
	})
}

func (f *fakeAccountsRepo) ListLocked(_ context.Context, now time.Time) ([]*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Account, 0)
	for _, a := range f.byID {
		if a.LockedUntil != nil && a.LockedUntil.After(now) {
			cp := a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// get returns the stored copy of username, failing the test if absent.
func (f *fakeAccountsRepo) get(t *testing.T, username string) models.Account {
	t.Helper()
	a, err := f.GetByUsername(context.Background(), username)
	if err != nil {
		t.Fatalf("account %q not stored: %v", username, err)
	}
	return *a
}

type fakeTenantsRepo struct {
	byID map[string]models.Tenant
}

func (f *fakeTenantsRepo) Create(_ context.Context, t *models.Tenant) (*models.Tenant, error) {
	f.byID[t.ID] = *t
	return t, nil
}

func (f *fakeTenantsRepo) GetByID(_ context.Context, id string) (*models.Tenant, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

type fakeRepoManager struct {
	accounts *fakeAccountsRepo
	tenants  *fakeTenantsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository       { return m.accounts }
func (m *fakeRepoManager) Tenants(dbx.DBTX) tenants.Repository         { return m.tenants }

type testEnv struct {
	svc      *AuthService
	accounts *AccountService
	clock    *fakeClock
	repo     *fakeAccountsRepo
	tenants  *fakeTenantsRepo
	codec    *auth.Codec
	mock     sqlmock.Sqlmock
	db       *sql.DB
}

func newTestEnv(t *testing.T, opts ...AuthOption) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	rm := &fakeRepoManager{
		accounts: newFakeAccountsRepo(),
		tenants:  &fakeTenantsRepo{byID: map[string]models.Tenant{}},
	}
	codec := auth.NewCodec([]byte("k"), 15*time.Minute, 24*time.Hour, logging.NewNop(), auth.WithClock(clock.Now))
	lockout := auth.NewLockoutPolicy(5, 30*time.Minute, clock.Now)

	svc := NewAuthService(db, rm, auth.NewHasher(bcrypt.MinCost), codec, lockout, logging.NewNop(), opts...)
	return &testEnv{
		svc:      svc,
		accounts: NewAccountService(db, rm, clock.Now, logging.NewNop()),
		clock:    clock,
		repo:     rm.accounts,
		tenants:  rm.tenants,
		codec:    codec,
		mock:     mock,
		db:       db,
	}
}

func aliceInput() RegisterInput {
	return RegisterInput{
		Username:  "alice",
		Email:     "alice@x.com",
		Password:  "s3cret1",
		FirstName: "Alice",
		LastName:  "Smith",
		Role:      "USER",
	}
}

// register runs Register expecting the transaction to commit.
func (e *testEnv) register(t *testing.T, in RegisterInput) *AuthResult {
	t.Helper()
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
	res, err := e.svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return res
}
