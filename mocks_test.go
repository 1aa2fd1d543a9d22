package identity_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	identity "github.com/zeeshanravian1/go-user-identity"
)

// MockUsers is a testify mock for the Users repository
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*identity.User, error) {
	args := m.Called(ctx, id)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *identity.User, criteria ...repository.InsertCriteria) (*identity.User, error) {
	args := m.Called(ctx, record)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *identity.User, criteria ...repository.InsertCriteria) (*identity.User, error) {
	args := m.Called(ctx, tx, record)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *identity.User, criteria ...repository.UpdateCriteria) (*identity.User, error) {
	args := m.Called(ctx, tx, record)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*identity.User, error) {
	args := m.Called(ctx, tx, email)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*identity.User, error) {
	args := m.Called(ctx, tx, username)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tx, id)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) ListPage(ctx context.Context, offset, limit int) ([]*identity.User, int, error) {
	args := m.Called(ctx, offset, limit)
	var items []*identity.User
	if v := args.Get(0); v != nil {
		items = v.([]*identity.User)
	}
	return items, args.Int(1), args.Error(2)
}

func (m *MockUsers) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status identity.UserStatus) (*identity.User, error) {
	args := m.Called(ctx, tx, id, status)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) SetPasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) SetRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, roleID string) (*identity.User, error) {
	args := m.Called(ctx, tx, id, roleID)
	return userResult(args.Get(0)), args.Error(1)
}

func (m *MockUsers) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func userResult(v any) *identity.User {
	if v == nil {
		return nil
	}
	return v.(*identity.User)
}

// testRepo satisfies RepositoryManager without a database: RunInTx simply
// executes the callback so transactional code paths run against the mocks.
type testRepo struct {
	users *MockUsers
	roles identity.Roles
}

func newTestRepo() *testRepo {
	return &testRepo{users: &MockUsers{}}
}

func (r *testRepo) Users() identity.Users { return r.users }
func (r *testRepo) Roles() identity.Roles { return r.roles }
func (r *testRepo) Validate() error       { return nil }
func (r *testRepo) MustValidate()         {}

func (r *testRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

// delivery records one notifier send
type delivery struct {
	Recipient string
	Purpose   identity.TokenPurpose
	Token     string
}

// notifierRecorder captures sends on a channel so tests can wait for the
// fire-and-forget delivery goroutine.
type notifierRecorder struct {
	deliveries chan delivery
}

func newNotifierRecorder() *notifierRecorder {
	return &notifierRecorder{deliveries: make(chan delivery, 64)}
}

func (n *notifierRecorder) Send(_ context.Context, recipient string, purpose identity.TokenPurpose, token string) error {
	n.deliveries <- delivery{Recipient: recipient, Purpose: purpose, Token: token}
	return nil
}

func (n *notifierRecorder) wait(timeout time.Duration) (delivery, bool) {
	select {
	case d := <-n.deliveries:
		return d, true
	case <-time.After(timeout):
		return delivery{}, false
	}
}

// noDeliveryWithin reports whether the recorder stayed silent for the window
func (n *notifierRecorder) noDeliveryWithin(timeout time.Duration) bool {
	select {
	case <-n.deliveries:
		return false
	case <-time.After(timeout):
		return true
	}
}
