package identity

import (
	"context"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const deliveryTimeout = 30 * time.Second

// Accounts orchestrates the account lifecycle: registration, verification,
// credential rotation, profile updates, deletion, and listing. Every mutating
// operation runs as one transaction against the target user's record.
type Accounts struct {
	repo     RepositoryManager
	tokens   TokenService
	registry *Registry
	notifier Notifier
	sm       UserStateMachine
	cfg      Config
	logger   Logger
	now      func() time.Time
}

// AccountsOption customizes the lifecycle service
type AccountsOption func(*Accounts)

// WithNotifier sets the outbound delivery channel for tokens
func WithNotifier(n Notifier) AccountsOption {
	return func(a *Accounts) {
		if n != nil {
			a.notifier = n
		}
	}
}

// WithAccountsLogger overrides the default logger
func WithAccountsLogger(logger Logger) AccountsOption {
	return func(a *Accounts) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAccountsClock injects a custom clock (useful for tests)
func WithAccountsClock(clock func() time.Time) AccountsOption {
	return func(a *Accounts) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithStateMachine overrides the default user state machine
func WithStateMachine(sm UserStateMachine) AccountsOption {
	return func(a *Accounts) {
		if sm != nil {
			a.sm = sm
		}
	}
}

// NewAccounts builds the lifecycle service. The registry must already hold
// the seeded role set; cfg supplies secrets, TTLs, and policy.
func NewAccounts(repo RepositoryManager, tokens TokenService, registry *Registry, cfg Config, opts ...AccountsOption) *Accounts {
	a := &Accounts{
		repo:     repo,
		tokens:   tokens,
		registry: registry,
		notifier: noopNotifier{},
		cfg:      cfg,
		logger:   defLogger{},
		now:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if a.sm == nil {
		a.sm = NewUserStateMachine(repo.Users())
	}

	return a
}

// Register creates a pending account and hands a verification token to the
// notifier. Delivery is fire-and-forget: a send failure is logged and never
// rolls back the account.
func (a *Accounts) Register(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	if err := a.cfg.Password.Validate(password); err != nil {
		return nil, err
	}

	hash, err := HashPasswordCost(password, a.cfg.bcryptCost())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		Status:       UserStatusPending,
	}

	if id, err := hashid.NewUUID(email); err == nil {
		user.ID = id
	} else {
		user.ID = uuid.New()
	}

	err = a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := a.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil && !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing email")
		}
		if existing != nil {
			return withDetails(ErrDuplicateEmail, map[string]any{
				"verified": existing.IsActive(),
			})
		}

		user.Username, err = a.pickUsername(ctx, tx, email)
		if err != nil {
			return err
		}

		if _, err = a.repo.Users().CreateTx(ctx, tx, user); err != nil {
			// a concurrent registration can slip past the pre-check and hit
			// the unique index instead
			if isUniqueViolation(err) {
				return withDetails(ErrDuplicateEmail, map[string]any{
					"email": user.Email,
				})
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		return nil, asRichError(err, "user registration failed")
	}

	token, err := a.tokens.Issue(user.Email, PurposeVerifyEmail, a.cfg.VerifyEmailTTL)
	if err != nil {
		a.logger.Error("failed to issue verification token for %s: %s", user.Email, err)
		return user, nil
	}

	a.deliver(user.Email, PurposeVerifyEmail, token)

	return user, nil
}

// VerifyEmail redeems a verification token. Verifying an already-active
// account is a no-op that returns the current record; disabled or missing
// accounts fail with ErrInvalidAccountState.
func (a *Accounts) VerifyEmail(ctx context.Context, token string) (*User, error) {
	subject, err := a.tokens.Validate(token, PurposeVerifyEmail)
	if err != nil {
		return nil, err
	}

	var user *User
	err = a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err = a.repo.Users().GetByEmailTx(ctx, tx, subject)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return withDetails(ErrInvalidAccountState, map[string]any{
					"reason": "account no longer exists",
				})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for verification")
		}

		if user.IsDisabled() {
			return withDetails(ErrInvalidAccountState, map[string]any{
				"status": user.Status,
			})
		}

		if user.IsActive() {
			return nil
		}

		_, err = a.sm.Transition(ctx, tx, ActorRef{Type: "system"}, user, UserStatusActive,
			WithTransitionReason("email verified"))
		return err
	})

	if err != nil {
		return nil, asRichError(err, "email verification failed")
	}

	return user, nil
}

// RequestPasswordReset issues and delivers a reset token when the account
// exists and is not disabled. It reports success either way so callers
// cannot discover which emails are registered.
func (a *Accounts) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := a.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			a.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account for reset")
	}

	if user.IsDisabled() {
		a.logger.Debug("password reset requested for disabled account %s", user.ID)
		return nil
	}

	token, err := a.tokens.Issue(user.Email, PurposeResetPassword, a.cfg.ResetPasswordTTL)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
	}

	a.deliver(user.Email, PurposeResetPassword, token)

	return nil
}

// ResetPassword redeems a reset token and rotates the password
func (a *Accounts) ResetPassword(ctx context.Context, token, newPassword string) error {
	subject, err := a.tokens.Validate(token, PurposeResetPassword)
	if err != nil {
		return err
	}

	err = a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := a.repo.Users().GetByEmailTx(ctx, tx, subject)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return withDetails(ErrInvalidAccountState, map[string]any{
					"reason": "account no longer exists",
				})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for reset")
		}

		if user.IsDisabled() {
			return withDetails(ErrInvalidAccountState, map[string]any{
				"status": user.Status,
			})
		}

		return a.rotateTx(ctx, tx, user, newPassword)
	})

	return asRichError(err, "password reset failed")
}

// ChangePassword rotates the password after verifying the old one
func (a *Accounts) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	err := a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := a.findByIDTx(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := ComparePasswordAndHash(oldPassword, user.PasswordHash); err != nil {
			return ErrInvalidCredentials
		}

		return a.rotateTx(ctx, tx, user, newPassword)
	})

	return asRichError(err, "password change failed")
}

// rotateTx enforces the strength policy, hashes, and replaces the stored
// hash in place. The plaintext is never persisted or logged.
func (a *Accounts) rotateTx(ctx context.Context, tx bun.IDB, user *User, newPassword string) error {
	if err := a.cfg.Password.Validate(newPassword); err != nil {
		return err
	}

	hash, err := HashPasswordCost(newPassword, a.cfg.bcryptCost())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := a.repo.Users().SetPasswordHashTx(ctx, tx, user.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store password hash")
	}

	return nil
}

// Update mutates the mutable profile fields of a user. Identity fields stay
// off-limits: id and password hash are not representable in the patch, role
// changes must go through AssignRole, and email is frozen once verified.
func (a *Accounts) Update(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var user *User
	err := a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = a.findByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if patch.Email != nil {
			email := NormalizeEmail(*patch.Email)
			if email != user.Email {
				if !user.IsPending() {
					return withDetails(ErrImmutableField, map[string]any{
						"field": "email",
					})
				}
				user.Email = email
			}
		}

		if patch.Username != nil && *patch.Username != user.Username {
			taken, err := a.repo.Users().GetByUsernameTx(ctx, tx, *patch.Username)
			if err != nil && !repository.IsRecordNotFound(err) {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username")
			}
			if taken != nil && taken.ID != user.ID {
				return goerrors.New("username already exists", goerrors.CategoryConflict).
					WithCode(goerrors.CodeConflict)
			}
			user.Username = *patch.Username
		}

		patch.apply(user)
		now := a.now()
		user.UpdatedAt = &now

		if _, err = a.repo.Users().UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String())); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not update user")
		}

		return nil
	})

	if err != nil {
		return nil, asRichError(err, "user update failed")
	}

	return user, nil
}

// Delete removes the user record. Outstanding tokens referencing the user
// die with it: redemption re-checks user existence, not a revocation list.
func (a *Accounts) Delete(ctx context.Context, id uuid.UUID) error {
	err := a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		deleted, err := a.repo.Users().DeleteByIDTx(ctx, tx, id)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
		}
		if !deleted {
			return withDetails(ErrUserNotFound, map[string]any{"id": id.String()})
		}
		return nil
	})

	return asRichError(err, "user deletion failed")
}

// Disable switches an account off. Disabled accounts cannot authenticate,
// verify, or reset their password until reinstated.
func (a *Accounts) Disable(ctx context.Context, actor ActorRef, id uuid.UUID) (*User, error) {
	return a.transitionByID(ctx, actor, id, UserStatusDisabled, "account disabled")
}

// Reinstate returns a disabled account to active
func (a *Accounts) Reinstate(ctx context.Context, actor ActorRef, id uuid.UUID) (*User, error) {
	return a.transitionByID(ctx, actor, id, UserStatusActive, "account reinstated")
}

func (a *Accounts) transitionByID(ctx context.Context, actor ActorRef, id uuid.UUID, target UserStatus, reason string) (*User, error) {
	var user *User
	err := a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = a.findByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}

		_, err = a.sm.Transition(ctx, tx, actor, user, target, WithTransitionReason(reason))
		return err
	})

	if err != nil {
		return nil, asRichError(err, "status change failed")
	}

	return user, nil
}

// List returns one page of users ordered by id ascending plus the total
// count. Page numbers start at 1; page sizes are clamped to the configured
// bounds.
func (a *Accounts) List(ctx context.Context, page, pageSize int) ([]*User, int, error) {
	if page < 1 {
		page = 1
	}
	size := a.cfg.pageSize(pageSize)

	items, total, err := a.repo.Users().ListPage(ctx, (page-1)*size, size)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	return items, total, nil
}

func (a *Accounts) findByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	user, err := a.repo.Users().FindByIDTx(ctx, tx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, withDetails(ErrUserNotFound, map[string]any{"id": id.String()})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}
	return user, nil
}

func (a *Accounts) pickUsername(ctx context.Context, tx bun.IDB, email string) (string, error) {
	username := UsernameFromEmail(email)

	taken, err := a.repo.Users().GetByUsernameTx(ctx, tx, username)
	if err != nil && !repository.IsRecordNotFound(err) {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username")
	}
	if taken == nil {
		return username, nil
	}

	// de-duplicate with a time-derived suffix
	return username + "_" + strconv.Itoa(a.now().Nanosecond()/1000), nil
}

// deliver hands a token to the notification sink without blocking the
// calling operation. Failures are logged, never raised.
func (a *Accounts) deliver(recipient string, purpose TokenPurpose, token string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		if err := a.notifier.Send(ctx, recipient, purpose, token); err != nil {
			a.logger.Warn("notification delivery for %s failed: %s", purpose, err)
		}
	}()
}

// isUniqueViolation recognizes unique-index errors across the supported
// drivers; neither sqlite nor postgres exposes a portable typed error here.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// asRichError keeps already-categorized errors intact and wraps the rest
func asRichError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return err
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}
