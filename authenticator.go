package identity

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccessController authenticates bearer credentials and authorizes
// role-restricted operations. Session tokens are a separate purpose from
// verification and reset tokens: one can never stand in for the other.
type AccessController struct {
	repo     RepositoryManager
	tokens   TokenService
	registry *Registry
	cfg      Config
	logger   Logger
}

// AccessControllerOption customizes the controller
type AccessControllerOption func(*AccessController)

// WithAccessLogger overrides the default logger
func WithAccessLogger(logger Logger) AccessControllerOption {
	return func(c *AccessController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAccessController builds the controller over the shared repositories,
// token service, and role registry.
func NewAccessController(repo RepositoryManager, tokens TokenService, registry *Registry, cfg Config, opts ...AccessControllerOption) *AccessController {
	c := &AccessController{
		repo:     repo,
		tokens:   tokens,
		registry: registry,
		cfg:      cfg,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Login verifies credentials against an email or username and issues a
// session token. Only active accounts can log in.
func (c *AccessController) Login(ctx context.Context, identifier, password string) (string, error) {
	user, err := c.findByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrInvalidCredentials
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		c.logger.Debug("login password mismatch for user %s", user.ID)
		return "", ErrInvalidCredentials
	}

	if !user.IsActive() {
		return "", withDetails(ErrInvalidAccountState, map[string]any{
			"status": user.Status,
		})
	}

	token, err := c.tokens.Issue(user.ID.String(), PurposeSession, c.cfg.SessionTTL)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	return token, nil
}

// Authenticate resolves a bearer credential to a live user. It fails with
// ErrUnauthenticated when the token is expired, malformed, or the user no
// longer exists or is disabled.
func (c *AccessController) Authenticate(ctx context.Context, bearer string) (*User, error) {
	bearer = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(bearer), "Bearer "))
	if bearer == "" {
		return nil, ErrUnauthenticated
	}

	subject, err := c.tokens.Validate(bearer, PurposeSession)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	user, err := c.repo.Users().GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session user")
	}

	if user.IsDisabled() {
		return nil, ErrUnauthenticated
	}

	return user, nil
}

// Authorize checks the user holds the required role. Self-service
// operations only need Authenticate; role-restricted ones call this too.
func (c *AccessController) Authorize(user *User, requiredRole string) error {
	if user == nil {
		return ErrUnauthenticated
	}

	if !user.HasRole(requiredRole) {
		return withDetails(ErrForbidden, map[string]any{
			"required": requiredRole,
		})
	}

	return nil
}

// AssignRole sets the target user's role after authorizing the actor with
// the privileged role and checking the role exists. Assignment is a full
// replace of the single nullable role field.
func (c *AccessController) AssignRole(ctx context.Context, actor *User, targetID uuid.UUID, roleID string) (*User, error) {
	if err := c.Authorize(actor, c.cfg.PrivilegedRole); err != nil {
		return nil, err
	}

	if !c.registry.Exists(roleID) {
		return nil, withDetails(ErrUnknownRole, map[string]any{
			"role_id": roleID,
		})
	}

	var target *User
	err := c.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		target, err = c.repo.Users().FindByIDTx(ctx, tx, targetID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return withDetails(ErrUserNotFound, map[string]any{"id": targetID.String()})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load target user")
		}

		if target.IsDisabled() {
			return withDetails(ErrInvalidAccountState, map[string]any{
				"status": target.Status,
			})
		}

		if target.IsPending() && !c.cfg.AllowPendingRoleAssignment {
			return withDetails(ErrInvalidAccountState, map[string]any{
				"status": target.Status,
				"reason": "role assignment requires a verified account",
			})
		}

		target, err = c.repo.Users().SetRoleTx(ctx, tx, target.ID, roleID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set role")
		}

		return nil
	})

	if err != nil {
		return nil, asRichError(err, "role assignment failed")
	}

	c.logger.Info("role %s assigned to %s by %s", roleID, target.ID, actor.ID)

	return target, nil
}

func (c *AccessController) findByIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)

	if strings.Contains(identifier, "@") {
		return c.repo.Users().GetByEmail(ctx, identifier)
	}

	return c.repo.Users().GetByUsername(ctx, strings.ToLower(identifier))
}
