package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const (
	textCodeInvalidTransition = "INVALID_USER_STATE_TRANSITION"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid user state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

// UserStateMachine defines lifecycle status operations for users.
type UserStateMachine interface {
	Transition(ctx context.Context, tx bun.IDB, actor ActorRef, user *User, target UserStatus, opts ...TransitionOption) (*User, error)
	CurrentStatus(user *User) UserStatus
}

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

type transitionOptions struct {
	reason string
	force  bool
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.reason = reason
	}
}

// WithForceTransition bypasses validation rules (use sparingly).
func WithForceTransition() TransitionOption {
	return func(opts *transitionOptions) {
		opts.force = true
	}
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*userStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *userStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineLogger overrides the logger used for transition logging.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *userStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewUserStateMachine returns the default implementation backed by the
// provided repository. The graph encodes the account lifecycle: accounts are
// born pending, activate only via verification, and can be switched off and
// reinstated by an administrator. Deletion is record removal, not a status.
func NewUserStateMachine(users Users, opts ...StateMachineOption) UserStateMachine {
	sm := &userStateMachine{
		users: users,
		transitions: map[UserStatus]map[UserStatus]struct{}{
			UserStatusPending: {
				UserStatusActive:   {},
				UserStatusDisabled: {},
			},
			UserStatusActive: {
				UserStatusDisabled: {},
			},
			UserStatusDisabled: {
				UserStatusActive: {},
			},
		},
		now:    time.Now,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type userStateMachine struct {
	users       Users
	transitions map[UserStatus]map[UserStatus]struct{}
	now         func() time.Time
	logger      Logger
}

func (sm *userStateMachine) Transition(ctx context.Context, tx bun.IDB, actor ActorRef, user *User, target UserStatus, opts ...TransitionOption) (*User, error) {
	if user == nil {
		return nil, withDetails(ErrInvalidTransition, map[string]any{
			"target": target,
			"reason": "user is nil",
		})
	}

	user.EnsureStatus()
	from := user.Status
	if target == "" {
		return nil, withDetails(ErrInvalidTransition, map[string]any{
			"reason": "target status is empty",
		})
	}

	// same-state transitions are a no-op, not an error: redeeming a verify
	// token twice must return the current state unchanged
	if from == target {
		return user, nil
	}

	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	if !options.force && !sm.canTransition(from, target) {
		return nil, withDetails(ErrInvalidTransition, map[string]any{
			"from": from,
			"to":   target,
		})
	}

	updated, err := sm.users.UpdateStatusTx(ctx, tx, user.ID, target)
	if err != nil {
		return nil, err
	}

	if updated != nil && updated.Status != "" {
		user.Status = updated.Status
		user.UpdatedAt = updated.UpdatedAt
	} else {
		user.Status = target
	}

	sm.logger.Info("user %s status %s -> %s by %s: %s", user.ID, from, target, actor.ID, options.reason)

	return user, nil
}

func (sm *userStateMachine) CurrentStatus(user *User) UserStatus {
	if user == nil {
		return ""
	}
	user.EnsureStatus()
	return user.Status
}

func (sm *userStateMachine) canTransition(from, to UserStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}
