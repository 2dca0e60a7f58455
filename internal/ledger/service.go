// Package ledger is the data-entry boundary of the household ledger.
//
// It resolves defaults and validates new entries, scopes reads and writes to
// the session user, computes the analytics views and announces every mutation
// on the change publisher.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"haushaltskasse/internal/amqp"
	"haushaltskasse/internal/analytics"
	"haushaltskasse/internal/core"
	"haushaltskasse/internal/session"
	"haushaltskasse/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// ChangePublisher announces ledger mutations.
type ChangePublisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

type Service struct {
	store      storage.Store
	publisher  ChangePublisher
	now        func() time.Time
	newID      func() string
	projection analytics.IncomeProjection
}

type Option func(*Service)

// WithPublisher sets where change events go. Without one, events are dropped.
func WithPublisher(p ChangePublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithIncomeProjection sets the default projection of the monthly breakdown.
func WithIncomeProjection(p analytics.IncomeProjection) Option {
	return func(s *Service) { s.projection = p }
}

func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		now:        time.Now,
		newID:      uuid.NewString,
		projection: analytics.ProjectAllMonths,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying record store.
func (s *Service) Store() storage.Store {
	return s.store
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// publish is best effort: a lost event never fails the mutation.
func (s *Service) publish(ctx context.Context, action, kind, userID, recordID string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No change publisher configured, skipping event", "action", action, "kind", kind)
		return
	}
	msg := amqp.NewLedgerChangedMessage(action, kind, userID, recordID)
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"action", action,
			"kind", kind,
			"record_id", recordID,
			"error", err)
	}
}

// Register creates a user. Usernames are unique ignoring case; an empty color
// gets the first palette color.
func (s *Service) Register(ctx context.Context, username, color string) (core.User, error) {
	username = strings.TrimSpace(username)
	color = strings.TrimSpace(color)
	if color == "" {
		color = core.UserColors[0]
	}
	u := core.User{
		ID:        s.newID(),
		Username:  username,
		Color:     color,
		CreatedAt: s.now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return core.User{}, invalid(err)
	}

	if _, err := s.findUser(ctx, username); err == nil {
		return core.User{}, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	} else if !errors.Is(err, ErrUserNotFound) {
		return core.User{}, err
	}

	if err := s.store.SaveUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("save user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID, "username", u.Username)
	s.publish(ctx, amqp.ActionSaved, amqp.KindUser, u.ID, u.ID)
	return u, nil
}

// Login looks a user up by name, ignoring case. There is no credential check.
func (s *Service) Login(ctx context.Context, username string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, invalid(core.ErrEmptyUsername)
	}
	u, err := s.findUser(ctx, username)
	if err != nil {
		return core.User{}, err
	}
	slog.InfoContext(ctx, "User logged in", "user_id", u.ID)
	return u, nil
}

func (s *Service) findUser(ctx context.Context, username string) (core.User, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return core.User{}, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
}

// UserByID resolves a session user id.
func (s *Service) UserByID(ctx context.Context, id string) (core.User, error) {
	u, err := s.store.UserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return u, err
}

func (s *Service) Users(ctx context.Context) ([]core.User, error) {
	return s.store.Users(ctx)
}

// CompleteSetup marks the session user's onboarding as done.
func (s *Service) CompleteSetup(ctx context.Context) (core.User, error) {
	u, err := session.CurrentUser(ctx)
	if err != nil {
		return core.User{}, err
	}
	u, err = s.UserByID(ctx, u.ID)
	if err != nil {
		return core.User{}, err
	}
	u.SetupComplete = true
	if err := s.store.SaveUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("save user: %w", err)
	}
	s.publish(ctx, amqp.ActionSaved, amqp.KindUser, u.ID, u.ID)
	return u, nil
}

// ClearAll wipes every collection.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear all: %w", err)
	}
	slog.WarnContext(ctx, "All ledger data cleared")
	s.publish(ctx, amqp.ActionCleared, amqp.KindAll, "", "")
	return nil
}

// NotifyImported announces that the store content was replaced wholesale.
func (s *Service) NotifyImported(ctx context.Context) {
	s.publish(ctx, amqp.ActionImported, amqp.KindAll, "", "")
}
