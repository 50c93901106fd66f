// Package user implements the user service. Service layer: the only layer
// that validates input, logs, applies business rules, and constructs domain
// objects. It reaches storage and external capabilities purely through the
// dependencies it is constructed with.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"composekit/internal/library/clock"
	"composekit/internal/library/idgen"
	"composekit/internal/library/notifier"
	"composekit/internal/repository"
	apperrors "composekit/pkg/errors"
)

// User is the domain representation of a user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateInput carries the fields required to create a user.
type CreateInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=1,max=100"`
}

// Service implements user business operations.
type Service struct {
	repo     repository.UserRepository
	ids      idgen.Generator
	clock    clock.Clock
	notifier notifier.Notifier
	logger   *zap.Logger
	validate *validator.Validate
}

// NewService creates the user service.
func NewService(
	repo repository.UserRepository,
	ids idgen.Generator,
	clk clock.Clock,
	n notifier.Notifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:     repo,
		ids:      ids,
		clock:    clk,
		notifier: n,
		logger:   logger,
		validate: validator.New(),
	}
}

// Create validates the input, enforces email uniqueness, and persists a new
// user. Validation happens before any repository access.
func (s *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0]
			return nil, apperrors.NewValidation(
				fmt.Sprintf("field %q failed on the %q rule", field.Field(), field.Tag()),
			)
		}
		return nil, apperrors.NewValidation(err.Error())
	}

	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict(fmt.Sprintf("user with email %q already exists", input.Email))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Wrap(err, "failed to check email uniqueness")
	}

	record := repository.UserRecord{
		ID:        s.ids.NewID(),
		Email:     input.Email,
		Name:      input.Name,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, apperrors.Wrap(err, "failed to insert user")
	}

	user := recordToUser(record)
	s.logger.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
	)

	// Notification delivery is best effort; a down webhook must not fail the
	// create.
	if err := s.notifier.Notify(ctx, "user.created", user); err != nil {
		s.logger.Warn("failed to deliver user.created notification",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	return user, nil
}

// Get retrieves a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, apperrors.NewValidation("user id must not be empty")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(fmt.Sprintf("user %q not found", id))
		}
		return nil, apperrors.Wrap(err, "failed to load user")
	}
	return recordToUser(record), nil
}

// Delete removes a user by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidation("user id must not be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound(fmt.Sprintf("user %q not found", id))
		}
		return apperrors.Wrap(err, "failed to delete user")
	}

	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// List returns all users ordered by creation time.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}

	users := make([]*User, 0, len(records))
	for _, record := range records {
		users = append(users, recordToUser(record))
	}
	return users, nil
}

func recordToUser(record repository.UserRecord) *User {
	return &User{
		ID:        record.ID,
		Email:     record.Email,
		Name:      record.Name,
		CreatedAt: record.CreatedAt,
	}
}
