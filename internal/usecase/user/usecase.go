package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "userdesk/internal/domain/user"
	apperrors "userdesk/pkg/errors"
	"userdesk/pkg/logger"
	"userdesk/pkg/security"
)

// Repository defines the interface for user data access operations.
// Update and Delete return a *errors.NotFoundError when no row has the id.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)   // Create a new user
	GetByID(ctx context.Context, id int64) (*domain.User, error) // Retrieve user by ID
	Update(ctx context.Context, u *domain.User) (int64, error)   // Update existing user
	Delete(ctx context.Context, id int64) (int64, error)         // Delete user by ID
	List(ctx context.Context) ([]domain.User, error)             // List all users ordered by ID
}

// Usecase implements the business logic behind the backend endpoints.
type Usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
}

var _ UserUsecase = (*Usecase)(nil)

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a ValidationError.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var fields, messages []string
	for _, e := range validationErrors {
		fields = append(fields, e.Field())
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return apperrors.NewValidationError(strings.Join(fields, ","), strings.Join(messages, ", "))
}

// cleanNames trims and checks both names.
func cleanNames(lastName, firstName string) (string, string, error) {
	last, err := security.ValidateName(lastName)
	if err != nil {
		return "", "", apperrors.NewValidationError("LastName", err.Error())
	}
	first, err := security.ValidateName(firstName)
	if err != nil {
		return "", "", apperrors.NewValidationError("FirstName", err.Error())
	}
	return last, first, nil
}

// CreateUser stores a new user and returns its server-assigned id.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("last_name", in.LastName), zap.String("first_name", in.FirstName), zap.Int("age", in.Age))

	last, first, err := cleanNames(in.LastName, in.FirstName)
	if err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, err
	}
	in.LastName, in.FirstName = last, first

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	id, err := uc.repo.Create(ctx, &domain.User{
		LastName:  in.LastName,
		FirstName: in.FirstName,
		Age:       in.Age,
	})
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, err
	}
	return &CreateUserResponse{ID: id}, nil
}

// UpdateUser overwrites every field of an existing user.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.Int64("id", in.ID), zap.String("last_name", in.LastName), zap.String("first_name", in.FirstName), zap.Int("age", in.Age))

	last, first, err := cleanNames(in.LastName, in.FirstName)
	if err != nil {
		log.Warn("validate failed", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}
	in.LastName, in.FirstName = last, first

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Int64("id", in.ID), zap.Error(err))
		return nil, formatValidationError(err)
	}

	id, err := uc.repo.Update(ctx, &domain.User{
		ID:        in.ID,
		LastName:  in.LastName,
		FirstName: in.FirstName,
		Age:       in.Age,
	})
	if err != nil {
		log.Warn("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &UpdateUserResponse{ID: id}, nil
}

// DeleteUser deletes a user after validating the user ID.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.Int64("id", in.ID))

	if in.ID <= 0 {
		log.Warn("delete user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, apperrors.NewValidationError("ID", "invalid user id")
	}

	id, err := uc.repo.Delete(ctx, in.ID)
	if err != nil {
		log.Warn("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return &DeleteUserResponse{ID: id}, nil
}

// GetUser retrieves a user by ID.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	if in.ID <= 0 {
		log.Warn("get user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, apperrors.NewValidationError("ID", "invalid user id")
	}

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		log.Warn("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return toDTO(*u), nil
}

// ListUsers returns every user ordered by id.
func (uc *Usecase) ListUsers(ctx context.Context) ([]User, error) {
	log := logger.WithContext(ctx, uc.log)

	domainUsers, err := uc.repo.List(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = *toDTO(du)
	}

	log.Debug("listed users", zap.Int("count", len(users)))
	return users, nil
}

func toDTO(u domain.User) *User {
	return &User{
		ID:        u.ID,
		LastName:  u.LastName,
		FirstName: u.FirstName,
		Age:       u.Age,
	}
}
