package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"userdesk/internal/domain/user"
	apperrors "userdesk/pkg/errors"
	"userdesk/pkg/logger"
)

// UserRepo implements the user Repository with GORM. It works on both the
// postgres and the sqlite dialects.
type UserRepo struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(db *gorm.DB, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	LastName  string `gorm:"column:nom;size:100;not null"`
	FirstName string `gorm:"column:prenom;size:100;not null"`
	Age       int    `gorm:"column:age;not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Migrate creates or updates the users table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

func notFound(id int64) error {
	return apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
}

func toDomain(m UserSchema) user.User {
	return user.User{
		ID:        m.ID,
		LastName:  m.LastName,
		FirstName: m.FirstName,
		Age:       m.Age,
	}
}

// Create inserts a new user into the database.
func (r *UserRepo) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := UserSchema{
		LastName:  u.LastName,
		FirstName: u.FirstName,
		Age:       u.Age,
	}

	log := logger.WithContext(ctx, r.log)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		log.Error("failed to create user in db", zap.Error(err))
		return 0, apperrors.NewInternalError("failed to create user", err)
	}

	log.Info("user created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// Update overwrites an existing user. It fails with a NotFoundError when no
// row has the id.
func (r *UserRepo) Update(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	log := logger.WithContext(ctx, r.log)
	result := r.db.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"nom":    u.LastName,
			"prenom": u.FirstName,
			"age":    u.Age,
		})
	if result.Error != nil {
		log.Error("failed to update user in db", zap.Error(result.Error), zap.Int64("id", u.ID))
		return 0, apperrors.NewInternalError("failed to update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, notFound(u.ID)
	}

	log.Info("user updated in db", zap.Int64("id", u.ID))
	return u.ID, nil
}

// Delete removes a user by ID. It fails with a NotFoundError when no row has the id.
func (r *UserRepo) Delete(ctx context.Context, id int64) (int64, error) {
	if id <= 0 {
		return 0, apperrors.NewValidationError("ID", "invalid user id")
	}

	log := logger.WithContext(ctx, r.log)
	result := r.db.WithContext(ctx).Delete(&UserSchema{}, id)
	if result.Error != nil {
		log.Error("failed to delete user in db", zap.Error(result.Error), zap.Int64("id", id))
		return 0, apperrors.NewInternalError("failed to delete user", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, notFound(id)
	}

	log.Info("user deleted in db", zap.Int64("id", id))
	return id, nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		logger.WithContext(ctx, r.log).Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, apperrors.NewInternalError("failed to get user", err)
	}

	u := toDomain(model)
	return &u, nil
}

// List retrieves every user ordered by ID.
func (r *UserRepo) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list users", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = toDomain(model)
	}

	return users, nil
}
