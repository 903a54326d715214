package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"users-console/internal/domain/user"
	pkgerrors "users-console/pkg/errors"
	"users-console/pkg/security"
)

// UserRepoPG implements the user Repository using GORM.
// It runs on PostgreSQL in production and on SQLite in tests and local setups.
type UserRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:100;not null"`
	Email     string    `gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime;<-:create"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// AutoMigrate creates or updates the users table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{})
}

func toDomain(m UserSchema) user.User {
	return user.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func toDomainList(models []UserSchema) []user.User {
	users := make([]user.User, len(models))
	for i, m := range models {
		users[i] = toDomain(m)
	}
	return users
}

func notFound(id int64) error {
	return pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
}

// translateWriteError maps unique violations to AlreadyExistsError.
func translateWriteError(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.NewAlreadyExistsError("user", "email already exists")
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// CreateBatch inserts all users in a single transaction and returns them with their ids,
// in the order given.
func (r *UserRepoPG) CreateBatch(ctx context.Context, users []user.User) ([]user.User, error) {
	if len(users) == 0 {
		return []user.User{}, nil
	}

	models := make([]UserSchema, len(users))
	for i, u := range users {
		models[i] = UserSchema{Name: u.Name, Email: u.Email}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
	if err != nil {
		r.log.Error("failed to create users in db", zap.Error(err), zap.Int("count", len(users)))
		return nil, translateWriteError("create users", err)
	}

	r.log.Info("users created in db", zap.Int("count", len(models)))
	return toDomainList(models), nil
}

// Update replaces name and email of an existing user.
func (r *UserRepoPG) Update(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	var model UserSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&model, u.ID).Error; err != nil {
			return err
		}
		model.Name = u.Name
		model.Email = u.Email
		return tx.Save(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("user not found for update", zap.Int64("id", u.ID))
			return nil, notFound(u.ID)
		}
		r.log.Error("failed to update user in db", zap.Error(err), zap.Int64("id", u.ID))
		return nil, translateWriteError("update user", err)
	}

	r.log.Info("user updated in db", zap.Int64("id", model.ID))
	updated := toDomain(model)
	return &updated, nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid user id")
	}

	res := r.db.WithContext(ctx).Delete(&UserSchema{}, id)
	if res.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		r.log.Warn("user not found for delete", zap.Int64("id", id))
		return notFound(id)
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("user not found", zap.Int64("id", id))
			return nil, notFound(id)
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := toDomain(model)
	return &u, nil
}

// GetByEmail retrieves a user by email address (case-insensitive). It returns nil, nil when absent.
func (r *UserRepoPG) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	u := toDomain(model)
	return &u, nil
}

// List returns all users ordered by id. A non-empty query filters on a
// case-insensitive substring of name or email.
func (r *UserRepoPG) List(ctx context.Context, query string) ([]user.User, error) {
	var models []UserSchema
	if err := r.filtered(ctx, query).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err), zap.String("query", query))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return toDomainList(models), nil
}

// Page returns one zero-based page of users with the total count.
func (r *UserRepoPG) Page(ctx context.Context, req user.PageRequest) (*user.Page, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Count(&total).Error; err != nil {
		r.log.Error("failed to count users", zap.Error(err))
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	sort := req.Sort
	if sort == "" {
		sort = user.SortByID
	}

	var models []UserSchema
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: sort}, Desc: req.Desc}).
		Order("id").
		Offset(req.Offset()).
		Limit(req.Size).
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to page users", zap.Error(err), zap.Int("page", req.Page), zap.Int("size", req.Size))
		return nil, fmt.Errorf("failed to page users: %w", err)
	}

	return user.NewPage(toDomainList(models), total, req), nil
}

func (r *UserRepoPG) filtered(ctx context.Context, query string) *gorm.DB {
	tx := r.db.WithContext(ctx)
	if query == "" {
		return tx
	}
	pattern := "%" + security.EscapeLike(query) + "%"
	return tx.Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\' OR LOWER(email) LIKE LOWER(?) ESCAPE '\'`, pattern, pattern)
}
