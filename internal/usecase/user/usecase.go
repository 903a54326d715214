package user

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "users-console/internal/domain/user"
	pkgerrors "users-console/pkg/errors"
	"users-console/pkg/security"
)

// Repository defines the interface for user data access operations.
// Implementations return *errors.NotFoundError for unknown ids.
type Repository interface {
	CreateBatch(ctx context.Context, users []domain.User) ([]domain.User, error) // Insert all users in one transaction
	GetByID(ctx context.Context, id int64) (*domain.User, error)                 // Retrieve user by ID
	GetByEmail(ctx context.Context, email string) (*domain.User, error)          // Retrieve user by email, nil when absent
	Update(ctx context.Context, u *domain.User) (*domain.User, error)            // Replace name and email
	Delete(ctx context.Context, id int64) error                                  // Delete user by ID
	List(ctx context.Context, query string) ([]domain.User, error)               // List users, optionally filtered
	Page(ctx context.Context, req domain.PageRequest) (*domain.Page, error)      // One page of users
}

// Compile-time interface check.
var _ Usecase = (*usecase)(nil)

// usecase implements the business logic for user management operations.
type usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) Usecase {
	return &usecase{repo: r, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a ValidationError.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.NewValidationError("", err.Error())
	}

	var messages []string
	for _, e := range validationErrors {
		field := fieldPath(e.Namespace())
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", field))
		case "min":
			if e.Kind() == reflect.Slice {
				messages = append(messages, fmt.Sprintf("%s must contain at least %s item(s)", field, e.Param()))
			} else {
				messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, e.Param()))
			}
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return pkgerrors.NewValidationError("", strings.Join(messages, ", "))
}

// fieldPath drops the top-level struct name: "CreateUsersRequest.Users[0].Name" -> "Users[0].Name".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func normalize(name, email string) (string, string) {
	return strings.TrimSpace(name), strings.TrimSpace(email)
}

// CreateUsers validates the batch, checks email uniqueness and stores every record.
// Results keep the order of the request.
func (uc *usecase) CreateUsers(ctx context.Context, in CreateUsersRequest) ([]User, error) {
	uc.log.Info("creating users", zap.Int("count", len(in.Users)))

	for i := range in.Users {
		in.Users[i].Name, in.Users[i].Email = normalize(in.Users[i].Name, in.Users[i].Email)
	}

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	seen := make(map[string]struct{}, len(in.Users))
	batch := make([]domain.User, len(in.Users))
	for i, u := range in.Users {
		key := strings.ToLower(u.Email)
		if _, dup := seen[key]; dup {
			uc.log.Warn("duplicate email in batch", zap.String("email", u.Email))
			return nil, pkgerrors.NewAlreadyExistsError("user", fmt.Sprintf("email %s appears more than once", u.Email))
		}
		seen[key] = struct{}{}

		existing, err := uc.repo.GetByEmail(ctx, u.Email)
		if err != nil {
			uc.log.Error("failed to check existing email", zap.String("email", u.Email), zap.Error(err))
			return nil, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
		}
		if existing != nil {
			uc.log.Warn("email already exists", zap.String("email", u.Email))
			return nil, pkgerrors.NewAlreadyExistsError("user", "email already exists")
		}

		batch[i] = domain.User{Name: u.Name, Email: u.Email}
	}

	created, err := uc.repo.CreateBatch(ctx, batch)
	if err != nil {
		uc.log.Error("failed to create users", zap.Error(err))
		return nil, err
	}

	return toDTOs(created), nil
}

// UpdateUser replaces name and email of an existing user and returns the stored record.
func (uc *usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	in.Name, in.Email = normalize(in.Name, in.Email)
	uc.log.Info("updating user", zap.Int64("id", in.ID), zap.String("name", in.Name), zap.String("email", in.Email))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	existing, err := uc.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		uc.log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil && existing.ID != in.ID {
		uc.log.Warn("email already exists", zap.String("email", in.Email), zap.Int64("existing_id", existing.ID))
		return nil, pkgerrors.NewAlreadyExistsError("user", "email already exists")
	}

	updated, err := uc.repo.Update(ctx, &domain.User{ID: in.ID, Name: in.Name, Email: in.Email})
	if err != nil {
		uc.log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	dto := toDTO(*updated)
	return &dto, nil
}

// DeleteUser deletes a user by ID.
func (uc *usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) error {
	uc.log.Info("deleting user", zap.Int64("id", in.ID))

	if in.ID <= 0 {
		uc.log.Warn("delete user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return pkgerrors.NewValidationError("id", "must be a positive integer")
	}

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		uc.log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return err
	}
	return nil
}

// GetUser retrieves a user by ID.
func (uc *usecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	if in.ID <= 0 {
		uc.log.Warn("get user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, pkgerrors.NewValidationError("id", "must be a positive integer")
	}

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		uc.log.Warn("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	dto := toDTO(*u)
	return &dto, nil
}

// ListUsers returns every user ordered by id, optionally filtered by name or email.
func (uc *usecase) ListUsers(ctx context.Context, in ListUsersRequest) ([]User, error) {
	query, err := security.NormalizeSearchTerm(in.Query)
	if err != nil {
		uc.log.Warn("invalid search query", zap.String("query", in.Query), zap.Error(err))
		return nil, pkgerrors.NewValidationError("q", err.Error())
	}

	uc.log.Debug("listing users", zap.String("query", query))

	users, err := uc.repo.List(ctx, query)
	if err != nil {
		uc.log.Error("failed to list users", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return toDTOs(users), nil
}

// ListPage returns one zero-based page of users.
func (uc *usecase) ListPage(ctx context.Context, in ListPageRequest) (*PageResponse, error) {
	if in.Size == 0 {
		in.Size = DefaultPageSize
	}
	if in.Size > MaxPageSize {
		in.Size = MaxPageSize
	}

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	req := domain.PageRequest{Page: in.Page, Size: in.Size}
	if err := req.ParseSort(in.Sort); err != nil {
		return nil, pkgerrors.NewValidationError("sort", err.Error())
	}

	uc.log.Debug("listing users page", zap.Int("page", req.Page), zap.Int("size", req.Size), zap.String("sort", req.Sort))

	page, err := uc.repo.Page(ctx, req)
	if err != nil {
		uc.log.Error("failed to list users page", zap.Int("page", req.Page), zap.Int("size", req.Size), zap.Error(err))
		return nil, err
	}

	return &PageResponse{
		Users:      toDTOs(page.Content),
		Total:      page.Total,
		Page:       page.Number,
		Size:       page.Size,
		TotalPages: page.TotalPages,
		First:      page.First(),
		Last:       page.Last(),
	}, nil
}

func toDTO(u domain.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

func toDTOs(in []domain.User) []User {
	out := make([]User, len(in))
	for i, u := range in {
		out[i] = toDTO(u)
	}
	return out
}
