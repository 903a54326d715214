package user

import "context"

// Usecase defines the interface for user business logic operations.
type Usecase interface {
	CreateUsers(ctx context.Context, in CreateUsersRequest) ([]User, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) error
	GetUser(ctx context.Context, in GetUserRequest) (*User, error)
	ListUsers(ctx context.Context, in ListUsersRequest) ([]User, error)
	ListPage(ctx context.Context, in ListPageRequest) (*PageResponse, error)
}
