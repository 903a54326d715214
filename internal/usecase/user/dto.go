package user

import "time"

// Paging limits for ListPage.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CreateUserRequest is one record of a batch create.
type CreateUserRequest struct {
	Name  string `validate:"required,min=2,max=100"`
	Email string `validate:"required,email"`
}

// CreateUsersRequest creates all records or none.
type CreateUsersRequest struct {
	Users []CreateUserRequest `validate:"required,min=1,dive"`
}

// UpdateUserRequest replaces the name and email of an existing user.
type UpdateUserRequest struct {
	ID    int64  `validate:"required,gt=0"`
	Name  string `validate:"required,min=2,max=100"`
	Email string `validate:"required,email"`
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// ListUsersRequest lists every user, optionally filtered by a name/email substring.
type ListUsersRequest struct {
	Query string
}

// ListPageRequest selects a zero-based page.
// Sort takes the form "field[,asc|desc]".
type ListPageRequest struct {
	Page int `validate:"gte=0"`
	Size int `validate:"gt=0,lte=100"`
	Sort string
}

// PageResponse is one page of users with totals.
type PageResponse struct {
	Users      []User
	Total      int64
	Page       int
	Size       int
	TotalPages int
	First      bool
	Last       bool
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
