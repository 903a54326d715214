package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "users-console/internal/domain/user"
	pkgerrors "users-console/pkg/errors"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateBatch(ctx context.Context, users []domain.User) ([]domain.User, error) {
	args := m.Called(ctx, users)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, query string) ([]domain.User, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) Page(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page), args.Error(1)
}

func setupTestUsecase(t *testing.T) (Usecase, *MockRepository) {
	mockRepo := new(MockRepository)
	uc := New(mockRepo, zaptest.NewLogger(t))
	return uc, mockRepo
}

// ==================== CREATE USERS ====================

func TestCreateUsers_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "alice.brown@example.com").Return(nil, nil)
	mockRepo.On("GetByEmail", ctx, "john.doe@example.com").Return(nil, nil)
	mockRepo.On("CreateBatch", ctx, []domain.User{
		{Name: "Alice Brown", Email: "alice.brown@example.com"},
		{Name: "John Doe", Email: "john.doe@example.com"},
	}).Return([]domain.User{
		{ID: 1, Name: "Alice Brown", Email: "alice.brown@example.com"},
		{ID: 2, Name: "John Doe", Email: "john.doe@example.com"},
	}, nil)

	users, err := uc.CreateUsers(ctx, CreateUsersRequest{Users: []CreateUserRequest{
		{Name: " Alice Brown ", Email: "alice.brown@example.com"},
		{Name: "John Doe", Email: "john.doe@example.com "},
	}})

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, User{ID: 1, Name: "Alice Brown", Email: "alice.brown@example.com"}, users[0])
	assert.Equal(t, int64(2), users[1].ID)
	mockRepo.AssertExpectations(t)
}

func TestCreateUsers_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateUsersRequest
		wantMsg string
	}{
		{"empty batch", CreateUsersRequest{Users: []CreateUserRequest{}}, "Users must contain at least 1 item(s)"},
		{"missing name", CreateUsersRequest{Users: []CreateUserRequest{{Email: "a@x.com"}}}, "Users[0].Name is required"},
		{"blank name", CreateUsersRequest{Users: []CreateUserRequest{{Name: "   ", Email: "a@x.com"}}}, "Users[0].Name is required"},
		{"short name", CreateUsersRequest{Users: []CreateUserRequest{{Name: "A", Email: "a@x.com"}}}, "Users[0].Name must be at least 2 characters"},
		{"bad email", CreateUsersRequest{Users: []CreateUserRequest{{Name: "Ann", Email: "nope"}}}, "Users[0].Email must be a valid email"},
		{"second record", CreateUsersRequest{Users: []CreateUserRequest{{Name: "Ann", Email: "a@x.com"}, {Name: "Bo"}}}, "Users[1].Email is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, mockRepo := setupTestUsecase(t)

			users, err := uc.CreateUsers(context.Background(), tt.req)

			require.Error(t, err)
			assert.Nil(t, users)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			mockRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateUsers_DuplicateInBatch(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "ann@x.com").Return(nil, nil)

	_, err := uc.CreateUsers(ctx, CreateUsersRequest{Users: []CreateUserRequest{
		{Name: "Ann", Email: "ann@x.com"},
		{Name: "Ann Two", Email: "ANN@x.com"},
	}})

	var exists *pkgerrors.AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	mockRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestCreateUsers_EmailTaken(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "ann@x.com").Return(&domain.User{ID: 9, Name: "Ann", Email: "ann@x.com"}, nil)

	_, err := uc.CreateUsers(ctx, CreateUsersRequest{Users: []CreateUserRequest{{Name: "Ann", Email: "ann@x.com"}}})

	assert.Equal(t, 409, pkgerrors.StatusOf(err))
	mockRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestCreateUsers_RepositoryError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "ann@x.com").Return(nil, nil)
	mockRepo.On("CreateBatch", ctx, mock.Anything).Return(nil, errors.New("db down"))

	_, err := uc.CreateUsers(ctx, CreateUsersRequest{Users: []CreateUserRequest{{Name: "Ann", Email: "ann@x.com"}}})
	assert.EqualError(t, err, "db down")
}

// ==================== UPDATE USER ====================

func TestUpdateUser_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "ann@x.com").Return(&domain.User{ID: 1, Name: "Ann", Email: "ann@x.com"}, nil)
	mockRepo.On("Update", ctx, &domain.User{ID: 1, Name: "Ann B", Email: "ann@x.com"}).
		Return(&domain.User{ID: 1, Name: "Ann B", Email: "ann@x.com"}, nil)

	got, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: 1, Name: "Ann B", Email: "ann@x.com"})

	require.NoError(t, err)
	assert.Equal(t, &User{ID: 1, Name: "Ann B", Email: "ann@x.com"}, got)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_EmailOwnedByAnotherUser(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "bob@x.com").Return(&domain.User{ID: 2, Email: "bob@x.com"}, nil)

	_, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: 1, Name: "Ann", Email: "bob@x.com"})

	var exists *pkgerrors.AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateUser_NotFound(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "ann@x.com").Return(nil, nil)
	mockRepo.On("Update", ctx, mock.Anything).Return(nil, pkgerrors.NewNotFoundError("user", "user not found: id=7"))

	_, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: 7, Name: "Ann", Email: "ann@x.com"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUpdateUser_ValidationError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	_, err := uc.UpdateUser(context.Background(), UpdateUserRequest{ID: 1, Name: "Ann"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email is required")
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

// ==================== DELETE / GET ====================

func TestDeleteUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		mockRepo.On("Delete", mock.Anything, int64(1)).Return(nil)
		assert.NoError(t, uc.DeleteUser(context.Background(), DeleteUserRequest{ID: 1}))
	})

	t.Run("invalid id", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		err := uc.DeleteUser(context.Background(), DeleteUserRequest{ID: 0})
		assert.True(t, pkgerrors.IsValidation(err))
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		mockRepo.On("Delete", mock.Anything, int64(5)).Return(pkgerrors.NewNotFoundError("user", ""))
		assert.True(t, pkgerrors.IsNotFound(uc.DeleteUser(context.Background(), DeleteUserRequest{ID: 5})))
	})
}

func TestGetUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		mockRepo.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Name: "Ann", Email: "ann@x.com"}, nil)

		got, err := uc.GetUser(context.Background(), GetUserRequest{ID: 1})
		require.NoError(t, err)
		assert.Equal(t, "Ann", got.Name)
	})

	t.Run("invalid id", func(t *testing.T) {
		uc, _ := setupTestUsecase(t)
		_, err := uc.GetUser(context.Background(), GetUserRequest{ID: -1})
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

// ==================== LIST ====================

func TestListUsers(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		mockRepo.On("List", mock.Anything, "").Return([]domain.User{{ID: 1}, {ID: 2}}, nil)

		users, err := uc.ListUsers(context.Background(), ListUsersRequest{})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("empty collection is not nil", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		mockRepo.On("List", mock.Anything, "").Return([]domain.User{}, nil)

		users, err := uc.ListUsers(context.Background(), ListUsersRequest{})
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	})

	t.Run("rejects injection", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		_, err := uc.ListUsers(context.Background(), ListUsersRequest{Query: "x UNION SELECT 1"})
		assert.True(t, pkgerrors.IsValidation(err))
		mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestListPage(t *testing.T) {
	t.Run("defaults and capping", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		mockRepo.On("Page", mock.Anything, domain.PageRequest{Page: 0, Size: DefaultPageSize, Sort: domain.SortByID}).
			Return(domain.NewPage([]domain.User{{ID: 1}}, 1, domain.PageRequest{Page: 0, Size: DefaultPageSize}), nil)
		mockRepo.On("Page", mock.Anything, domain.PageRequest{Page: 2, Size: MaxPageSize, Sort: domain.SortByName, Desc: true}).
			Return(domain.NewPage(nil, 250, domain.PageRequest{Page: 2, Size: MaxPageSize}), nil)

		resp, err := uc.ListPage(context.Background(), ListPageRequest{})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.TotalPages)
		assert.True(t, resp.First)
		assert.True(t, resp.Last)

		resp, err = uc.ListPage(context.Background(), ListPageRequest{Page: 2, Size: 500, Sort: "name,desc"})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.TotalPages)
		assert.Equal(t, int64(250), resp.Total)
		assert.True(t, resp.Last)
	})

	t.Run("negative page", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		_, err := uc.ListPage(context.Background(), ListPageRequest{Page: -1, Size: 10})
		assert.True(t, pkgerrors.IsValidation(err))
		mockRepo.AssertNotCalled(t, "Page", mock.Anything, mock.Anything)
	})

	t.Run("bad sort", func(t *testing.T) {
		uc, _ := setupTestUsecase(t)
		_, err := uc.ListPage(context.Background(), ListPageRequest{Size: 10, Sort: "password"})
		assert.True(t, pkgerrors.IsValidation(err))
	})
}
