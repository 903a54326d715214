package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"users-console/internal/domain/user"
	pkgerrors "users-console/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// every pooled connection would get its own in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	return db
}

func seed(t *testing.T, repo *UserRepoPG, users ...user.User) []user.User {
	created, err := repo.CreateBatch(context.Background(), users)
	require.NoError(t, err)
	return created
}

func TestUserRepoPG_CreateBatch(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))

	created := seed(t, repo,
		user.User{Name: "Ann", Email: "ann@x.com"},
		user.User{Name: "Bob", Email: "bob@x.com"},
	)

	require.Len(t, created, 2)
	assert.Equal(t, "Ann", created[0].Name)
	assert.Equal(t, "Bob", created[1].Name)
	assert.NotZero(t, created[0].ID)
	assert.Greater(t, created[1].ID, created[0].ID)

	t.Run("empty batch", func(t *testing.T) {
		out, err := repo.CreateBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("duplicate email rolls back the whole batch", func(t *testing.T) {
		_, err := repo.CreateBatch(context.Background(), []user.User{
			{Name: "Cid", Email: "cid@x.com"},
			{Name: "Ann Again", Email: "ann@x.com"},
		})
		require.Error(t, err)

		all, err := repo.List(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestUserRepoPG_GetByID(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	created := seed(t, repo, user.User{Name: "Ann", Email: "ann@x.com"})

	got, err := repo.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, created[0].ID, got.ID)
	assert.Equal(t, created[0].Name, got.Name)
	assert.Equal(t, created[0].Email, got.Email)
	assert.WithinDuration(t, created[0].CreatedAt, got.CreatedAt, time.Millisecond)

	_, err = repo.GetByID(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUserRepoPG_GetByEmail(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	seed(t, repo, user.User{Name: "Ann", Email: "ann@x.com"})

	got, err := repo.GetByEmail(context.Background(), "ANN@X.COM")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ann", got.Name)

	got, err = repo.GetByEmail(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepoPG_Update(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	created := seed(t, repo, user.User{Name: "Ann", Email: "ann@x.com"})

	updated, err := repo.Update(context.Background(), &user.User{ID: created[0].ID, Name: "Ann B", Email: "annb@x.com"})
	require.NoError(t, err)
	assert.Equal(t, created[0].ID, updated.ID)
	assert.Equal(t, "Ann B", updated.Name)
	assert.Equal(t, "annb@x.com", updated.Email)

	got, err := repo.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann B", got.Name)

	_, err = repo.Update(context.Background(), &user.User{ID: 42, Name: "X", Email: "x@x.com"})
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = repo.Update(context.Background(), nil)
	assert.Error(t, err)
}

func TestUserRepoPG_Timestamps(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	before := time.Now().Add(-time.Second)
	created := seed(t, repo, user.User{Name: "Ann", Email: "ann@x.com"})[0]

	assert.True(t, created.CreatedAt.After(before))
	assert.False(t, created.UpdatedAt.Before(created.CreatedAt))

	time.Sleep(20 * time.Millisecond)
	updated, err := repo.Update(context.Background(), &user.User{ID: created.ID, Name: "Ann B", Email: "ann@x.com"})
	require.NoError(t, err)
	assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Millisecond)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond)
	assert.WithinDuration(t, updated.UpdatedAt, got.UpdatedAt, time.Millisecond)
}

func TestUserRepoPG_Delete(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	created := seed(t, repo, user.User{Name: "Ann", Email: "ann@x.com"})

	require.NoError(t, repo.Delete(context.Background(), created[0].ID))

	err := repo.Delete(context.Background(), created[0].ID)
	assert.True(t, pkgerrors.IsNotFound(err))

	assert.Error(t, repo.Delete(context.Background(), 0))
}

func TestUserRepoPG_List_OrderedByID(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	seed(t, repo,
		user.User{Name: "Zed", Email: "zed@x.com"},
		user.User{Name: "Amy", Email: "amy@x.com"},
	)

	all, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Zed", all[0].Name)
	assert.Equal(t, "Amy", all[1].Name)
}

func TestUserRepoPG_List_CaseInsensitiveSearch(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	seed(t, repo,
		user.User{Name: "John Doe", Email: "john@example.com"},
		user.User{Name: "Jane Smith", Email: "jane@example.com"},
		user.User{Name: "Admin User", Email: "admin@corp.io"},
	)

	tests := []struct {
		query string
		want  int
	}{
		{"john", 1},
		{"JOHN", 1},
		{"example", 2},
		{"user", 1},
		{"nobody", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := repo.List(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestUserRepoPG_List_WildcardEscaping(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	seed(t, repo,
		user.User{Name: "100% Real", Email: "real@x.com"},
		user.User{Name: "Plain", Email: "plain_user@x.com"},
		user.User{Name: "Other", Email: "plainXuser@x.com"},
	)

	got, err := repo.List(context.Background(), "%")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100% Real", got[0].Name)

	got, err = repo.List(context.Background(), "plain_")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "plain_user@x.com", got[0].Email)
}

func TestUserRepoPG_Page(t *testing.T) {
	repo := NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	seed(t, repo,
		user.User{Name: "Cara", Email: "cara@x.com"},
		user.User{Name: "Abe", Email: "abe@x.com"},
		user.User{Name: "Bea", Email: "bea@x.com"},
		user.User{Name: "Dan", Email: "dan@x.com"},
		user.User{Name: "Eve", Email: "eve@x.com"},
	)

	t.Run("by id", func(t *testing.T) {
		page, err := repo.Page(context.Background(), user.PageRequest{Page: 1, Size: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 5, page.Total)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 1, page.Number)
		require.Len(t, page.Content, 2)
		assert.Equal(t, "Bea", page.Content[0].Name)
		assert.Equal(t, "Dan", page.Content[1].Name)
		assert.False(t, page.First())
		assert.False(t, page.Last())
	})

	t.Run("by name descending", func(t *testing.T) {
		page, err := repo.Page(context.Background(), user.PageRequest{Page: 0, Size: 3, Sort: user.SortByName, Desc: true})
		require.NoError(t, err)
		require.Len(t, page.Content, 3)
		assert.Equal(t, []string{"Eve", "Dan", "Cara"}, []string{page.Content[0].Name, page.Content[1].Name, page.Content[2].Name})
	})

	t.Run("past the end", func(t *testing.T) {
		page, err := repo.Page(context.Background(), user.PageRequest{Page: 9, Size: 2})
		require.NoError(t, err)
		assert.Empty(t, page.Content)
		assert.EqualValues(t, 5, page.Total)
	})
}
