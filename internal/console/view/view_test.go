package view

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"users-console/internal/client/users"
	"users-console/internal/console"
)

func render(t *testing.T, st console.State) string {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, st))
	return buf.String()
}

func TestRender_CreateMode(t *testing.T) {
	html := render(t, console.State{
		Rows:   []users.User{{ID: 1, Name: "Ann", Email: "ann@x.com"}},
		Loaded: true,
		Notices: []console.Notice{
			{Level: console.LevelInfo, Text: "User created successfully!"},
		},
	})

	assert.Contains(t, html, "<td>1</td>")
	assert.Contains(t, html, "<td>Ann</td>")
	assert.Contains(t, html, "<td>ann@x.com</td>")
	assert.Contains(t, html, `action="/users/1/edit"`)
	assert.Contains(t, html, `href="/users/1/delete"`)
	assert.Contains(t, html, `class="notice info"`)
	assert.Contains(t, html, "User created successfully!")
	assert.Contains(t, html, ">Create</button>")
	assert.NotContains(t, html, "Cancel edit")
	assert.NotContains(t, html, "onclick")
}

func TestRender_EditMode(t *testing.T) {
	html := render(t, console.State{
		Form:   console.FormState{Name: "Ann", Email: "ann@x.com", Mode: console.ModeEdit, TargetID: 1},
		Loaded: true,
	})

	assert.Contains(t, html, `name="name" value="Ann"`)
	assert.Contains(t, html, `name="email" value="ann@x.com"`)
	assert.Contains(t, html, ">Update</button>")
	assert.Contains(t, html, "Cancel edit")
	assert.Contains(t, html, "Editing user 1")
	assert.Contains(t, html, "No users")
}

func TestRender_EscapesUserData(t *testing.T) {
	html := render(t, console.State{
		Rows:    []users.User{{ID: 2, Name: "<script>alert(1)</script>", Email: "x@x.com"}},
		Notices: []console.Notice{{Level: console.LevelError, Text: `Error creating user: <b>bad</b>`}},
	})

	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<b>bad</b>")
}

func TestRender_NotLoaded(t *testing.T) {
	html := render(t, console.State{})
	assert.Contains(t, html, "Users not loaded")
}

func TestRender_Pager(t *testing.T) {
	html := render(t, console.State{
		Rows:   []users.User{{ID: 11, Name: "K", Email: "k@x.com"}},
		Page:   &console.PageInfo{Number: 1, Size: 10, TotalPages: 3, TotalElements: 25},
		Loaded: true,
	})

	assert.Contains(t, html, `href="/page?page=0&amp;size=10">Previous`)
	assert.Contains(t, html, `href="/page?page=2&amp;size=10">Next`)
	assert.Contains(t, html, "Page 1 of 3 (25 users)")
}

func TestRenderConfirmDelete(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderConfirmDelete(&buf, users.User{ID: 5, Name: "Eve", Email: "eve@x.com"}))

	html := buf.String()
	assert.Contains(t, html, "Are you sure you want to delete this user?")
	assert.Contains(t, html, `action="/users/5/delete"`)
	assert.Contains(t, html, `name="confirm" value="yes"`)
	assert.Contains(t, html, "Eve")
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "/users/3/edit", EditURL(3))
	assert.Equal(t, "/users/3/delete", DeleteURL(3))
	assert.Equal(t, "/page?page=0&size=10", PageURL(0, 10))
}

func TestRender_ActionsFollowRoutes(t *testing.T) {
	html := render(t, console.State{
		Form:   console.FormState{Name: "Ann", Email: "ann@x.com", Mode: console.ModeEdit, TargetID: 1},
		Loaded: true,
	})

	for _, attr := range []string{
		`action="` + SubmitURL + `"`,
		`formaction="` + FormURL + `"`,
		`formaction="` + ClearURL + `"`,
		`formaction="` + CancelEditURL + `"`,
		`action="` + RefreshURL + `"`,
	} {
		assert.Contains(t, html, attr)
	}

	var buf bytes.Buffer
	require.NoError(t, RenderConfirmDelete(&buf, users.User{ID: 5}))
	assert.Contains(t, buf.String(), `href="`+RootURL+`">Cancel`)
}
