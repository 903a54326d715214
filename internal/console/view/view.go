// Package view renders the console pages from a console.State.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"

	"users-console/internal/client/users"
	"users-console/internal/console"
)

//go:embed templates/*.html
var files embed.FS

// Templates name routes through these functions only, so an unknown route fails at parse time.
var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"rootURL":       constant(RootURL),
	"formURL":       constant(FormURL),
	"submitURL":     constant(SubmitURL),
	"clearURL":      constant(ClearURL),
	"cancelEditURL": constant(CancelEditURL),
	"refreshURL":    constant(RefreshURL),
	"editURL":       EditURL,
	"deleteURL":     DeleteURL,
	"pageURL":       PageURL,
}).ParseFS(files, "templates/*.html"))

func constant(s string) func() string {
	return func() string { return s }
}

// Action routes of the console.
const (
	RootURL       = "/"
	FormURL       = "/form"
	SubmitURL     = "/submit"
	ClearURL      = "/clear"
	CancelEditURL = "/edit/cancel"
	RefreshURL    = "/refresh"
	PagePath      = "/page"
)

// EditURL is the route that starts editing user id.
func EditURL(id int64) string {
	return fmt.Sprintf("/users/%d/edit", id)
}

// DeleteURL is the route that confirms and deletes user id.
func DeleteURL(id int64) string {
	return fmt.Sprintf("/users/%d/delete", id)
}

// PageURL is the route that loads one page of users.
func PageURL(page, size int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return PagePath + "?" + q.Encode()
}

type pager struct {
	console.PageInfo
	Prev, Next int
	HasPrev    bool
	HasNext    bool
}

type indexModel struct {
	console.State
	Editing     bool
	SubmitLabel string
	Pager       *pager
	DefaultSize int
}

// DefaultPageSize is the page size offered by the page links.
const DefaultPageSize = 10

// Render writes the users page for st.
func Render(w io.Writer, st console.State) error {
	m := indexModel{State: st, SubmitLabel: "Create", DefaultSize: DefaultPageSize}
	if _, editing := st.Form.Editing(); editing {
		m.Editing = true
		m.SubmitLabel = "Update"
	}
	if st.Page != nil {
		m.Pager = &pager{
			PageInfo: *st.Page,
			Prev:     st.Page.Number - 1,
			Next:     st.Page.Number + 1,
			HasPrev:  st.Page.Number > 0,
			HasNext:  st.Page.Number+1 < st.Page.TotalPages,
		}
	}
	return templates.ExecuteTemplate(w, "index.html", m)
}

// RenderConfirmDelete writes the confirmation page for deleting u.
func RenderConfirmDelete(w io.Writer, u users.User) error {
	return templates.ExecuteTemplate(w, "confirm.html", u)
}
