// Package console holds the per-session state of the users console and
// the operations the page can trigger on it.
package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"users-console/internal/client/users"
	pkgerrors "users-console/pkg/errors"
	"users-console/pkg/logger"
)

// ErrSuperseded is returned by a load that a newer load replaced. Its result is dropped.
var ErrSuperseded = errors.New("console: load superseded by a newer one")

// UsersClient is the remote users resource as seen by the controller.
type UsersClient interface {
	ListAll(ctx context.Context) ([]users.User, error)
	GetByID(ctx context.Context, id int64) (*users.User, error)
	Create(ctx context.Context, in []users.UserInput) ([]users.User, error)
	Update(ctx context.Context, id int64, in users.UserInput) (*users.User, error)
	DeleteByID(ctx context.Context, id int64) error
	ListPage(ctx context.Context, page, size int) (*users.PageResult, error)
}

// Level is the severity of a Notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a message shown once to the operator.
type Notice struct {
	Level Level
	Text  string
}

// PageInfo describes the rows when they come from LoadPage.
type PageInfo struct {
	Number        int
	Size          int
	TotalPages    int
	TotalElements int64
}

// State is a copy of the controller state for rendering.
type State struct {
	Form    FormState
	Rows    []users.User
	Page    *PageInfo // nil when Rows is the full list
	Loaded  bool      // a load has completed at least once
	Notices []Notice
	Busy    bool
}

// Controller owns the form, the table rows and the pending notices of one session.
// Network calls run without the lock; results are applied under it.
type Controller struct {
	client   UsersClient
	log      *zap.Logger
	validate *validator.Validate
	tasks    tracker

	mu      sync.Mutex
	form    FormState
	rows    []users.User
	page    *PageInfo
	loaded  bool
	notices []Notice
}

// NewController creates a controller with an empty form in create mode.
func NewController(client UsersClient, log *zap.Logger) *Controller {
	return &Controller{
		client:   client,
		log:      log,
		validate: validator.New(),
		rows:     []users.User{},
	}
}

// SetFields records the current form input.
func (c *Controller) SetFields(name, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Name, c.form.Email = name, email
}

// Submit creates a user in create mode or updates the edit target in edit mode.
// An empty field fails locally with a *errors.ValidationError.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	form := c.form
	c.mu.Unlock()

	in := form.input()
	if err := check(c.validate, in); err != nil {
		c.notify(LevelError, "Please fill in all fields")
		return err
	}
	payload := users.UserInput{Name: in.Name, Email: in.Email}

	if id, editing := form.Editing(); editing {
		return c.update(ctx, form, id, payload)
	}
	return c.create(ctx, form, payload)
}

func (c *Controller) create(ctx context.Context, form FormState, in users.UserInput) error {
	log := logger.WithContext(ctx, c.log)
	mctx, done := c.tasks.startMutation(ctx)
	created, err := c.client.Create(mctx, []users.UserInput{in})
	done()
	if err != nil {
		log.Warn("create user failed", zap.Error(err))
		c.notify(LevelError, failure("creating user", err))
		return err
	}

	log.Info("user created", zap.Int("count", len(created)))
	c.mu.Lock()
	c.resetIfUnchanged(form)
	c.pushLocked(LevelInfo, "User created successfully!")
	c.mu.Unlock()

	c.refreshAfterChange(ctx)
	return nil
}

func (c *Controller) update(ctx context.Context, form FormState, id int64, in users.UserInput) error {
	log := logger.WithContext(ctx, c.log).With(zap.Int64("id", id))
	mctx, done := c.tasks.startMutation(ctx)
	_, err := c.client.Update(mctx, id, in)
	done()
	if err != nil {
		log.Warn("update user failed", zap.Error(err))
		c.notify(LevelError, failure("updating user", err))
		return err
	}

	log.Info("user updated")
	c.mu.Lock()
	c.resetIfUnchanged(form)
	c.pushLocked(LevelInfo, "User updated successfully!")
	c.mu.Unlock()

	c.refreshAfterChange(ctx)
	return nil
}

// resetIfUnchanged returns the form to create mode unless the operator switched mode meanwhile.
func (c *Controller) resetIfUnchanged(submitted FormState) {
	if c.form.Mode == submitted.Mode && c.form.TargetID == submitted.TargetID {
		c.form = FormState{}
	}
}

// BeginEdit loads user id into the form and switches to edit mode.
// On failure the form is left as it was.
func (c *Controller) BeginEdit(ctx context.Context, id int64) error {
	mctx, done := c.tasks.startMutation(ctx)
	u, err := c.client.GetByID(mctx, id)
	done()
	if err == nil && u.ID != id {
		err = pkgerrors.NewTransportError("get", fmt.Errorf("asked for user %d, server returned user %d", id, u.ID))
	}
	if err != nil {
		logger.WithContext(ctx, c.log).Warn("get user for edit failed", zap.Int64("id", id), zap.Error(err))
		c.notify(LevelError, failure("getting user", err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = FormState{Name: u.Name, Email: u.Email, Mode: ModeEdit, TargetID: id}
	return nil
}

// CancelEdit abandons an edit without a network call.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = FormState{}
}

// Clear empties the form fields and keeps the mode.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = c.form.cleared()
}

// Delete removes user id once confirm returns true. A nil or declining confirm does nothing.
func (c *Controller) Delete(ctx context.Context, id int64, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return nil
	}

	log := logger.WithContext(ctx, c.log).With(zap.Int64("id", id))
	mctx, done := c.tasks.startMutation(ctx)
	err := c.client.DeleteByID(mctx, id)
	done()
	if err != nil {
		log.Warn("delete user failed", zap.Error(err))
		c.notify(LevelError, failure("deleting user", err))
		return err
	}

	log.Info("user deleted")
	c.notify(LevelInfo, "User deleted successfully!")
	c.refreshAfterChange(ctx)
	return nil
}

// Refresh replaces the rows with the full list. A failed refresh keeps the previous rows.
func (c *Controller) Refresh(ctx context.Context) error {
	lctx, seq, done := c.tasks.startLoad(ctx)
	defer done()

	rows, err := c.client.ListAll(lctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tasks.current(seq) {
		return ErrSuperseded
	}
	if err != nil {
		logger.WithContext(ctx, c.log).Warn("load users failed", zap.Error(err))
		c.pushLocked(LevelError, failure("loading users", err))
		return err
	}

	c.rows = rows
	c.page = nil
	c.loaded = true
	return nil
}

// LoadPage replaces the rows with one zero-based page.
func (c *Controller) LoadPage(ctx context.Context, page, size int) error {
	lctx, seq, done := c.tasks.startLoad(ctx)
	defer done()

	result, err := c.client.ListPage(lctx, page, size)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tasks.current(seq) {
		return ErrSuperseded
	}
	if err != nil {
		logger.WithContext(ctx, c.log).Warn("load users page failed", zap.Int("page", page), zap.Int("size", size), zap.Error(err))
		if errors.Is(err, users.ErrInvalidPageRequest) {
			c.pushLocked(LevelError, "Invalid page request: page must be 0 or more and size at least 1")
		} else {
			c.pushLocked(LevelError, failure("loading users with pagination", err))
		}
		return err
	}

	c.rows = result.Content
	c.page = &PageInfo{
		Number:        result.Number,
		Size:          result.Size,
		TotalPages:    result.TotalPages,
		TotalElements: result.TotalElements,
	}
	c.loaded = true
	return nil
}

// refreshAfterChange reloads the table after a successful mutation.
// A failed reload surfaces its own notice and does not fail the mutation.
func (c *Controller) refreshAfterChange(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		logger.WithContext(ctx, c.log).Debug("refresh after change failed", zap.Error(err))
	}
}

// TakeNotices returns and drops the pending notices.
func (c *Controller) TakeNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

// Snapshot returns a copy of the current state. Pending notices are included but not drained.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	var page *PageInfo
	if c.page != nil {
		p := *c.page
		page = &p
	}
	return State{
		Form:    c.form,
		Rows:    slices.Clone(c.rows),
		Page:    page,
		Loaded:  c.loaded,
		Notices: slices.Clone(c.notices),
		Busy:    c.tasks.busy(),
	}
}

func (c *Controller) notify(level Level, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushLocked(level, text)
}

func (c *Controller) pushLocked(level Level, text string) {
	c.notices = append(c.notices, Notice{Level: level, Text: text})
}

// failure phrases err for the operator. Server diagnostics are shown verbatim.
func failure(action string, err error) string {
	var (
		remote   *pkgerrors.RemoteError
		notFound *pkgerrors.NotFoundError
	)
	switch {
	case errors.As(err, &remote):
		if remote.Body == "" {
			return fmt.Sprintf("Error %s: HTTP %d", action, remote.StatusCode)
		}
		return fmt.Sprintf("Error %s: %s", action, remote.Body)
	case errors.As(err, &notFound):
		return fmt.Sprintf("Error %s: %s", action, notFound.Error())
	default:
		return fmt.Sprintf("Error %s. Please try again.", action)
	}
}
