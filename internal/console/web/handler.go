package web

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-console/internal/client/users"
	"users-console/internal/console"
	"users-console/internal/console/view"
	"users-console/pkg/logger"
)

// SessionCookie names the cookie holding the console session id.
const SessionCookie = "users_console_session"

const controllerKey = "console.controller"

// Handler maps console routes to controller operations.
type Handler struct {
	sessions *console.Registry
	ttl      time.Duration
	log      *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(sessions *console.Registry, ttl time.Duration, log *zap.Logger) *Handler {
	return &Handler{sessions: sessions, ttl: ttl, log: log}
}

// Session resolves the caller's controller and renews the session cookie.
func (h *Handler) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(SessionCookie)
		id, ctrl := h.sessions.Get(cookie)

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, int(h.ttl.Seconds()), "/", "", false, true)

		c.Request = c.Request.WithContext(logger.ContextWithSessionID(c.Request.Context(), id))
		c.Set(controllerKey, ctrl)
		c.Next()
	}
}

func controller(c *gin.Context) *console.Controller {
	return c.MustGet(controllerKey).(*console.Controller)
}

func back(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, view.RootURL)
}

// Index renders the table and the form. The first visit of a session loads the users.
func (h *Handler) Index(c *gin.Context) {
	ctrl := controller(c)
	if !ctrl.Snapshot().Loaded {
		_ = ctrl.Refresh(c.Request.Context())
	}
	h.render(c, ctrl)
}

// SetFields records the form fields without submitting.
func (h *Handler) SetFields(c *gin.Context) {
	controller(c).SetFields(c.PostForm("name"), c.PostForm("email"))
	back(c)
}

// Submit creates or updates depending on the form mode.
func (h *Handler) Submit(c *gin.Context) {
	ctrl := controller(c)
	ctrl.SetFields(c.PostForm("name"), c.PostForm("email"))
	_ = ctrl.Submit(c.Request.Context())
	back(c)
}

// Clear empties the form fields.
func (h *Handler) Clear(c *gin.Context) {
	controller(c).Clear()
	back(c)
}

// BeginEdit loads a user into the form.
func (h *Handler) BeginEdit(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	_ = controller(c).BeginEdit(c.Request.Context(), id)
	back(c)
}

// CancelEdit leaves edit mode.
func (h *Handler) CancelEdit(c *gin.Context) {
	controller(c).CancelEdit()
	back(c)
}

// ConfirmDelete renders the confirmation page.
func (h *Handler) ConfirmDelete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	u := users.User{ID: id}
	for _, row := range controller(c).Snapshot().Rows {
		if row.ID == id {
			u = row
			break
		}
	}

	var buf bytes.Buffer
	if err := view.RenderConfirmDelete(&buf, u); err != nil {
		h.renderFailed(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Delete removes a user when the form carries confirm=yes.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	confirmed := func() bool { return c.PostForm("confirm") == "yes" }
	_ = controller(c).Delete(c.Request.Context(), id, confirmed)
	back(c)
}

// Refresh reloads the full list.
func (h *Handler) Refresh(c *gin.Context) {
	_ = controller(c).Refresh(c.Request.Context())
	back(c)
}

// Page loads one page of users and renders it.
func (h *Handler) Page(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		page = -1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(view.DefaultPageSize)))
	if err != nil {
		size = 0
	}

	ctrl := controller(c)
	_ = ctrl.LoadPage(c.Request.Context(), page, size)
	h.render(c, ctrl)
}

func (h *Handler) render(c *gin.Context, ctrl *console.Controller) {
	notices := ctrl.TakeNotices()
	st := ctrl.Snapshot()
	st.Notices = notices

	var buf bytes.Buffer
	if err := view.Render(&buf, st); err != nil {
		h.renderFailed(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) renderFailed(c *gin.Context, err error) {
	logger.WithContext(c.Request.Context(), h.log).Error("render failed", zap.Error(err))
	c.String(http.StatusInternalServerError, "internal error")
}

func (h *Handler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user id", zap.String("id", c.Param("id")))
		c.String(http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}
