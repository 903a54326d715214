package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-console/internal/usecase/user"
	pkgerrors "users-console/pkg/errors"
	"users-console/pkg/logger"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserRequest is the body of a create (one array element) or an update.
type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// PageResponse is the page envelope of GET /api/users/page.
type PageResponse struct {
	Content          []UserResponse `json:"content"`
	TotalElements    int64          `json:"totalElements"`
	TotalPages       int            `json:"totalPages"`
	Number           int            `json:"number"`
	Size             int            `json:"size"`
	First            bool           `json:"first"`
	Last             bool           `json:"last"`
	NumberOfElements int            `json:"numberOfElements"`
	Empty            bool           `json:"empty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CreateUsers handles POST /api/users.
//
// @Summary      Create users
// @Description  Creates every record of the batch or none of them.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      []UserRequest  true  "Users to create"
// @Success      201   {array}   UserResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /api/users [post]
func (h *UserHandler) CreateUsers(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var req []UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid create users request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_body",
			Message: "request body must be a JSON array of {name, email}",
		})
		return
	}

	log.Info("create users request", zap.Int("count", len(req)))

	in := user.CreateUsersRequest{Users: make([]user.CreateUserRequest, len(req))}
	for i, r := range req {
		in.Users[i] = user.CreateUserRequest{Name: r.Name, Email: r.Email}
	}

	created, err := h.uc.CreateUsers(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponses(created))
}

// GetUser handles GET /api/users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(*resp))
}

// UpdateUser handles PUT /api/users/:id.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "User ID"
// @Param        body  body      UserRequest  true  "New name and email"
// @Success      200   {object}  UserResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid update user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_body",
			Message: "request body must be a JSON object {name, email}",
		})
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{ID: id, Name: req.Name, Email: req.Email})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(*resp))
}

// DeleteUser handles DELETE /api/users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Param        id   path  int  true  "User ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUsers handles GET /api/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        q    query     string  false  "Name or email substring"
// @Success      200  {array}   UserResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.uc.ListUsers(c.Request.Context(), user.ListUsersRequest{Query: c.Query("q")})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponses(users))
}

// ListPage handles GET /api/users/page.
//
// @Summary      List one page of users
// @Tags         users
// @Produce      json
// @Param        page  query     int     false  "Zero-based page index"  default(0)
// @Param        size  query     int     false  "Page size"              default(20)
// @Param        sort  query     string  false  "field[,asc|desc]"
// @Success      200   {object}  PageResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /api/users/page [get]
func (h *UserHandler) ListPage(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_page", Message: "page must be an integer"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(user.DefaultPageSize)))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_size", Message: "size must be an integer"})
		return
	}

	resp, err := h.uc.ListPage(c.Request.Context(), user.ListPageRequest{Page: page, Size: size, Sort: c.Query("sort")})
	if err != nil {
		h.handleError(c, err)
		return
	}

	content := toResponses(resp.Users)
	c.JSON(http.StatusOK, PageResponse{
		Content:          content,
		TotalElements:    resp.Total,
		TotalPages:       resp.TotalPages,
		Number:           resp.Page,
		Size:             resp.Size,
		First:            resp.First,
		Last:             resp.Last,
		NumberOfElements: len(content),
		Empty:            len(content) == 0,
	})
}

func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user id", zap.String("id", idStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "user id must be a valid number",
		})
		return 0, false
	}
	return id, true
}

// handleError converts usecase errors to HTTP responses using the error's own status.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)
	status := pkgerrors.StatusOf(err)

	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, ErrorResponse{
			Error:   "internal_error",
			Message: "an internal error occurred",
		})
		return
	}

	log.Warn("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	c.JSON(status, ErrorResponse{
		Error:   errorCode(status),
		Message: err.Error(),
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "already_exists"
	default:
		return "request_failed"
	}
}

func toResponse(u user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: timestamp(u.CreatedAt),
		UpdatedAt: timestamp(u.UpdatedAt),
	}
}

// timestamp drops unset times from the JSON.
func timestamp(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toResponses(users []user.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toResponse(u)
	}
	return out
}
