package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userdesk/internal/usecase/user"
	apperrors "userdesk/pkg/errors"
	"userdesk/pkg/logger"
)

// UserHandler serves the form-encoded user endpoints.
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserForm is the body of POST create.php.
type CreateUserForm struct {
	LastName  string `form:"nom"`
	FirstName string `form:"prenom"`
	Age       int    `form:"age"`
}

// UpdateUserForm is the body of POST update.php.
type UpdateUserForm struct {
	ID        int64  `form:"id"`
	LastName  string `form:"nom"`
	FirstName string `form:"prenom"`
	Age       int    `form:"age"`
}

// DeleteUserForm is the body of POST delete.php.
type DeleteUserForm struct {
	ID int64 `form:"id"`
}

// UserResponse is the JSON shape of one user.
type UserResponse struct {
	ID        int64  `json:"id"`
	LastName  string `json:"nom"`
	FirstName string `json:"prenom"`
	Age       int    `json:"age"`
}

// WriteResponse answers every write endpoint.
type WriteResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// ListUsers handles GET list.php
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	users, err := h.uc.ListUsers(ctx)
	if err != nil {
		log.Error("list users failed", zap.Error(err))
		c.JSON(apperrors.StatusOf(err), WriteResponse{Message: publicMessage(err)})
		return
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = toResponse(u)
	}
	c.JSON(http.StatusOK, resp)
}

// GetUser handles GET details.php?id=
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	idStr := c.Query("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		log.Warn("invalid user id", zap.String("id", idStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, WriteResponse{Message: "id must be a valid number"})
		return
	}

	u, err := h.uc.GetUser(ctx, user.GetUserRequest{ID: id})
	if err != nil {
		log.Warn("get user failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(apperrors.StatusOf(err), WriteResponse{Message: publicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, toResponse(*u))
}

// CreateUser handles POST create.php
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	var form CreateUserForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("invalid create form", zap.Error(err))
		h.fail(c, apperrors.NewValidationError("form", err.Error()))
		return
	}

	resp, err := h.uc.CreateUser(ctx, user.CreateUserRequest{
		LastName:  form.LastName,
		FirstName: form.FirstName,
		Age:       form.Age,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, WriteResponse{Success: true, ID: resp.ID})
}

// UpdateUser handles POST update.php
func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	var form UpdateUserForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("invalid update form", zap.Error(err))
		h.fail(c, apperrors.NewValidationError("form", err.Error()))
		return
	}

	resp, err := h.uc.UpdateUser(ctx, user.UpdateUserRequest{
		ID:        form.ID,
		LastName:  form.LastName,
		FirstName: form.FirstName,
		Age:       form.Age,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, WriteResponse{Success: true, ID: resp.ID})
}

// DeleteUser handles POST delete.php
func (h *UserHandler) DeleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	var form DeleteUserForm
	if err := c.ShouldBind(&form); err != nil {
		log.Warn("invalid delete form", zap.Error(err))
		h.fail(c, apperrors.NewValidationError("form", err.Error()))
		return
	}

	resp, err := h.uc.DeleteUser(ctx, user.DeleteUserRequest{ID: form.ID})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, WriteResponse{Success: true, ID: resp.ID})
}

// fail answers a write with success=false. Validation and not-found
// failures keep HTTP 200 so callers only need to read the body;
// anything else surfaces its status code.
func (h *UserHandler) fail(c *gin.Context, err error) {
	status := apperrors.StatusOf(err)
	if status == http.StatusBadRequest || status == http.StatusNotFound {
		status = http.StatusOK
	}
	c.JSON(status, WriteResponse{Message: publicMessage(err)})
}

// publicMessage hides internal error details from callers.
func publicMessage(err error) string {
	var ve *apperrors.ValidationError
	var nf *apperrors.NotFoundError
	switch {
	case errors.As(err, &ve), errors.As(err, &nf):
		return err.Error()
	default:
		return "an internal error occurred"
	}
}

func toResponse(u user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		LastName:  u.LastName,
		FirstName: u.FirstName,
		Age:       u.Age,
	}
}
