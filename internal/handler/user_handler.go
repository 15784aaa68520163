package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"stockroom/internal/auth"
	"stockroom/internal/errors"
	"stockroom/internal/model"
	"stockroom/internal/service"
)

// UserHandler bundles the user administration endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUserRequest represents a new user created by an admin.
type CreateUserRequest struct {
	Username string     `json:"username" validate:"required,max=100"`
	Password string     `json:"password" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=admin staff user"`
}

// UpdateRoleRequest changes the role of a user.
type UpdateRoleRequest struct {
	Role model.Role `json:"role" validate:"required,oneof=admin staff user"`
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "User payload"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	created, err := h.svc.AddUser(ctx, req.Username, req.Password, req.Role)
	if err != nil {
		return httpError(err)
	}
	if !created {
		return echo.NewHTTPError(http.StatusConflict, errors.ErrorResponse{
			Error: "username already taken",
			Code:  "USER_ALREADY_EXISTS",
		})
	}

	user, err := h.svc.GetUser(ctx, req.Username)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// ListUsers godoc
// @Summary List users, admins first
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateRole godoc
// @Summary Change the role of a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body UpdateRoleRequest true "New role"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/role [patch]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.svc.UpdateUserRole(c.Request().Context(), id, req.Role)
	if err != nil {
		return httpError(err)
	}
	if !updated {
		return userNotFound()
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "role updated"})
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if claims := auth.ClaimsFrom(c); claims != nil && claims.UserID == id {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "cannot delete the signed-in user",
			Code:  "VALIDATION_ERROR",
		})
	}

	deleted, err := h.svc.DeleteUser(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if !deleted {
		return userNotFound()
	}
	return c.NoContent(http.StatusNoContent)
}

func userNotFound() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
		Error: "user not found",
		Code:  "NOT_FOUND",
	})
}
