package controllers

import (
	"net/http"

	"cms0/internal/rbac"
	"cms0/internal/services"

	"github.com/labstack/echo/v4"
)

// UserController exposes administrative user management.
type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// List godoc
// @Summary List users
// @Produce json
// @Success 200 {array} models.User
// @Router /api/v1/users [get]
func (c *UserController) List(ctx echo.Context) error {
	users, err := c.users.ListUsers(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, users)
}

// Get godoc
// @Summary Get user
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/v1/users/{id} [get]
func (c *UserController) Get(ctx echo.Context) error {
	user, err := c.users.GetUser(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, user)
}

// Create godoc
// @Summary Create user
// @Accept json
// @Produce json
// @Param user body services.CreateUserInput true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 409 {object} map[string]string "Email conflict"
// @Router /api/v1/users [post]
func (c *UserController) Create(ctx echo.Context) error {
	var input services.CreateUserInput
	if err := ctx.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body "+err.Error())
	}
	if err := ctx.Validate(&input); err != nil {
		return err
	}

	user, err := c.users.CreateUser(ctx.Request().Context(), input)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, user)
}

// Update godoc
// @Summary Update user
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body services.UpdateUserInput true "Fields to update"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/v1/users/{id} [patch]
func (c *UserController) Update(ctx echo.Context) error {
	var input services.UpdateUserInput
	if err := ctx.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body "+err.Error())
	}
	if err := ctx.Validate(&input); err != nil {
		return err
	}

	user, err := c.users.UpdateUser(ctx.Request().Context(), ctx.Param("id"), input)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, user)
}

// Delete godoc
// @Summary Delete user
// @Param id path string true "User ID"
// @Success 204 "No content"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/v1/users/{id} [delete]
func (c *UserController) Delete(ctx echo.Context) error {
	if err := c.users.DeleteUser(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type assignPermissionsRequest struct {
	Permissions []rbac.Grant `json:"permissions" validate:"dive"`
}

// AssignPermissions godoc
// @Summary Assign custom permissions to a user
// @Description Materialize a private role carrying the given grants and point the user at it
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param permissions body assignPermissionsRequest true "Grants"
// @Success 200 {object} services.RoleDetail
// @Failure 400 {object} map[string]string "Invalid permission"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/v1/users/{id}/permissions [put]
func (c *UserController) AssignPermissions(ctx echo.Context) error {
	var input assignPermissionsRequest
	if err := ctx.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body "+err.Error())
	}
	if err := ctx.Validate(&input); err != nil {
		return err
	}

	detail, err := c.users.AssignCustomPermissions(ctx.Request().Context(), ctx.Param("id"), input.Permissions)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}
