package controllers

import (
	"net/http"
	"strconv"

	"cms0/internal/api/middleware"
	"cms0/internal/rbac"
	"cms0/internal/services"

	"github.com/labstack/echo/v4"
)

// RoleController exposes the role directory and the permission matrix.
type RoleController struct {
	roles *services.RoleService
}

func NewRoleController(roles *services.RoleService) *RoleController {
	return &RoleController{roles: roles}
}

// List godoc
// @Summary List roles
// @Description Get all roles with their permission counts
// @Produce json
// @Success 200 {array} services.RoleSummary
// @Router /api/v1/roles [get]
func (c *RoleController) List(ctx echo.Context) error {
	summaries, err := c.roles.ListRoles(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summaries)
}

// Resources godoc
// @Summary Resource catalog
// @Description Get the static resource/action catalog used to render the permission matrix
// @Produce json
// @Success 200 {array} rbac.ResourceDefinition
// @Router /api/v1/roles/resources [get]
func (c *RoleController) Resources(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.roles.ResourceDefinitions())
}

// MyPermissions godoc
// @Summary Current user's permission map
// @Description Advisory resource-to-actions map for the requesting user's role
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/roles/me/permissions [get]
func (c *RoleController) MyPermissions(ctx echo.Context) error {
	role := middleware.GetUserRole(ctx)
	permissions, err := c.roles.PermissionMapForRole(ctx.Request().Context(), role)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"role":        role,
		"permissions": permissions,
	})
}

// Get godoc
// @Summary Get role detail
// @Description Get a role by slug with its catalog-ordered permission matrix
// @Produce json
// @Param slug path string true "Role slug"
// @Success 200 {object} services.RoleDetail
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/v1/roles/{slug} [get]
func (c *RoleController) Get(ctx echo.Context) error {
	detail, err := c.roles.GetRoleDetail(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

// Create godoc
// @Summary Create role
// @Description Create a custom role, deriving a slug from the name when none is given
// @Accept json
// @Produce json
// @Param role body services.CreateRoleInput true "Role"
// @Success 201 {object} services.RoleDetail
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 409 {object} map[string]string "Slug conflict"
// @Router /api/v1/roles [post]
func (c *RoleController) Create(ctx echo.Context) error {
	var input services.CreateRoleInput
	if err := ctx.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body "+err.Error())
	}
	if err := ctx.Validate(&input); err != nil {
		return err
	}

	detail, err := c.roles.CreateRole(ctx.Request().Context(), input)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, detail)
}

// Update godoc
// @Summary Update role
// @Description Partially update a role; a permissions field replaces the whole grant set
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param role body services.UpdateRoleInput true "Fields to update"
// @Success 200 {object} services.RoleDetail
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Slug conflict"
// @Router /api/v1/roles/{id} [patch]
func (c *RoleController) Update(ctx echo.Context) error {
	id, err := parseRoleID(ctx)
	if err != nil {
		return err
	}

	var input services.UpdateRoleInput
	if err := ctx.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body "+err.Error())
	}
	if err := ctx.Validate(&input); err != nil {
		return err
	}

	detail, err := c.roles.UpdateRole(ctx.Request().Context(), id, input)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

type replacePermissionsRequest struct {
	Permissions []rbac.Grant `json:"permissions" validate:"dive"`
}

// ReplacePermissions godoc
// @Summary Replace role permissions
// @Description Atomically swap the role's full grant set
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param permissions body replacePermissionsRequest true "New grant set"
// @Success 200 {object} services.RoleDetail
// @Failure 400 {object} map[string]string "Invalid permission"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/v1/roles/{id}/permissions [put]
func (c *RoleController) ReplacePermissions(ctx echo.Context) error {
	id, err := parseRoleID(ctx)
	if err != nil {
		return err
	}

	var input replacePermissionsRequest
	if err := ctx.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body "+err.Error())
	}
	if err := ctx.Validate(&input); err != nil {
		return err
	}

	detail, err := c.roles.ReplacePermissions(ctx.Request().Context(), id, input.Permissions)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

// Delete godoc
// @Summary Delete role
// @Description Delete a custom role and its grants; system roles are refused
// @Param id path int true "Role ID"
// @Success 204 "No content"
// @Failure 400 {object} map[string]string "System role"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/v1/roles/{id} [delete]
func (c *RoleController) Delete(ctx echo.Context) error {
	id, err := parseRoleID(ctx)
	if err != nil {
		return err
	}

	if err := c.roles.DeleteRole(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func parseRoleID(ctx echo.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}
	return uint(id), nil
}
