package registry

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cms0/internal/api/controllers"
	"cms0/internal/api/middleware"
	"cms0/internal/models"
	"cms0/internal/rbac"
	"cms0/internal/services"

	"gorm.io/gorm"
)

const basePath = "/api/v1"

// RegisterCRUDRoutes wires every protected route group and its guard
// requirements. Content groups carry one operation entry per method; the roles
// and users groups carry a group-level read entry that the mutating operations
// override with their own.
func RegisterCRUDRoutes(g *echo.Group, db *gorm.DB, guard *middleware.Guard, roleService *services.RoleService, userService *services.UserService) {
	registerRoleRoutes(g, guard, roleService)
	registerUserRoutes(g, guard, userService)

	// Content resources served by the generic CRUD controller
	registerContentRoutes(g, db, guard, "/pages", rbac.ResourcePages, models.Page{})
	registerContentRoutes(g, db, guard, "/posts", rbac.ResourcePosts, models.Post{})
	registerContentRoutes(g, db, guard, "/articles", rbac.ResourceArticles, models.Article{})
	registerContentRoutes(g, db, guard, "/categories", rbac.ResourceCategories, models.Category{})
	registerContentRoutes(g, db, guard, "/menu", rbac.ResourceMenu, models.MenuItem{})
	registerContentRoutes(g, db, guard, "/logo", rbac.ResourceLogo, models.Logo{})
	registerContentRoutes(g, db, guard, "/site-settings", rbac.ResourceSiteSettings, models.SiteSetting{})

	// Media stays authentication-only: uploads are owned by whoever is logged
	// in, downloads go through presigned URLs.
	mediaService := services.NewBaseService(db, models.Media{})
	mediaController := controllers.NewBaseController(mediaService)
	mediaController.RegisterRoutes(g, "/media", "GET", "DELETE")
}

func registerRoleRoutes(g *echo.Group, guard *middleware.Guard, roleService *services.RoleService) {
	controller := controllers.NewRoleController(roleService)
	group := g.Group("/roles")

	guard.RequireGroup(basePath+"/roles", rbac.Requirement{
		Resource: rbac.ResourceRoles, Actions: []rbac.Action{rbac.ActionRead},
	})

	group.GET("", controller.List)
	group.GET("/resources", controller.Resources)
	group.GET("/:slug", controller.Get)

	// Every authenticated user may read their own permission map
	group.GET("/me/permissions", controller.MyPermissions)
	guard.Require(http.MethodGet, basePath+"/roles/me/permissions")

	group.POST("", controller.Create)
	guard.Require(http.MethodPost, basePath+"/roles", rbac.Requirement{
		Resource: rbac.ResourceRoles, Actions: []rbac.Action{rbac.ActionCreate},
	})

	group.PATCH("/:id", controller.Update)
	guard.Require(http.MethodPatch, basePath+"/roles/:id", rbac.Requirement{
		Resource: rbac.ResourceRoles, Actions: []rbac.Action{rbac.ActionUpdate},
	})

	group.PUT("/:id/permissions", controller.ReplacePermissions)
	guard.Require(http.MethodPut, basePath+"/roles/:id/permissions", rbac.Requirement{
		Resource: rbac.ResourceRoles, Actions: []rbac.Action{rbac.ActionUpdate},
	})

	group.DELETE("/:id", controller.Delete)
	guard.Require(http.MethodDelete, basePath+"/roles/:id", rbac.Requirement{
		Resource: rbac.ResourceRoles, Actions: []rbac.Action{rbac.ActionDelete},
	})
}

func registerUserRoutes(g *echo.Group, guard *middleware.Guard, userService *services.UserService) {
	controller := controllers.NewUserController(userService)
	group := g.Group("/users")

	guard.RequireGroup(basePath+"/users", rbac.Requirement{
		Resource: rbac.ResourceUsers, Actions: []rbac.Action{rbac.ActionRead},
	})

	group.GET("", controller.List)
	group.GET("/:id", controller.Get)

	group.POST("", controller.Create)
	guard.Require(http.MethodPost, basePath+"/users", rbac.Requirement{
		Resource: rbac.ResourceUsers, Actions: []rbac.Action{rbac.ActionCreate},
	})

	group.PATCH("/:id", controller.Update)
	guard.Require(http.MethodPatch, basePath+"/users/:id", rbac.Requirement{
		Resource: rbac.ResourceUsers, Actions: []rbac.Action{rbac.ActionUpdate},
	})

	group.DELETE("/:id", controller.Delete)
	guard.Require(http.MethodDelete, basePath+"/users/:id", rbac.Requirement{
		Resource: rbac.ResourceUsers, Actions: []rbac.Action{rbac.ActionDelete},
	})

	// Handing a user a bespoke permission set mutates both the user and the
	// role directory
	group.PUT("/:id/permissions", controller.AssignPermissions)
	guard.Require(http.MethodPut, basePath+"/users/:id/permissions",
		rbac.Requirement{Resource: rbac.ResourceUsers, Actions: []rbac.Action{rbac.ActionUpdate}},
		rbac.Requirement{Resource: rbac.ResourceRoles, Actions: []rbac.Action{rbac.ActionUpdate}},
	)
}

// registerContentRoutes serves one catalog resource with the generic CRUD
// controller and one guard entry per operation.
func registerContentRoutes[T any](g *echo.Group, db *gorm.DB, guard *middleware.Guard, path string, resource rbac.Resource, model T) {
	service := services.NewBaseService(db, model)
	controller := controllers.NewBaseController(service)
	group := g.Group(path)

	group.GET("", controller.List)
	guard.Require(http.MethodGet, basePath+path, rbac.Requirement{
		Resource: resource, Actions: []rbac.Action{rbac.ActionRead},
	})

	group.GET("/:id", controller.Get)
	guard.Require(http.MethodGet, basePath+path+"/:id", rbac.Requirement{
		Resource: resource, Actions: []rbac.Action{rbac.ActionRead},
	})

	group.POST("", controller.Create)
	guard.Require(http.MethodPost, basePath+path, rbac.Requirement{
		Resource: resource, Actions: []rbac.Action{rbac.ActionCreate},
	})

	group.PUT("/:id", controller.Update)
	guard.Require(http.MethodPut, basePath+path+"/:id", rbac.Requirement{
		Resource: resource, Actions: []rbac.Action{rbac.ActionUpdate},
	})

	group.DELETE("/:id", controller.Delete)
	guard.Require(http.MethodDelete, basePath+path+"/:id", rbac.Requirement{
		Resource: resource, Actions: []rbac.Action{rbac.ActionDelete},
	})
}
