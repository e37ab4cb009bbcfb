package handlers

import (
	"larp-membership-system/middleware"
	"larp-membership-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAdminRoutes(app *fiber.App, db *gorm.DB, userService *services.UserService) {
	secured := app.Group("/", middleware.RequireUser(db))

	secured.Get("/admin/permissions", userService.ListPermissions)
	secured.Put("/admin/permissions/:user_id", userService.UpdateUserPermission)
	secured.Get("/admin/users/:user_id", userService.UserDetails)
	secured.Post("/admin/setup", userService.SetupAdmin)

	// destructive maintenance, double-gated
	maintenance := app.Group("/", middleware.RequireUser(db), middleware.RequireSetupToken())
	maintenance.Post("/admin/recreate-db", userService.RecreateDB)
}
