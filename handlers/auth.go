package handlers

import (
	"larp-membership-system/middleware"
	"larp-membership-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB, authService *services.AuthService) {
	app.Post("/auth/register", authService.Register)
	app.Post("/auth/login", authService.Login)

	secured := app.Group("/", middleware.RequireUser(db))
	secured.Get("/profile", authService.Profile)
	secured.Put("/profile", authService.UpdateProfile)
	secured.Post("/profile/password", authService.ChangePassword)
}
