package handlers

import (
	"larp-membership-system/middleware"
	"larp-membership-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupArbitrationRoutes(app *fiber.App, db *gorm.DB, arbitrationService *services.ArbitrationService) {
	secured := app.Group("/", middleware.RequireUser(db))

	secured.Get("/arbitration/offenses", arbitrationService.ListOffenses)
	secured.Get("/arbitration/complaints", arbitrationService.ListComplaints)
	secured.Post("/arbitration/complaints", arbitrationService.CreateComplaint)
	secured.Get("/arbitration/complaints/:complaint_id", arbitrationService.GetComplaint)
	secured.Post("/arbitration/complaints/:complaint_id/assign", arbitrationService.AssignArbitrator)
	secured.Post("/arbitration/complaints/:complaint_id/resolve", arbitrationService.ResolveComplaint)
}
