package handlers

import (
	"larp-membership-system/middleware"
	"larp-membership-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupStatusRoutes(app *fiber.App, db *gorm.DB, statusService *services.StatusService, membershipService *services.MembershipService) {
	secured := app.Group("/", middleware.RequireUser(db))

	secured.Post("/status/adjust", statusService.AdjustCharacterStatus)
	secured.Get("/status/:character_id/history", statusService.CharacterStatusHistory)
	secured.Post("/status/purchase", statusService.PurchaseStatus)

	secured.Get("/membership", membershipService.GetMembership)
	secured.Post("/membership/subscribe", membershipService.Subscribe)
	secured.Post("/membership/upgrade", membershipService.Upgrade)
	secured.Post("/membership/cancel", membershipService.Cancel)
	secured.Put("/membership/:user_id", membershipService.AdminSetMembership)
}
