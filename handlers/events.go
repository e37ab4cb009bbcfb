package handlers

import (
	"larp-membership-system/middleware"
	"larp-membership-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupEventRoutes(app *fiber.App, db *gorm.DB, eventService *services.EventService) {
	secured := app.Group("/", middleware.RequireUser(db))

	secured.Get("/events", eventService.ListEvents)
	secured.Post("/events", eventService.CreateEvent)
	secured.Post("/events/:event_id/signup", eventService.SignupEvent)
	secured.Get("/events/:event_id/my-signups", eventService.MySignups)
	secured.Get("/events/:event_id/roster", eventService.EventRoster)
	secured.Get("/events/:event_id/roster/pdf", eventService.EventRosterPDF)
	secured.Get("/events/attended", eventService.AttendedEvents)
	secured.Get("/events/history", eventService.EventHistory)
	secured.Get("/events/history/:event_id", eventService.EventHistoryDetail)
	secured.Delete("/events/completed", eventService.ClearCompletedEvents)

	// event status management surface
	secured.Get("/event-status", eventService.StatusManagement)
	secured.Get("/event-status/:event_id/participants", eventService.EventParticipants)
	secured.Post("/event-status/adjust", eventService.AdjustEventStatus)
	secured.Get("/event-status/:event_id/cast", eventService.CastSignups)
	secured.Post("/event-status/cast/process", eventService.ProcessCastSignup)
}
