package handlers

import (
	"larp-membership-system/middleware"
	"larp-membership-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupCharacterRoutes(app *fiber.App, db *gorm.DB, characterService *services.CharacterService) {
	secured := app.Group("/", middleware.RequireUser(db))

	secured.Get("/characters", characterService.MyCharacters)
	secured.Post("/characters", characterService.CreateCharacter)
	secured.Get("/characters/:character_id", characterService.ViewCharacter)
	secured.Put("/characters/:character_id", characterService.UpdateCharacter)
	secured.Delete("/characters/:character_id", characterService.DeleteCharacter)
	secured.Get("/characters/:character_id/pdf", characterService.ExportCharacterPDF)
}
