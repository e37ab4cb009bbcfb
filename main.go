package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"larp-membership-system/handlers"
	"larp-membership-system/models"
	"larp-membership-system/services"
	"larp-membership-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		AppName: "LARP Membership System",
	})

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Setup-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Character{},
		&models.CharacterSkill{},
		&models.Skill{},
		&models.Event{},
		&models.EventParticipation{},
		&models.CastSignup{},
		&models.StatusAdjustment{},
		&models.StatusPurchase{},
		&models.Complaint{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// boot-time catalog imports, both optional
	if path := os.Getenv("SKILL_CATALOG_PATH"); path != "" {
		if _, err := services.LoadSkillsFromExcel(db, path); err != nil {
			log.Printf("⚠️  Failed to load skill catalog: %v", err)
		}
	}
	var offenses []services.Offense
	if path := os.Getenv("OFFENSE_CATALOG_PATH"); path != "" {
		offenses, err = services.LoadOffenses(path)
		if err != nil {
			log.Printf("⚠️  Failed to load offense catalog: %v", err)
		}
	}

	authService := services.NewAuthService(db)
	userService := services.NewUserService(db)
	membershipService := services.NewMembershipService(db)
	statusService := services.NewStatusService(db)
	characterService := services.NewCharacterService(db, membershipService)
	eventService := services.NewEventService(db, statusService)
	arbitrationService := services.NewArbitrationService(db, statusService, offenses)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventService.StartLifecycleScheduler()

	handlers.SetupAuthRoutes(app, db, authService)
	handlers.SetupCharacterRoutes(app, db, characterService)
	handlers.SetupEventRoutes(app, db, eventService)
	handlers.SetupStatusRoutes(app, db, statusService, membershipService)
	handlers.SetupArbitrationRoutes(app, db, arbitrationService)
	handlers.SetupAdminRoutes(app, db, userService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5200"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Event lifecycle scheduler running (every 5m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
