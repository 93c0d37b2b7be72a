package main

import (
	"log"
	"os"

	"github.com/luizbraga/baseapi/internal/config"
	"github.com/luizbraga/baseapi/internal/database"
	"github.com/luizbraga/baseapi/internal/repository"
	"github.com/luizbraga/baseapi/internal/service"
	"github.com/luizbraga/baseapi/pkg/logger"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.Environment != "production"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(cfg)
	database.Migrate()

	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminUsername == "" || adminEmail == "" || adminPassword == "" {
		log.Fatal("Missing enviroment variables: ADMIN_USERNAME, ADMIN_EMAIL, ADMIN_PASSWORD")
	}

	userRepo := repository.NewUserRepository(database.DB)
	authService := service.NewAuthService(userRepo, cfg.Environment)

	existing, err := userRepo.GetByEmail(adminEmail)
	if err != nil {
		log.Fatal("Failed to check for existing superuser:", err)
	}
	if existing != nil {
		log.Println("Superuser already exists:", existing.Username)
		log.Println("   Email:", existing.Email)
		return
	}

	// Superuser creation always forces is_staff and is_superuser on
	admin, err := authService.CreateSuperuser(service.NewUser{
		Username: adminUsername,
		Email:    adminEmail,
		Password: adminPassword,
	})
	if err != nil {
		log.Fatal("Failed to create superuser:", err)
	}

	log.Println("Superuser created successfully!")
	log.Println("   Username:", admin.Username)
	log.Println("   Email:", admin.Email)
}
