//go:build ignore

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/hugh/cardboard/internal/apperr"
	"github.com/hugh/cardboard/internal/auth"
	"github.com/hugh/cardboard/internal/database"
	"github.com/hugh/cardboard/internal/database/models"
	"github.com/hugh/cardboard/pkg/config"
	"github.com/hugh/cardboard/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Create admin user; seeding ignores REGISTRATION_ALLOW_ADMIN
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry(), auth.WithIssuer(cfg.JWT.Issuer))
	authService := auth.NewService(db, jwtService, auth.WithLogger(logger))

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")

	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "Admin12345!"
	}

	user, err := authService.Register(context.Background(), auth.RegisterInput{
		FirstName: "Admin",
		LastName:  "User",
		Email:     email,
		Password:  password,
		Role:      models.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	resp, err := authService.Login(context.Background(), auth.LoginInput{Email: email, Password: password})
	if err != nil {
		log.Fatalf("failed to log in as admin: %v", err)
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Token: %s\n", resp.Token)
}
