//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/database"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/schema"
	"github.com/hugh/stockroom/pkg/config"
	"github.com/hugh/stockroom/pkg/util"
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

	// Create admin user
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")

	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin123!"
	}
	if name == "" {
		name = "Admin"
	}

	resp, err := authService.Register(context.Background(), auth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
		OrgName:  "Default Organization",
	})

	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	orgID := resp.User.OrganizationID

	// Seed a starter asset type so the first import has a schema to target
	laptop := models.AssetType{
		OrganizationID: orgID,
		Name:           "Laptop",
		Icon:           "laptop",
		Color:          "#2563eb",
		Description:    "Company laptops and workstations",
	}
	if err := db.Create(&laptop).Error; err != nil {
		log.Fatalf("failed to create asset type: %v", err)
	}

	defs := []models.AttributeDefinition{
		{AssetTypeID: laptop.ID, Name: "serialNumber", Label: "Serial Number", FieldType: schema.FieldText, IsRequired: true, Position: 0},
		{AssetTypeID: laptop.ID, Name: "ram", Label: "RAM (GB)", FieldType: schema.FieldNumber, Position: 1},
		{AssetTypeID: laptop.ID, Name: "purchaseDate", Label: "Purchase Date", FieldType: schema.FieldDate, Position: 2},
		{AssetTypeID: laptop.ID, Name: "warrantyExpiry", Label: "Warranty Expiry", FieldType: schema.FieldDate, Position: 3},
		{AssetTypeID: laptop.ID, Name: "condition", Label: "Condition", FieldType: schema.FieldSelect, Options: []string{"new", "good", "worn", "broken"}, Position: 4},
		{AssetTypeID: laptop.ID, Name: "assignedTo", Label: "Assigned To", FieldType: schema.FieldUser, Position: 5},
	}
	for i := range defs {
		if err := db.Create(&defs[i]).Error; err != nil {
			log.Fatalf("failed to create attribute definition: %v", err)
		}
	}

	// Daily warranty sweep at 6 AM
	sweep := models.ScheduledSweep{
		OrganizationID: orgID,
		Name:           "Daily warranty check",
		CronExpr:       "0 6 * * *",
		IsEnabled:      true,
		DateFields:     []string{"warrantyExpiry"},
	}
	if next, err := util.NextCronTime(sweep.CronExpr, time.Now()); err == nil {
		sweep.NextRunAt = next.Unix()
	}
	if err := db.Create(&sweep).Error; err != nil {
		log.Fatalf("failed to create scheduled sweep: %v", err)
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	fmt.Printf("Organization: %s\n", resp.User.Organization.Name)
	fmt.Printf("Asset type: %s (%d attributes)\n", laptop.Name, len(defs))
	fmt.Printf("Token: %s\n", resp.Token)
}
