package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/signaldesk/signaldesk-server/cmd/api"
	"github.com/signaldesk/signaldesk-server/cmd/models"
	"github.com/signaldesk/signaldesk-server/cmd/utils"
	"github.com/signaldesk/signaldesk-server/db"
)

func main() {
	cfg := utils.LoadConfig()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations(cfg)
			return
		default:
			logrus.Fatalf("Unknown command: %s", os.Args[1])
		}
	}

	startServer(cfg)
}

func runMigrations(cfg *utils.Config) {
	DB, err := db.NewPSQLStorage(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Database initialization error: %v", err)
	}
	defer closeDB(DB)
	logrus.Info("Connected to the database for migrations")

	if err := performMigrations(DB); err != nil {
		logrus.Fatalf("Migration error: %v", err)
	}
	logrus.Info("Migrations completed successfully")
}

func performMigrations(DB *gorm.DB) error {
	migrations := map[interface{}]string{
		&models.User{}:         "User",
		&models.Signal{}:       "Signal",
		&models.Subscription{}: "Subscription",
	}

	logrus.Info("Starting database migrations...")
	for model, name := range migrations {
		logrus.Infof("Migrating %s table...", name)
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("error migrating %s table: %w", name, err)
		}
		logrus.Infof("%s migration successful", name)
	}

	return nil
}

func startServer(cfg *utils.Config) {
	DB, err := db.NewPSQLStorage(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Database initialization error: %v", err)
	}
	defer closeDB(DB)
	logrus.Info("Connected to the database")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	server := api.NewApiServer(":"+cfg.ServerPort, DB, cfg)

	go func() {
		if err := server.Run(); err != nil {
			logrus.Fatalf("Server error: %v", err)
		}
	}()
	logrus.Infof("Server running on port %s", cfg.ServerPort)

	<-quit
	logrus.Info("Shutting down server...")
}

func closeDB(DB *gorm.DB) {
	sqlDB, err := DB.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
	logrus.Info("Database connection closed")
}
