package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LovationAdmin/trainer-api/config"
	"github.com/LovationAdmin/trainer-api/handlers"
	"github.com/LovationAdmin/trainer-api/migration"
	"github.com/LovationAdmin/trainer-api/routes"
	"github.com/LovationAdmin/trainer-api/services"
	"github.com/LovationAdmin/trainer-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	settings, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	if utils.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(settings)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	log.Println("✅ Database connected successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.RunMigrations(ctx, db); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	if len(os.Args) > 2 && os.Args[1] == "import-legacy" {
		if err := importLegacy(ctx, db, os.Args[2]); err != nil {
			log.Fatal("Legacy import failed: ", err)
		}
		return
	}

	passwordHash, err := settings.PasswordHash()
	if err != nil {
		log.Fatal(err)
	}

	rdb := config.ConnectRedis(settings)
	if rdb != nil {
		defer rdb.Close()
	}

	auth := services.NewAuthService(
		settings.AdminUsername,
		passwordHash,
		settings.SessionSecret,
		settings.SessionTimeout,
		services.NewSessionStore(rdb),
	)

	wsHandler := handlers.NewWSHandler()
	defer wsHandler.Close()

	router := routes.NewRouter(routes.Dependencies{
		Settings: settings,
		Clients:  services.NewClientService(db),
		Auth:     auth,
		WS:       wsHandler,
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogStartup("trainer-api", routes.Version, settings.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Graceful shutdown failed: %v", err)
	}
}

func importLegacy(ctx context.Context, db *sql.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = migration.ImportLegacyExport(ctx, db, f, time.Now())
	return err
}
