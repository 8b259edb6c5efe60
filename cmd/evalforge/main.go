package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evalforge-dev/evalforge/db"
	"github.com/evalforge-dev/evalforge/internal/auth"
	"github.com/evalforge-dev/evalforge/internal/evaluation"
	"github.com/evalforge-dev/evalforge/internal/handlers"
	"github.com/evalforge-dev/evalforge/internal/ollama"
	"github.com/evalforge-dev/evalforge/internal/router"
	"github.com/evalforge-dev/evalforge/internal/scheduler"
	"github.com/evalforge-dev/evalforge/internal/scorer"
	"github.com/evalforge-dev/evalforge/internal/services"
	"github.com/evalforge-dev/evalforge/internal/store"
	"github.com/evalforge-dev/evalforge/internal/synthetic"
	"github.com/evalforge-dev/evalforge/internal/types"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	st := store.New(db.DB)

	var sc scorer.Scorer = scorer.Noop{}
	if url := os.Getenv("SCORER_URL"); url != "" {
		sc = scorer.NewRemote(url)
	}

	client := ollama.NewClient(types.GenerateTimeout * time.Second)
	executor := synthetic.NewExecutor()
	service := synthetic.NewService(st, executor, services.NewAlertNotifier())
	service.OnExecution(handlers.BroadcastRefresh)
	runner := evaluation.NewRunner(st, client, sc)

	sched := scheduler.New(st, service)

	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	defer sched.Stop()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down...")
		sched.Stop()
		os.Exit(0)
	}()

	h := handlers.New(st, sched, runner, service, executor, client)
	r := router.NewRouter(h)

	port := os.Getenv("PORT")

	if port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
