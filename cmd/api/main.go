// @title Warikan API
// @version 1.0
// @description Shared household ledger with exact integer-yen splitting and debt settlement.
// @BasePath /api/v1
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/warikan-app/warikan/docs"
	"github.com/warikan-app/warikan/internal/cache"
	"github.com/warikan-app/warikan/internal/config"
	"github.com/warikan-app/warikan/internal/database"
	"github.com/warikan-app/warikan/internal/expense"
	"github.com/warikan-app/warikan/internal/expense/split"
	"github.com/warikan-app/warikan/internal/group"
	"github.com/warikan-app/warikan/internal/settlement"
	"github.com/warikan-app/warikan/internal/user"
	"github.com/warikan-app/warikan/pkg/logging"
	mw "github.com/warikan-app/warikan/pkg/middleware"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	// Database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Connected to database")

	// Optional Redis balance cache
	redisClient := database.NewRedisClient(cfg.RedisAddr)
	balanceCache := cache.NewBalanceCache(redisClient)

	// Split Strategy Factory
	splitFactory := split.NewFactory()

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	// Group feature
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo)
	groupHandler := group.NewHandler(groupService)

	// Expense feature (with split factory injected)
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, splitFactory, balanceCache)
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(db, settlementRepo, expenseRepo, groupRepo, balanceCache)
	settlementHandler := settlement.NewHandler(settlementService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// A configured JWT secret enables real auth; without one the server
	// trusts the X-Test-User-ID header. DEV ONLY.
	auth := mw.TestUser
	if cfg.JWTSecret != "" {
		auth = mw.Auth(cfg.JWTSecret)
	} else {
		slog.Warn("JWT_SECRET not set, using test user middleware")
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth)

		r.Mount("/users", userHandler.Routes())
		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
	})

	slog.Info("Server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
