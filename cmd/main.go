package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	_ "modernc.org/sqlite"

	"doulaBack/internal/billing/timeutil"
	"doulaBack/internal/config"
	"doulaBack/internal/logging"
	"doulaBack/internal/repositories"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Server.Address, "HTTP network address")
	flag.Parse()

	logger := logging.New()
	infoLog := slog.NewLogLogger(logger.Handler(), slog.LevelInfo)
	errorLog := slog.NewLogLogger(logger.Handler(), slog.LevelError)

	if err := timeutil.SetLocation(cfg.Maintenance.Timezone); err != nil {
		logger.Warn("unknown business timezone, using UTC", "timezone", cfg.Maintenance.Timezone, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := repositories.EnsureSchema(ctx, db); err != nil {
			errorLog.Fatal(err)
		}
	}

	app, err := initializeApp(cfg, db, logger, infoLog, errorLog)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer app.close()

	app.queue.Start(ctx)
	defer app.queue.Stop()

	startMaintenanceRunner(ctx, app.paymentService, cfg.Maintenance.Interval, cfg.Maintenance.Timeout, logger)

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Stripe-Signature"},
	})

	srv := &http.Server{
		Addr:         *addr,
		ErrorLog:     errorLog,
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	infoLog.Printf("Starting server on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errorLog.Fatal(err)
	}
	logger.Info("server stopped")
}
