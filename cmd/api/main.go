package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/jhoicas/BancoSangre-api/internal/application/auth"
	"github.com/jhoicas/BancoSangre-api/internal/application/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/application/issue"
	"github.com/jhoicas/BancoSangre-api/internal/application/request"
	infrapdf "github.com/jhoicas/BancoSangre-api/internal/infrastructure/pdf"
	"github.com/jhoicas/BancoSangre-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/BancoSangre-api/internal/interfaces/http"
	"github.com/jhoicas/BancoSangre-api/pkg/config"
	"github.com/jhoicas/BancoSangre-api/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "banco-sangre",
		Short: "API del ledger de inventario de sangre",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(directoryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Inicia el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Int("shelf_life_days", cfg.Ledger.ShelfLifeDays).
		Dur("lock_timeout", cfg.Ledger.LockTimeout).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		return err
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout)
	entryRepo := postgres.NewInventoryEntryRepository(pool)
	requestRepo := postgres.NewBloodRequestRepository(pool)
	issueRepo := postgres.NewIssueRecordRepository(pool)
	directory := postgres.NewDirectory(pool)

	guard := auth.NewGuard(directory, directory)
	donationUC := inventory.NewDonationUseCase(entryRepo, guard, cfg.Ledger.ShelfLifeDays)
	queryUC := inventory.NewQueryUseCase(entryRepo, guard, cfg.Ledger.ExpiringWindowDays)
	engine := inventory.NewAllocationEngine(txRunner)
	sweeper := inventory.NewExpirySweeper(txRunner, log.Zerolog())
	requestUC := request.NewUseCase(txRunner, requestRepo, engine, guard)
	issueUC := issue.NewUseCase(issueRepo, requestRepo, guard, infrapdf.NewSlipGenerator())

	// Barrido programado opcional; la asignación ya barre su (hospital, grupo).
	if cfg.Ledger.SweepInterval > 0 {
		go sweeper.Start(ctx, cfg.Ledger.SweepInterval, time.Now)
		log.Info().Dur("interval", cfg.Ledger.SweepInterval).Msg("barrido de vencidos programado")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Banco de Sangre API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Donation:  donationUC,
		Query:     queryUC,
		Sweeper:   sweeper,
		Requests:  requestUC,
		Issues:    issueUC,
		Guard:     guard,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
	return nil
}
