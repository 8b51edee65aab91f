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
	"github.com/jhoicas/Almacen-api/internal/application/allocation"
	"github.com/jhoicas/Almacen-api/internal/application/blind"
	"github.com/jhoicas/Almacen-api/internal/application/ledger"
	"github.com/jhoicas/Almacen-api/internal/application/movement"
	"github.com/jhoicas/Almacen-api/internal/application/reservation"
	"github.com/jhoicas/Almacen-api/internal/application/stage"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Almacen-api/internal/interfaces/http"
	"github.com/jhoicas/Almacen-api/pkg/config"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios sobre el pool (lecturas y escrituras de una sola fila).
	// Las operaciones multi-fila pasan por el TxRunner, que construye sus
	// propios repositorios ligados a la transacción.
	ledgerQueryRepo := postgres.NewLedgerQueryRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	sessionRepo := postgres.NewBlindSessionRepository(pool)
	labelRepo := postgres.NewLabelRepository(pool)
	readingRepo := postgres.NewLabelReadingRepository(pool)
	adjustmentRepo := postgres.NewAdjustmentRepository(pool)
	receivingRepo := postgres.NewReceivingOrderRepository(pool)
	pickingRepo := postgres.NewPickingOrderRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	stageCheckRepo := postgres.NewStageCheckRepository(pool)
	stageItemRepo := postgres.NewStageCheckItemRepository(pool)

	txRunner := postgres.NewTxRunner(pool)
	zonePolicy := postgres.NewZonePolicy(pool)

	moveUC := movement.NewMoveUseCase(txRunner, zonePolicy, log)
	queryUC := ledger.NewQueryUseCase(ledgerQueryRepo)
	allocationUC := allocation.NewStrategy(ledgerRepo, locationRepo, log)
	reservationUC := reservation.NewUseCase(txRunner, log)
	blindUC := blind.NewUseCase(
		sessionRepo, labelRepo, readingRepo, adjustmentRepo,
		receivingRepo, productRepo, txRunner, zonePolicy, log,
	)
	stageUC := stage.NewUseCase(
		stageCheckRepo, stageItemRepo, pickingRepo,
		labelRepo, productRepo, txRunner, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Almacen Core API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		MoveUC:        moveUC,
		QueryUC:       queryUC,
		AllocationUC:  allocationUC,
		ReservationUC: reservationUC,
		BlindUC:       blindUC,
		StageUC:       stageUC,
		JWTSecret:     cfg.JWT.Secret,
		JWTIssuer:     cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
