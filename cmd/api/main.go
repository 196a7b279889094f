package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/jhoicas/Catalogo-api/internal/application/costing"
	"github.com/jhoicas/Catalogo-api/internal/application/ingestion"
	"github.com/jhoicas/Catalogo-api/internal/application/usecase"
	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/export"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Catalogo-api/internal/interfaces/http"
	"github.com/jhoicas/Catalogo-api/pkg/config"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Bool("persist", cfg.Catalog.Persist).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store := memory.NewCatalogStore()
	m := metrics.New("catalogo")

	// Persistencia opcional: sin DB el catálogo vive solo en memoria.
	var snapshots repository.SnapshotRepository
	if cfg.Catalog.Persist {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		if err := postgres.Migrate(ctx, cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}

		repo := postgres.NewSnapshotRepository(postgres.NewTxRunner(pool))
		snap, err := repo.Load(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("cargar catálogo persistido")
		}
		if err := store.Restore(snap); err != nil {
			if errors.Is(err, domain.ErrStoreCorruption) {
				log.Fatal().Err(err).Msg("catálogo persistido inconsistente; ejecute un re-seed")
			}
			log.Fatal().Err(err).Msg("restaurar catálogo")
		}
		snapshots = repo
	}
	st := store.Stats()
	m.ObserveStore(st)
	log.Info().
		Int("materials", st.Materials).
		Int("kits", st.Kits).
		Int("services", st.Services).
		Int("dangling", st.DanglingLineCount).
		Msg("catálogo cargado")

	coordinator := ingestion.NewCoordinator(store, snapshots, m, log.Component("ingestion"), cfg.Catalog.MaxRejections)
	engine := costing.NewEngine(store, m)
	catalogUC := usecase.NewCatalogUseCase(store, engine,
		export.NewXLSXRenderer(),
		export.NewPDFRenderer("Lista de materiales"),
	)
	ingestionUC := usecase.NewIngestionUseCase(coordinator)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    64 * 1024 * 1024, // lotes de re-seed completos
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Catálogo API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CatalogUC:   catalogUC,
		IngestionUC: ingestionUC,
		Metrics:     m.Handler(),
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
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
