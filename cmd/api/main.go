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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/piano-stock-api/internal/application/dto"
	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/application/purchasing"
	"github.com/jhoicas/piano-stock-api/internal/application/usecase"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
	infraamqp "github.com/jhoicas/piano-stock-api/internal/infrastructure/amqp"
	"github.com/jhoicas/piano-stock-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/piano-stock-api/internal/infrastructure/pdf"
	"github.com/jhoicas/piano-stock-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/piano-stock-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/piano-stock-api/internal/interfaces/http"
	"github.com/jhoicas/piano-stock-api/pkg/config"
	"github.com/jhoicas/piano-stock-api/pkg/jwt"
	"github.com/jhoicas/piano-stock-api/pkg/logger"
	"github.com/jhoicas/piano-stock-api/pkg/metrics"
)

// stores repositorios y catálogo según STORE_DRIVER.
type stores struct {
	txRunner     inventory.TxRunner
	warehouses   repository.WarehouseRepository
	levels       repository.StockLevelRepository
	movements    repository.StockMovementRepository
	reservations repository.ReservationRepository
	orders       repository.PurchaseOrderRepository
	alerts       repository.AlertRepository
	catalog      inventory.ProductCatalog
	suppliers    inventory.SupplierDirectory
}

func postgresStores(pool *pgxpool.Pool) stores {
	catalog := postgres.NewCatalogRepository(pool)
	return stores{
		txRunner:     postgres.NewTxRunner(pool),
		warehouses:   postgres.NewWarehouseRepository(pool),
		levels:       postgres.NewStockLevelRepository(pool),
		movements:    postgres.NewStockMovementRepository(pool),
		reservations: postgres.NewReservationRepository(pool),
		orders:       postgres.NewPurchaseOrderRepository(pool),
		alerts:       postgres.NewAlertRepository(pool),
		catalog:      catalog,
		suppliers:    catalog,
	}
}

func memoryStores(lockTimeout time.Duration) stores {
	store := memory.NewStore(lockTimeout)
	catalog := memory.NewCatalog()
	return stores{
		txRunner:     store,
		warehouses:   store.Warehouses(),
		levels:       store.Levels(),
		movements:    store.Movements(),
		reservations: store.Reservations(),
		orders:       store.Orders(),
		alerts:       store.Alerts(),
		catalog:      catalog,
		suppliers:    catalog,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Inventory.StoreDriver).
		Msg("iniciando aplicación")

	verifier, err := jwt.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_SECRET requerido")
	}

	ctx := context.Background()

	var st stores
	var pool *pgxpool.Pool
	if cfg.Inventory.StoreDriver == "memory" {
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		st = memoryStores(cfg.Inventory.LockTimeout)
	} else {
		pool, err = postgres.NewPool(ctx, cfg.DB, cfg.App.Name, cfg.Inventory.LockTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		st = postgresStores(pool)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	hooks := &inventory.Hooks{Metrics: m, Logger: log.Component("hooks")}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, lecturas sin caché")
		} else {
			hooks.Cache = infraredis.NewLevelCache(redisClient, cfg.Redis.TTL, log.Component("cache"))
		}
	}

	var publisher *infraamqp.Publisher
	if cfg.AMQP.Enabled() {
		publisher, err = infraamqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warn().Err(err).Msg("broker no disponible, notificaciones desactivadas")
		} else {
			hooks.Publisher = publisher
		}
	}

	retry := inventory.RetryPolicy{
		MaxRetries:      uint64(cfg.Inventory.LockRetries),
		InitialInterval: inventory.DefaultRetryPolicy.InitialInterval,
		MaxInterval:     inventory.DefaultRetryPolicy.MaxInterval,
	}

	alertEngine := inventory.NewAlertEngine(st.levels, st.alerts, st.catalog, hooks.Publisher, m, log.Component("alerts"))
	hooks.Alerts = alertEngine
	ledger := inventory.NewLedger(st.txRunner, st.warehouses, st.catalog, hooks, retry)
	planner := inventory.NewReorderPlanner(st.levels, st.warehouses, st.catalog, st.suppliers)
	workflow := purchasing.NewWorkflow(st.txRunner, st.orders, st.warehouses, st.catalog, ledger, hooks, retry)

	// PDF: orden de compra para el proveedor
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)
	orderPDFUC := purchasing.NewPDFUseCase(st.orders, st.warehouses, st.catalog, pdfGenerator)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: err.Error()})
		},
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http"), m))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Piano Stock API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Inventory.StoreDriver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		WarehouseUC:    usecase.NewWarehouseUseCase(st.warehouses, st.levels, st.catalog),
		Ledger:         ledger,
		StockQuery:     inventory.NewStockQuery(st.levels, st.movements, st.catalog, hooks.Cache),
		Reservations:   inventory.NewReservationManager(ledger, st.reservations),
		Alerts:         alertEngine,
		Reorder:        planner,
		Valuation:      inventory.NewValuationUseCase(st.levels),
		Workflow:       workflow,
		OrderPDF:       orderPDFUC,
		MetricsHandler: promhttp.Handler(),
		Verifier:       verifier,
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
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar publicador AMQP")
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if pool != nil {
		pool.Close()
	}

	log.Info().Msg("aplicación detenida")
}
