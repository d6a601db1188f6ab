package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appaudit "github.com/jhoicas/AgroDiligencia-api/internal/application/audit"
	appfinance "github.com/jhoicas/AgroDiligencia-api/internal/application/finance"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/ports"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/syncq"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/usecase"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/repository"
	infraai "github.com/jhoicas/AgroDiligencia-api/internal/infrastructure/ai"
	infracache "github.com/jhoicas/AgroDiligencia-api/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/AgroDiligencia-api/internal/infrastructure/pdf"
	"github.com/jhoicas/AgroDiligencia-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/AgroDiligencia-api/internal/interfaces/http"
	"github.com/jhoicas/AgroDiligencia-api/pkg/config"
	"github.com/jhoicas/AgroDiligencia-api/pkg/logger"
)

func main() {
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
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Almacén remoto de tablas. Sin DB (o caída al arrancar) los dashboards funcionan solo en local.
	var (
		pool         *pgxpool.Pool
		auditRepo    repository.AuditRepository
		contractRepo repository.ContractRepository
	)
	if cfg.DB.Enabled() {
		pool, err = postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL no disponible, se trabaja solo en local")
		} else {
			defer pool.Close()
			auditRepo = postgres.NewAuditRepository(pool)
			contractRepo = postgres.NewContractRepository(pool)
		}
	}

	// Caché local del estado y canal de sincronización entre instancias.
	var (
		redisClient *redis.Client
		stateCache  ports.StateCache
		broadcaster ports.StateBroadcaster
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = infracache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis no disponible, caché desactivada")
		} else {
			defer redisClient.Close()
			stateCache = infracache.NewStateCache(redisClient)
			broadcaster = infracache.NewBroadcaster(redisClient, cfg.Redis.SyncChannel, log.Component("sync-bus"))
		}
	}

	tracker := syncq.NewTracker()
	queue := syncq.NewQueue(tracker, log.Component("syncq"), cfg.Sync.RemoteTimeout)

	auditSvc := appaudit.NewService(auditRepo, stateCache, queue, log.Component("audit"), appaudit.Options{
		CacheKey:      cfg.Redis.AuditKey,
		DebounceDelay: cfg.Sync.DebounceDelay,
		RemoteTimeout: cfg.Sync.RemoteTimeout,
	})
	financeSvc := appfinance.NewService(contractRepo, stateCache, broadcaster, queue, log.Component("finance"), appfinance.Options{
		CacheKey:      cfg.Redis.ContractsKey,
		DebounceDelay: cfg.Sync.DebounceDelay,
		RemoteTimeout: cfg.Sync.RemoteTimeout,
	})

	log.Info().Str("source", string(auditSvc.Load(ctx))).Msg("checklist de auditoría cargado")
	log.Info().Str("source", string(financeSvc.Load(ctx))).Msg("contratos cargados")

	subCtx, stopSub := context.WithCancel(ctx)
	go func() {
		if err := financeSvc.Subscribe(subCtx); err != nil {
			log.Error().Err(err).Msg("suscripción al canal de sincronización")
		}
	}()

	// Análisis de riesgo: proveedor elegido por AI_PROVIDER; sin API key el resultado es genérico.
	var analyzer ports.RiskAnalyzer
	switch cfg.AI.Provider {
	case "gemini":
		analyzer = infraai.NewGeminiService(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
	default:
		analyzer = infraai.NewAnthropicService(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
	}
	riskUC := usecase.NewRiskUseCase(analyzer, auditSvc, cfg.AI.Timeout, log.Component("risk"))
	reportUC := usecase.NewReportUseCase(infrapdf.NewMarotoReportGenerator(), auditSvc)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.AI.Timeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Audit:     auditSvc,
		Finance:   financeSvc,
		Risk:      riskUC,
		Report:    reportUC,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
	})
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: API sin autenticación")
	}

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

	// Escribir la caché pendiente y drenar las escrituras remotas antes de cerrar conexiones.
	stopSub()
	auditSvc.Close()
	financeSvc.Close()
	queue.Close()

	log.Info().Msg("aplicación detenida")
}
