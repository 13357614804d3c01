package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/echohealthcare/mvps-pos/internal/application/service"
	"github.com/echohealthcare/mvps-pos/internal/config"
	"github.com/echohealthcare/mvps-pos/internal/domain/entity"
	domainRepo "github.com/echohealthcare/mvps-pos/internal/domain/repository"
	"github.com/echohealthcare/mvps-pos/internal/infrastructure/database"
	"github.com/echohealthcare/mvps-pos/internal/infrastructure/mvpsapi"
	"github.com/echohealthcare/mvps-pos/internal/infrastructure/repository"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/handler"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/middleware"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/routes"
	"github.com/echohealthcare/mvps-pos/pkg/oauth"
	"github.com/echohealthcare/mvps-pos/pkg/printer"
	"github.com/echohealthcare/mvps-pos/pkg/scanner"
	"github.com/echohealthcare/mvps-pos/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const idempotencyCleanupInterval = 15 * time.Minute

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Backend access
	tokens, err := newTokenProvider(&cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to configure backend auth: %v", err)
	}
	client := mvpsapi.NewClient(cfg.Backend.BaseURL, tokens, nil)

	// Initialize services
	customerService := service.NewCustomerService(client, cfg.POS.WalkInName, cfg.POS.CustomerType)
	registerService := service.NewRegisterService(client, customerService, service.RegisterConfig{
		GSTRate:      cfg.POS.GSTRate,
		DedupeWindow: cfg.POS.DedupeWindow,
		StatusTTL:    cfg.POS.StatusTTL,
		HistorySize:  cfg.POS.HistorySize,
	})
	checkoutService := service.NewCheckoutService(registerService, customerService, client, cfg.POS.OrderType)

	// Barcode scanning
	decoder := scanner.NewZXingDecoder()
	var surface *scanner.Surface
	if cfg.Scanner.StreamURL != "" {
		surface = scanner.NewSurface(scanner.NewMJPEGSource(cfg.Scanner.StreamURL, nil), decoder, cfg.Scanner.FPS)
	} else {
		log.Printf("[scanner] no SCANNER_STREAM_URL set, camera scanning disabled")
	}
	scannerService := service.NewScannerService(registerService, surface, scanner.NewFallback(decoder, cfg.Scanner.PreviewWidth))

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(
		cfg.Printer.Type,
		cfg.Printer.USBPath,
		cfg.Printer.Address,
		cfg.Printer.Timeout,
	)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}
	printerService := service.NewPrinterService(thermalPrinter, registerService, entity.ReceiptHeader{
		StoreName: cfg.Store.Name,
		Address:   cfg.Store.Address,
		Phone:     cfg.Store.Phone,
		GSTIN:     cfg.Store.GSTIN,
	}, cfg.Printer.Type, cfg.Printer.CharWidth)

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Idempotency store: postgres when configured, memory otherwise
	var db *gorm.DB
	var idempotencyRepo domainRepo.IdempotencyRepository
	if cfg.Database.Enabled {
		db, err = database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		idempotencyRepo = repository.NewIdempotencyRepository(db)
	} else {
		idempotencyRepo = repository.NewMemoryIdempotencyRepository()
	}

	limiter := middleware.NewOperatorRateLimiter(middleware.RateLimiterConfigFrom(cfg.RateLimit.Requests, cfg.RateLimit.Duration))

	// Initialize handlers
	handlers := &routes.Handlers{
		Register: handler.NewRegisterHandler(registerService, checkoutService),
		Scanner:  handler.NewScannerHandler(scannerService, registerService, cfg.Scanner.MaxFrameSize),
		Printer:  handler.NewPrinterHandler(printerService),
		Health:   handler.NewHealthHandler(cfg.App.Name, scannerService, printerService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     limiter,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cleanupIdempotencyKeys(ctx, idempotencyRepo)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}

	scannerService.Close()
	registerService.Close()
	limiter.Stop()
	if err := thermalPrinter.Close(); err != nil {
		log.Printf("Warning: closing printer: %v", err)
	}
	if db != nil {
		if err := database.Close(db); err != nil {
			log.Printf("Warning: closing database: %v", err)
		}
	}
}

func newTokenProvider(cfg *config.AuthConfig) (oauth.TokenProvider, error) {
	switch cfg.Mode {
	case "client_credentials":
		return oauth.NewClientCredentialsProvider(oauth.ClientCredentialsConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		})
	case "gateway":
		return oauth.NewGatewayProvider(oauth.GatewayConfig{
			GatewayURL:    cfg.GatewayURL,
			RefreshCookie: cfg.RefreshCookie,
			InitialToken:  cfg.Token,
		}), nil
	case "static", "":
		return oauth.NewStaticProvider(cfg.Token), nil
	default:
		return nil, errors.New("unknown AUTH_MODE " + cfg.Mode)
	}
}

func cleanupIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository) {
	ticker := time.NewTicker(idempotencyCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				log.Printf("[idempotency] cleanup failed: %v", err)
			}
		}
	}
}
