package routes

import (
	"log"

	"github.com/echohealthcare/mvps-pos/internal/config"
	domainRepo "github.com/echohealthcare/mvps-pos/internal/domain/repository"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/dto/response"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/handler"
	"github.com/echohealthcare/mvps-pos/internal/presentation/http/middleware"
	"github.com/echohealthcare/mvps-pos/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Register *handler.RegisterHandler
	Scanner  *handler.ScannerHandler
	Printer  *handler.PrinterHandler
	Health   *handler.HealthHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.OperatorRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("[http] panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		response.InternalServerError(c, "Internal server error")
		c.Abort()
	}))
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerRegisterRoutes(protected, h, deps)
	}

	return router
}

func registerRegisterRoutes(rg *gin.RouterGroup, h *Handlers, deps *Deps) {
	register := rg.Group("/register")
	register.Use(middleware.RequireRole(middleware.RoleCashier, middleware.RoleSupervisor))
	{
		register.GET("", h.Register.GetRegister)
		register.POST("/scan", h.Register.Scan)
		register.DELETE("/scans", h.Register.ClearHistory)

		register.PATCH("/lines/:productId", h.Register.UpdateLine)
		register.POST("/lines/:productId/increment", h.Register.Increment)
		register.POST("/lines/:productId/decrement", h.Register.Decrement)
		register.DELETE("/lines/:productId", h.Register.RemoveLine)
		register.POST("/clear", h.Register.Clear)

		register.PUT("/customer", h.Register.SetCustomer)
		register.POST("/checkout",
			middleware.Idempotency(middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo}),
			h.Register.Checkout,
		)

		register.GET("/scanner", h.Scanner.Status)
		register.POST("/scanner/start", h.Scanner.Start)
		register.POST("/scanner/stop", h.Scanner.Stop)
		register.POST("/capture", h.Scanner.Capture)

		register.GET("/printer", h.Printer.GetStatus)
		register.POST("/print", h.Printer.PrintInvoice)
		register.GET("/invoice.pdf", h.Printer.InvoicePDF)
	}
}
