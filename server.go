package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/config"
	"bitbucket.org/mmdatafocus/storefront_backend/ledgerstore"
	"bitbucket.org/mmdatafocus/storefront_backend/middlewares"
	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"bitbucket.org/mmdatafocus/storefront_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultPort       = "8080"
	dependencyTimeout = 2 * time.Minute
)

func init() {
	// Prices arrive as json.Number so they are parsed without float rounding.
	binding.EnableDecoderUseNumber = true
	decimal.MarshalJSONWithoutQuotes = true
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func newRouter(app *App, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationID())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(corsConfigFromEnv()))
	if limiter := rateLimiterFromEnv(); limiter != nil {
		r.Use(limiter.RateLimitMiddleware)
	}
	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/cart", withSession(app, getCartHandler))
	api.POST("/cart/items", withSession(app, addCartItemHandler))
	api.DELETE("/cart/items/:id", withSession(app, removeCartItemHandler))

	api.GET("/checkout", withSession(app, getCheckoutHandler))
	api.POST("/checkout", withSession(app, startCheckoutHandler))
	api.POST("/checkout/confirm", withSession(app, confirmCheckoutHandler))
	api.POST("/checkout/cancel", withSession(app, cancelCheckoutHandler))

	api.GET("/sales", withSession(app, listSalesHandler))
	api.GET("/sales/summary", withSession(app, salesSummaryHandler))
	api.GET("/sales/export", withSession(app, exportSalesHandler))
	api.DELETE("/sales", middlewares.RequireOperator(), withSession(app, clearSalesHandler))

	api.POST("/operator/login", withSession(app, operatorLoginHandler))

	r.NoRoute(customNotFoundHandler)
	return r
}

// corsConfigFromEnv allows every origin outside production. In production
// only CORS_ALLOWED_ORIGINS is allowed, and nothing when it is unset.
func corsConfigFromEnv() cors.Config {
	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", middlewares.CorrelationHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationHeader)
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return corsConfig
}

// Optional rate limiting.
// Env:
// - RATE_LIMIT_ENABLED=true
// - RATE_LIMIT_WINDOW_SECONDS=60
// - RATE_LIMIT_MAX_REQUESTS=600
func rateLimiterFromEnv() *middlewares.RateLimiter {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDRESS"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	limit := int64(600)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	windowSec := int64(60)
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			windowSec = n
		}
	}
	return middlewares.NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
}

// openLedgerStore falls back to an in-memory store so the storefront keeps taking orders.
func openLedgerStore(ctx context.Context, logger *logrus.Logger) ledgerstore.Store {
	backend := config.LedgerBackend()
	ctx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()

	store, err := ledgerstore.Open(ctx, backend, logger)
	if err != nil {
		config.LogError(logger, "server.go", "openLedgerStore", "ledgerstore.Open", backend, err)
		return ledgerstore.NewMemoryStore()
	}
	return store
}

func openSaleNotifier(ctx context.Context, logger *logrus.Logger) *workflow.PubSubNotifier {
	topic := config.SalesTopic()
	if topic == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()

	client, err := config.GetPubSubClient(ctx)
	if err != nil {
		config.LogError(logger, "server.go", "openSaleNotifier", "GetPubSubClient", topic, err)
		return nil
	}
	notifier, err := workflow.NewPubSubNotifier(ctx, client, topic)
	if err != nil {
		config.LogError(logger, "server.go", "openSaleNotifier", "NewPubSubNotifier", topic, err)
		return nil
	}
	return notifier
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Listen before the ledger backend is ready; /api answers 503 until then.
	app := &App{}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: newRouter(app, logger),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	store := openLedgerStore(sigCtx, logger)
	defer store.Close()

	ledger := models.NewSalesLedger(store, logger, config.StoreLocation())
	loaded := ledger.Load(sigCtx)

	var opts []workflow.Option
	notifier := openSaleNotifier(sigCtx, logger)
	if notifier != nil {
		defer notifier.Stop()
		opts = append(opts, workflow.WithNotifier(notifier))
	}

	validator := models.NewCustomerValidator(config.StrictPhoneValidation(), config.PhoneCountryCode())
	app.Ready(NewSession(ledger, validator, logger, os.Getenv("OPERATOR_PASSWORD_HASH"), opts...))

	logger.WithFields(logrus.Fields{
		"backend": config.LedgerBackend(),
		"records": loaded,
	}).Info("storefront ready on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
	config.ClosePubSubClient()
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
