package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/healthbridge/healthbridge/internal/appointment"
	"github.com/healthbridge/healthbridge/internal/chat"
	"github.com/healthbridge/healthbridge/internal/directory"
	"github.com/healthbridge/healthbridge/internal/identity"
	"github.com/healthbridge/healthbridge/internal/ratelimit"
	"github.com/healthbridge/healthbridge/internal/record"
	"github.com/healthbridge/healthbridge/pkg/config"
	"github.com/healthbridge/healthbridge/pkg/database"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/monitoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.WithField("port", cfg.Server.Port).Info("Starting HealthBridge server")

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateSchema(schemaCtx); err != nil {
		cancelSchema()
		log.WithError(err).Error("Failed to initialize database schema")
		os.Exit(1)
	}
	cancelSchema()

	metrics := monitoring.NewMetricsCollector("healthbridge")
	db.WithMetrics(metrics)

	// Identity and session
	userRepo := identity.NewRepository(db, log)
	passwordManager := identity.NewPasswordManager()
	otpStore := identity.NewOTPStore(&cfg.OTP, log)
	tokenManager := identity.NewTokenManager(&cfg.JWT)
	identityService := identity.NewService(userRepo, passwordManager, otpStore, tokenManager, log, metrics)
	authMiddleware := identity.NewAuthMiddleware(tokenManager, log)
	identityHandlers := identity.NewHandlers(identityService, authMiddleware, log)

	// Appointments
	appointmentRepo := appointment.NewRepository(db, log)
	appointmentService := appointment.NewService(appointmentRepo, userRepo, log)
	appointmentHandlers := appointment.NewHandlers(appointmentService, authMiddleware, log)

	// Directory lookups
	directoryService := directory.NewService(userRepo, log)
	directoryHandlers := directory.NewHandlers(directoryService, authMiddleware, log)

	// Medical records
	recordRepo := record.NewRepository(db, log)
	recordService := record.NewService(recordRepo, log, metrics)
	recordHandlers := record.NewHandlers(recordService, log)

	// Realtime chat
	chatRegistry := chat.NewRegistry()
	chatRepo := chat.NewRepository(db, log)
	chatRelay := chat.NewRelay(chatRegistry, chatRepo, log, metrics)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(securityHeadersMiddleware)
	router.Use(requestLoggingMiddleware(log))
	if cfg.Monitoring.Enabled {
		router.Use(metrics.HTTPMiddleware)
	}

	// The limit middleware is installed per subrouter, after RequireAuth on
	// authenticated routes, so buckets are keyed per principal there and per
	// client address on the public routes. Health and metrics stay outside it.
	var limiter *ratelimit.Limiter
	limit := mux.MiddlewareFunc(ratelimit.Passthrough)
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(cfg.RateLimit.RequestsPerMin, time.Minute)
		limiter.StartCleanup(time.Duration(cfg.RateLimit.CleanupInterval) * time.Second)
		limit = ratelimit.NewMiddleware(limiter, log).Limit
	}

	identityHandlers.RegisterRoutes(router, limit)
	appointmentHandlers.RegisterRoutes(router, limit)
	directoryHandlers.RegisterRoutes(router, limit)
	recordHandlers.RegisterRoutes(router, limit)
	chatRelay.RegisterRoutes(router, limit)

	router.HandleFunc(cfg.Monitoring.HealthPath, healthHandler(db)).Methods("GET")
	if cfg.Monitoring.Enabled {
		router.Handle(cfg.Monitoring.MetricsPath, metrics.Handler()).Methods("GET")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down HealthBridge server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}

	chatRegistry.Close()
	if limiter != nil {
		limiter.Stop()
	}

	log.Info("HealthBridge server stopped")
}

// healthHandler reports process and database health
func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		statusCode := http.StatusOK

		if err := db.Health(); err != nil {
			status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    status,
			"service":   "healthbridge",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack forwards to the underlying writer so websocket upgrades still work
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// requestLoggingMiddleware emits one structured log line per request
func requestLoggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(recorder, r)

			log.HTTPRequest(r.Method, r.URL.Path, r.RemoteAddr, recorder.statusCode, time.Since(start).Milliseconds())
		})
	}
}

// corsMiddleware allows the mobile clients to call the API cross-origin
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware sets baseline security headers on every response
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		next.ServeHTTP(w, r)
	})
}
