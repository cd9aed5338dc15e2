package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/config"
	httptransport "github.com/example/room-reservation/internal/http"
	"github.com/example/room-reservation/internal/logging"
	"github.com/example/room-reservation/internal/notification"
	"github.com/example/room-reservation/internal/persistence/sqlite"
	"github.com/example/room-reservation/internal/recurrence"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(ctx, cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	var publisher application.EventPublisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err := notification.NewAMQPPublisher(cfg.AMQPURL, cfg.EventQueue)
		if err != nil {
			logger.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := amqpPublisher.Close(); cerr != nil {
				logger.Error("failed to close broker connection", "error", cerr)
			}
		}()
		publisher = amqpPublisher
		logger.Info("publishing booking events", "queue", cfg.EventQueue)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	userRepo := sqlite.NewUserRepository(storage)
	roomRepo := sqlite.NewRoomRepository(storage)
	reservationRepo := sqlite.NewReservationRepository(storage)
	sessionRepo := sqlite.NewSessionRepository(storage)

	userService := application.NewUserServiceWithLogger(userRepo, idGenerator, now, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(userRepo, sessionRepo, tokenGenerator, now, cfg.SessionTTL, logger)
	bookingService := application.NewBookingService(application.BookingServiceConfig{
		Reservations: reservationRepo,
		Rooms:        roomService,
		Users:        userService,
		Expander:     recurrence.NewExpander(cfg.HorizonDays),
		Publisher:    publisher,
		IDGenerator:  idGenerator,
		Now:          now,
		Logger:       logger,
	})

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := authService.PurgeExpiredSessions(ctx); err != nil {
					logger.Error("failed to purge expired sessions", "error", err)
				}
			}
		}
	}()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Users:        httptransport.NewUserHandler(userService, logger),
		Rooms:        httptransport.NewRoomHandler(roomService, logger),
		Reservations: httptransport.NewReservationHandler(bookingService, logger),
		Events:       httptransport.NewEventsHandler(bookingService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Session creation is the one unauthenticated endpoint.
		if r.URL.Path == "/sessions" && r.Method == http.MethodPost {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservation API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
