package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"lensbook/internal/auth"
	"lensbook/internal/availability"
	"lensbook/internal/availability/availability_api"
	"lensbook/internal/booking"
	"lensbook/internal/booking/booking_api"
	bookingredis "lensbook/internal/booking/redis"
	"lensbook/internal/config"
	"lensbook/internal/database/migrations"
	"lensbook/internal/kafka"
	"lensbook/internal/logger"
	"lensbook/internal/messaging"
	"lensbook/internal/messaging/messaging_api"
	"lensbook/internal/photographers"
	"lensbook/internal/photographers/photographer_api"
	"lensbook/internal/reviews"
	"lensbook/internal/reviews/review_api"
	"lensbook/internal/users"
	"lensbook/internal/users/user_api"
	"lensbook/internal/utils"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	if _, err := client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Result(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
	} else {
		log.Info("REDIS", "Keyspace notifications enabled for expired events")
	}

	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Addr))
	return client
}

type routerDeps struct {
	log           *logger.Logger
	authmw        func(http.Handler) http.Handler
	users         *user_api.Handler
	photographers *photographer_api.Handler
	availability  *availability_api.Handler
	bookings      *booking_api.Handler
	reviews       *review_api.Handler
	messaging     *messaging_api.Handler
}

// newRouter mounts /api exactly once; the protected routes live in an inner
// group so the bearer middleware never touches the public directory or the
// Stripe webhook.
func newRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteSuccess(w, http.StatusOK, "ok", nil)
	})

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		r.Get("/photographers", d.photographers.Search)
		r.Get("/photographers/{photographerId}", d.photographers.GetProfile)
		r.Get("/photographers/{photographerId}/availability", d.availability.ListSlots)
		r.Get("/photographers/{photographerId}/portfolio", d.photographers.Portfolio)
		r.Get("/photographers/{photographerId}/reviews", d.reviews.ListForPhotographer)
		r.Get("/categories", d.photographers.ListCategories)
		r.Post("/webhooks/stripe", d.bookings.StripeWebhook)
		d.log.Info("ROUTER", "Public directory and webhook endpoints registered")

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(d.authmw)
			d.log.Info("AUTH", "Bearer middleware applied to protected API routes")

			r.Get("/auth/user", d.users.Me)

			r.Post("/photographers", d.photographers.Register)
			r.Patch("/photographers/{photographerId}", d.photographers.Update)
			r.Post("/photographers/{photographerId}/availability", d.availability.AddSlot)
			r.Delete("/photographers/{photographerId}/availability/{slotId}", d.availability.DeleteSlot)
			r.Post("/photographers/{photographerId}/portfolio", d.photographers.AddPortfolioItem)
			r.Delete("/photographers/{photographerId}/portfolio/{itemId}", d.photographers.DeletePortfolioItem)
			d.log.Info("ROUTER", "Photographer routes registered under /api/photographers")

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", d.bookings.CreateBooking)
				r.Get("/", d.bookings.ListBookings)
				r.Get("/{bookingId}", d.bookings.GetBooking)
				r.Patch("/{bookingId}/status", d.bookings.UpdateStatus)
				r.Post("/{bookingId}/payment-intent", d.bookings.CreatePaymentIntent)
				r.Get("/{bookingId}/voucher", d.bookings.Voucher)
				r.Post("/{bookingId}/messages", d.messaging.PostMessage)
				r.Get("/{bookingId}/messages", d.messaging.GetConversation)
				r.Post("/{bookingId}/deliverables", d.messaging.AddDeliverable)
				r.Get("/{bookingId}/deliverables", d.messaging.ListDeliverables)
			})
			d.log.Info("ROUTER", "Booking routes registered under /api/bookings")

			r.Post("/reviews", d.reviews.CreateReview)
			r.Get("/messages/unread", d.messaging.UnreadCount)

			r.Get("/admin/users", d.users.ListUsers)
			r.Patch("/admin/photographers/{photographerId}/verify", d.photographers.Verify)
			d.log.Info("ROUTER", "Admin verification route registered")
		})
	})

	return r
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting lensbook API initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: cfg.Database.MigrationsDir,
			AutoMigrate:   true,
		})
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		log.Info("DATABASE", "Migrations applied")
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient = connectRedis(ctx, cfg.Redis, log)
		defer redisClient.Close()
	} else {
		log.Warn("REDIS", "Redis disabled, slot holds will not be enforced across instances")
	}

	if cfg.Kafka.Enabled {
		requiredTopics := []string{
			cfg.Kafka.Topics.BookingCreated,
			cfg.Kafka.Topics.BookingUpdated,
			cfg.Kafka.Topics.BookingCancelled,
			cfg.Kafka.Topics.PhotographerVerified,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	}
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()
	log.Info("KAFKA", "Kafka producer initialized")

	// Wire the services bottom-up
	userService := users.NewService(&users.DB{Bun: bunDB}, log, cfg.Auth.AdminEmails)
	if err := userService.BootstrapAdmins(ctx); err != nil {
		log.Fatal("AUTH", fmt.Sprintf("Admin bootstrap failed: %v", err))
	}
	photographerService := photographers.NewService(
		&photographers.DB{Bun: bunDB},
		userService,
		producer,
		log,
		cfg.Kafka.Topics.PhotographerVerified,
	)
	availabilityService := availability.NewService(&availability.DB{Bun: bunDB}, log, photographerService)

	holds := bookingredis.NewRedis(redisClient, log, cfg.Booking.SlotHoldTTL)

	var gateway booking.PaymentGateway
	if cfg.Stripe.SecretKey != "" {
		sg, err := booking.NewStripeGateway(cfg.Stripe, log)
		if err != nil {
			log.Fatal("STRIPE", fmt.Sprintf("Stripe init failed: %v", err))
		}
		gateway = sg
	} else {
		log.Warn("STRIPE", "No Stripe key configured, bookings will be created without payment capture")
	}

	bookingService := &booking.Service{
		DB:        &booking.DB{Bun: bunDB},
		Ledger:    availabilityService,
		Hold:      holds,
		Gateway:   gateway,
		Kafka:     producer,
		Directory: photographerService,
		Logger:    log,
		Vouchers:  booking.NewVoucherGenerator(cfg.Auth.VoucherSecret),
		Topics: booking.Topics{
			Created:   cfg.Kafka.Topics.BookingCreated,
			Updated:   cfg.Kafka.Topics.BookingUpdated,
			Cancelled: cfg.Kafka.Topics.BookingCancelled,
		},
	}

	reviewService := reviews.NewService(&reviews.DB{Bun: bunDB}, bookingService.DB, log)
	messagingService := messaging.NewService(&messaging.DB{Bun: bunDB}, bookingService.DB, photographerService, log)

	userHandler := user_api.NewHandler(userService, log)
	photographerHandler := photographer_api.NewHandler(photographerService, log)
	availabilityHandler := availability_api.NewHandler(availabilityService, log)
	bookingHandler := booking_api.NewHandler(bookingService, log, cfg.Stripe.WebhookSecret)
	reviewHandler := review_api.NewHandler(reviewService, log)
	messagingHandler := messaging_api.NewHandler(messagingService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := newRouter(routerDeps{
		log:           log,
		authmw:        auth.Middleware(cfg.Auth, userService),
		users:         userHandler,
		photographers: photographerHandler,
		availability:  availabilityHandler,
		bookings:      bookingHandler,
		reviews:       reviewHandler,
		messaging:     messagingHandler,
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	subCtx, subCancel := context.WithCancel(ctx)
	defer subCancel()
	if redisClient != nil {
		log.Info("REDIS", "Starting slot hold expiry subscription")
		go func() {
			err := holds.SubscribeHoldExpiry(subCtx, func(photographerID, date, start, end string) {
				bookingService.ExpireHold(context.Background(), photographerID, date, start, end)
			})
			if err != nil && subCtx.Err() == nil {
				log.Error("REDIS", fmt.Sprintf("Hold expiry subscription ended: %v", err))
			}
		}()
	}

	// Backstop sweep for pending bookings whose hold expiry event never
	// arrived (or when redis is disabled entirely).
	go func() {
		ticker := time.NewTicker(cfg.Booking.SlotHoldTTL)
		defer ticker.Stop()
		for {
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
				bookingService.ReapStalePending(context.Background(), 2*cfg.Booking.SlotHoldTTL)
			}
		}
	}()

	go func() {
		log.Info("HTTP", "lensbook API running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "lensbook API shutdown complete")
	}
}
