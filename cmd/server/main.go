package main // Entry point package

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cinetix/movie-booking-api/internal/config"
	"github.com/cinetix/movie-booking-api/internal/database"
	"github.com/cinetix/movie-booking-api/internal/handler"
	"github.com/cinetix/movie-booking-api/internal/middleware"
	"github.com/cinetix/movie-booking-api/internal/payment"
	"github.com/cinetix/movie-booking-api/internal/queue"
	"github.com/cinetix/movie-booking-api/internal/repository"
	"github.com/cinetix/movie-booking-api/internal/router"
	"github.com/cinetix/movie-booking-api/internal/service"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories share the single pooled handle.
	movies := repository.NewMovieRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	bookings := repository.NewBookingRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	store := repository.NewReservationStore(db, showtimes, bookings, movies)

	gateway := payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpaySecret)
	reservations := service.NewReservation(store, gateway, queue.PublishBookingConfirmed)
	reservations.SetLockTTL(time.Duration(cfg.SeatLockTTLMin) * time.Minute)
	reservations.SetCurrency(cfg.Currency)

	e := echo.New()

	// Redis backs rate limiting and the response cache; when it is not
	// reachable both degrade to no-ops and the API keeps serving.
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		log.Println("redis unavailable: rate limiting and response cache disabled")
	}

	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(movies, showtimes)
	bookingH := handler.NewBookingHandler(reservations, bookings)
	paymentH := handler.NewPaymentHandler(reservations)
	adminH := handler.NewAdminHandler(movies, showtimes, bookings, users, reservations)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, bookingH)
	router.RegisterBooking(e, bookingH, paymentH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Background consumer appends confirmed bookings to logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
