package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/cache"
	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/database"
	"github.com/iliyamo/restaurant-table-reservation/internal/engine"
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/router"
)

func main() {
	// Load .env when present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	cacheCfg := config.LoadOccupancyCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	// Reservation store: MySQL when configured, in-memory otherwise.
	var store repository.ReservationStore = repository.NewMemoryStore()
	if cfg.DBHost != "" {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("mysql: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := database.EnsureSchema(ctx, db); err != nil {
			cancel()
			log.Fatalf("mysql schema: %v", err)
		}
		cancel()
		store = repository.NewMySQLStore(db)
		log.Printf("reservation store: mysql (%s:%s/%s)", cfg.DBHost, cfg.DBPort, cfg.DBName)
	} else {
		log.Printf("reservation store: in-memory (volatile)")
	}

	// Redis backs the occupancy cache, chat sessions and rate limiting.
	// A nil client degrades each of them to in-process behaviour.
	rdb := config.NewRedisClient()
	var occ cache.OccupancyCache = cache.NewMemoryCache()
	if rdb != nil && cacheCfg.Enabled {
		occ = cache.NewRedisCache(rdb, cacheCfg.TTL, cacheCfg.Prefix)
		log.Printf("occupancy cache: redis (ttl=%s)", cacheCfg.TTL)
	} else {
		log.Printf("occupancy cache: in-memory")
	}

	eng, err := engine.New(cfg.Schedule, store, occ)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	sessions := repository.NewSessionRepo(rdb, cacheCfg.SessionTTL)
	res := handler.NewReservationHandler(eng, cfg.QueueEnabled)
	chat := handler.NewChatHandler(res, sessions)
	staff := handler.NewStaffHandler(eng)
	auth, err := handler.NewAuthHandler(cfg.JWTSecret, cfg.AccessTTLMin, cfg.StaffUser, cfg.StaffPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	// Background consumer mirrors committed mutations into logs/reservation.log.
	if cfg.QueueEnabled {
		go func() {
			if err := queue.StartReservationConsumer(); err != nil {
				log.Printf("reservation-consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterPublic(e, res, chat, rlCfg, rdb)
	router.RegisterStaff(e, auth, staff, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, seats=%d, %s-%s)",
		addr, cfg.Env, cfg.Schedule.TotalSeats, cfg.Schedule.Open, cfg.Schedule.Close)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
