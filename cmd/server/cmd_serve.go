package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/voltride-support/internal/config"
	"github.com/iliyamo/voltride-support/internal/database"
	"github.com/iliyamo/voltride-support/internal/faq"
	"github.com/iliyamo/voltride-support/internal/handler"
	"github.com/iliyamo/voltride-support/internal/logger"
	"github.com/iliyamo/voltride-support/internal/middleware"
	"github.com/iliyamo/voltride-support/internal/otp"
	"github.com/iliyamo/voltride-support/internal/queue"
	"github.com/iliyamo/voltride-support/internal/repository"
	"github.com/iliyamo/voltride-support/internal/router"
	"github.com/iliyamo/voltride-support/internal/service"
)

var withConsumer bool

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&withConsumer, "with-consumer", false, "also run the order event consumer in this process")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Must(cfg.IsDev())
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unreachable: rate limiting and caching disabled, otp codes kept in memory")
	} else {
		defer rdb.Close()
	}

	e, err := newServer(cfg, db, rdb, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", ":"+cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if withConsumer {
		c := &queue.OrderConsumer{URL: cfg.AMQPURL, LogDir: "logs", Log: log.Named("consumer")}
		g.Go(func() error {
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// newServer assembles repositories, handlers and middleware into an Echo
// instance.  rdb may be nil.
func newServer(cfg config.Config, db *sql.DB, rdb *redis.Client, log *zap.Logger) (*echo.Echo, error) {
	profiles := repository.NewProfileRepo(db)
	admins := repository.NewAdminRepo(db)
	tokens := repository.NewTokenRepo(db)
	questions := repository.NewQuestionRepo(db)
	chats := repository.NewChatRepo(db)
	feedback := repository.NewFeedbackRepo(db)
	queries := repository.NewQueryRepo(db)
	scooters := repository.NewScooterRepo(db)
	orders := repository.NewOrderRepo(db)

	catalog, err := faq.NewCatalog(questions)
	if err != nil {
		return nil, err
	}

	publisher := service.NewPublisher(cfg.AMQPURL, log.Named("publisher"))

	var store otp.Store = otp.NewMemoryStore()
	if rdb != nil {
		store = otp.NewRedisStore(rdb, "")
	}
	var otpOpts []otp.Option
	if cfg.IsDev() {
		otpOpts = append(otpOpts, otp.WithCodeLogging())
	}
	codes := otp.NewService(store, publisher, cfg.OTPTTL, cfg.OTPMaxAttempts, log.Named("otp"), otpOpts...)

	cacheCfg := config.LoadCacheConfig()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log.Named("http")))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.Named("ratelimit")))

	router.RegisterRoutes(e, &handler.SupportHandler{Email: cfg.SupportEmail, EmergencyPhone: cfg.SupportEmergencyPhone})
	router.RegisterAuth(e,
		handler.NewAuthHandler(cfg, codes, profiles, admins, tokens, log.Named("auth")),
		cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadOTPRateLimitConfig(), rdb, log.Named("ratelimit")),
	)
	router.RegisterPublic(e,
		handler.NewPublicHandler(catalog, scooters, log.Named("public")),
		middleware.NewRedisCache(cacheCfg, rdb),
	)
	router.RegisterCustomer(e,
		handler.NewChatHandler(catalog, chats, feedback, queries, log.Named("chat")),
		handler.NewOrderHandler(scooters, orders, publisher, log.Named("orders")).WithCache(rdb, cacheCfg.Prefix),
		cfg.JWTSecret,
	)
	router.RegisterAdmin(e, handler.NewAdminHandler(handler.AdminDeps{
		Questions:   questions,
		Orders:      orders,
		Scooters:    scooters,
		Chats:       chats,
		Queries:     queries,
		Feedback:    feedback,
		Events:      publisher,
		Cache:       rdb,
		CachePrefix: cacheCfg.Prefix,
	}, log.Named("admin")), cfg.JWTSecret)
	return e, nil
}
