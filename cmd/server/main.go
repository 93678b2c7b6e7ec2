package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/farmstead/storefront/internal/config"
	"github.com/farmstead/storefront/internal/es"
	"github.com/farmstead/storefront/internal/events"
	"github.com/farmstead/storefront/internal/handlers"
	"github.com/farmstead/storefront/internal/logging"
	"github.com/farmstead/storefront/internal/mail"
	authmw "github.com/farmstead/storefront/internal/middleware/auth"
	"github.com/farmstead/storefront/internal/payment"
	"github.com/farmstead/storefront/internal/search"
	"github.com/farmstead/storefront/internal/service/checkout"
	"github.com/farmstead/storefront/internal/service/orders"
	"github.com/farmstead/storefront/internal/session"
	"github.com/farmstead/storefront/internal/shipping"
	httpserver "github.com/farmstead/storefront/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     configuration.REDIS_ADDR,
		Password: configuration.REDIS_PASSWORD,
	})
	sessions := session.NewStore(rdb, 2*time.Hour)

	var producer *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = events.NewProducer([]string{configuration.KAFKA_ADDRESS})
	} else {
		logger.Warn("kafka address not configured, store events disabled")
		producer = &events.Producer{}
	}

	var indexer *search.Indexer
	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer = &search.Indexer{ES: esClient}
		searchHandler = &handlers.SearchHandler{ES: esClient}
	} else {
		logger.Warn("elasticsearch not configured, product search disabled")
		indexer = &search.Indexer{}
		searchHandler = &handlers.SearchHandler{}
	}

	mailer := &mail.SMTPSender{
		Host:     configuration.EMAIL_HOST,
		Port:     configuration.EMAIL_PORT,
		Username: configuration.EMAIL_USER,
		Password: configuration.EMAIL_PASS,
		From:     configuration.EMAIL_FROM,
	}

	shipClient := shipping.NewClient(configuration.EASYPOST_URL, configuration.EASYPOST_API_KEY, shipping.Address{
		Street: configuration.SHIP_FROM_STREET,
		City:   configuration.SHIP_FROM_CITY,
		State:  configuration.SHIP_FROM_STATE,
		Zip:    configuration.SHIP_FROM_ZIP,
	})
	payClient := payment.NewClient(configuration.STRIPE_URL, configuration.STRIPE_SECRET_KEY)

	checkoutSvc := &checkout.Service{
		DB:       db,
		Mailer:   mailer,
		Producer: producer,
		ReplyTo:  configuration.ORDER_REPLY_TO,
		BCC:      configuration.ORDER_BCC,
	}
	orderSvc := &orders.Service{
		DB:      db,
		Mailer:  mailer,
		ReplyTo: configuration.ORDER_REPLY_TO,
		BCC:     configuration.ORDER_BCC,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"http://localhost:3000", "https://farmstead.example.com"},
		AllowCredentials: true,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := logging.IntoContext(req.Context(), logger)
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		DB:              db,
		Auth:            &authmw.Middleware{Store: sessions},
		AuthHandler:     &handlers.AuthHandler{DB: db, Sessions: sessions, Producer: producer},
		ProductHandler:  &handlers.ProductHandler{DB: db, Producer: producer, Indexer: indexer},
		CheckoutHandler: &handlers.CheckoutHandler{Checkout: checkoutSvc},
		OrderHandler:    &handlers.OrderHandler{Orders: orderSvc, Producer: producer},
		ShippingHandler: &handlers.ShippingHandler{Client: shipClient},
		PaymentHandler:  &handlers.PaymentHandler{Client: payClient},
		ContactHandler:  &handlers.ContactHandler{Mailer: mailer, Inbox: configuration.CONTACT_INBOX},
		SearchHandler:   searchHandler,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := rdb.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}
	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
