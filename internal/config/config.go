package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/farmstead/storefront/internal/models"
)

type Config struct {
	PORT        string
	LOG_LEVEL   string
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	REDIS_ADDR     string
	REDIS_PASSWORD string

	KAFKA_ADDRESS string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	STRIPE_SECRET_KEY string
	STRIPE_URL        string

	EASYPOST_API_KEY string
	EASYPOST_URL     string

	// warehouse origin for rate quotes
	SHIP_FROM_STREET string
	SHIP_FROM_CITY   string
	SHIP_FROM_STATE  string
	SHIP_FROM_ZIP    string

	EMAIL_HOST     string
	EMAIL_PORT     string
	EMAIL_USER     string
	EMAIL_PASS     string
	EMAIL_FROM     string
	ORDER_REPLY_TO string
	ORDER_BCC      string
	CONTACT_INBOX  string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:        getenv("PORT", "8080"),
		LOG_LEVEL:   getenv("LOG_LEVEL", "info"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		REDIS_ADDR:     getenv("REDIS_ADDR", "localhost:6379"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		STRIPE_SECRET_KEY: os.Getenv("STRIPE_SECRET_KEY"),
		STRIPE_URL:        getenv("STRIPE_URL", "https://api.stripe.com"),

		EASYPOST_API_KEY: os.Getenv("EASYPOST_API_KEY"),
		EASYPOST_URL:     getenv("EASYPOST_URL", "https://api.easypost.com"),

		SHIP_FROM_STREET: os.Getenv("SHIP_FROM_STREET"),
		SHIP_FROM_CITY:   os.Getenv("SHIP_FROM_CITY"),
		SHIP_FROM_STATE:  os.Getenv("SHIP_FROM_STATE"),
		SHIP_FROM_ZIP:    os.Getenv("SHIP_FROM_ZIP"),

		EMAIL_HOST:     os.Getenv("EMAIL_HOST"),
		EMAIL_PORT:     getenv("EMAIL_PORT", "587"),
		EMAIL_USER:     os.Getenv("EMAIL_USER"),
		EMAIL_PASS:     os.Getenv("EMAIL_PASS"),
		EMAIL_FROM:     os.Getenv("EMAIL_FROM"),
		ORDER_REPLY_TO: os.Getenv("ORDER_REPLY_TO"),
		ORDER_BCC:      os.Getenv("ORDER_BCC"),
		CONTACT_INBOX:  os.Getenv("CONTACT_INBOX"),
	}

	return config, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ShippingDetail{},
		&models.Order{},
		&models.OrderLine{},
	); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}
