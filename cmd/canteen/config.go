package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	storagePostgres = "postgres"
	storageMemory   = "memory"
)

type Config struct {
	endpoint       string
	dsn            string
	storage        string
	storageTimeout time.Duration
	cancelWindow   time.Duration
	logLevel       string
	env            string
	authSecretKey  string
	webhookSecret  string
	creditWorkers  int
	creditQueue    int
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

func durationFromEnv(name string, value *time.Duration) {
	raw := os.Getenv(name)
	if raw == "" {
		return
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("%s has invalid duration %q: %s", name, raw, err)
	}
	*value = d
}

func intFromEnv(name string, value *int) {
	raw := os.Getenv(name)
	if raw == "" {
		return
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("%s has invalid number %q: %s", name, raw, err)
	}
	*value = n
}

// NewConfig читает флаги, затем переменные окружения (в том числе из .env). Окружение приоритетнее флагов.
func NewConfig() Config {
	// .env необязателен
	_ = godotenv.Load()

	var config Config

	flag.StringVar(&config.endpoint, "a", "localhost:8090", "address and port to run server")
	flag.StringVar(&config.dsn, "d", "", "data source name for database connection")
	flag.StringVar(&config.storage, "storage", storagePostgres, "storage backend: postgres or memory")
	flag.DurationVar(&config.storageTimeout, "storage-timeout", 5*time.Second, "timeout of a single storage call")
	flag.DurationVar(&config.cancelWindow, "cancel-window", time.Hour, "time after placement when an order can be canceled")
	flag.IntVar(&config.creditWorkers, "workers", 2, "number of top-up credit workers")
	flag.IntVar(&config.creditQueue, "queue", 100, "capacity of top-up credit queue")
	flag.Parse()

	if address := os.Getenv("RUN_ADDRESS"); address != "" {
		config.endpoint = address
	}

	if d := os.Getenv("DATABASE_URI"); d != "" {
		config.dsn = d
	}

	if s := os.Getenv("STORAGE"); s != "" {
		config.storage = s
	}

	durationFromEnv("STORAGE_TIMEOUT", &config.storageTimeout)
	durationFromEnv("CANCEL_WINDOW", &config.cancelWindow)
	intFromEnv("CREDIT_WORKERS", &config.creditWorkers)
	intFromEnv("CREDIT_QUEUE_SIZE", &config.creditQueue)

	if l := os.Getenv("LOG_LEVEL"); l != "" {
		config.logLevel = l
	} else {
		config.logLevel = "error"
	}

	if e := os.Getenv("ENV"); e != "" {
		config.env = e
	} else {
		config.env = "production"
	}

	if secret := os.Getenv("AUTH_SECRET_KEY"); secret != "" {
		config.authSecretKey = secret
	} else {
		if config.env == "production" {
			config.authSecretKey = generateRandomString(10)
			log.Printf("WARNING: AUTH_SECRET_KEY has to be defined for production environment\n")
		} else {
			config.authSecretKey = "development-key"
		}
	}

	config.webhookSecret = os.Getenv("WEBHOOK_SECRET")
	if config.webhookSecret == "" {
		log.Printf("WARNING: WEBHOOK_SECRET is empty, payment webhooks will be rejected\n")
	}

	if config.storage != storagePostgres && config.storage != storageMemory {
		log.Fatalf("Unknown storage %q, expected %s or %s", config.storage, storagePostgres, storageMemory)
	}

	return config
}
