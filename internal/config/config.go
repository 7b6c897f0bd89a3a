package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	RedisAddr string
	MySQLDSN  string
	NATSURL   string

	AuthSecret     string
	InitPassphrase string
	CustodyAccount string

	WorkerCount int
	QueueSize   int

	// GenesisUnix anchors tick zero; every deployment sharing state must
	// agree on it.
	GenesisUnix  int64
	TickInterval time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	return &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		MySQLDSN:       getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/cowchain?parseTime=true"),
		NATSURL:        getEnv("NATS_URL", ""),
		AuthSecret:     getEnv("AUTH_SECRET", "dev-secret"),
		InitPassphrase: getEnv("INIT_PASSPHRASE", "y3QKiJ5iq7y9JGAfN23vY8hwXa"),
		CustodyAccount: getEnv("CUSTODY_ACCOUNT", "farm-custody"),
		WorkerCount:    getEnvInt("WORKER_COUNT", 4),
		QueueSize:      getEnvInt("QUEUE_SIZE", 1024),
		GenesisUnix:    int64(getEnvInt("GENESIS_UNIX", 1735689600)),
		TickInterval:   5 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
