package config

import "time"

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

const (
	DefaultStorageDriver = StorageSQLite

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "smartrentals"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultSQLDSN = "file:smartrentals.db"

	DefaultKafkaOrdersTopic = "rental-orders"

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPendingOrderTTL  = 2 * time.Hour
	DefaultExpireOrdersCron = "0 */5 * * * *"

	DefaultSettingsFile = "data/settings.json"
	DefaultCurrency     = "USD"

	DefaultPaginationLimit = 100
)
