package client

import (
	"context"
	"smartrentals/pkg/db/sqldb"
	"smartrentals/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client holds the process-wide storage connections. Only the ones the
// configuration asks for are opened.
type Client struct {
	Mongo *MongoClient
	SQL   *sqldb.DB
	Redis *redis.Client
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	c.Mongo = NewMongoClient(log, mongoURI, mongoConnTimeout)
}

func (c *Client) SetSQL(log *logger.Logger, driver, dsn string) {
	db, err := sqldb.Open(driver, dsn)
	if err != nil {
		log.Fatal("Failed to open SQL database", "driver", driver, "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Failed to ping SQL database", "driver", driver, "error", err)
	}

	log.Info("Successfully connected to SQL database", "driver", driver)
	c.SQL = db
}

func (c *Client) SetRedis(log *logger.Logger, addr string, connTimeout time.Duration) {
	c.Redis = NewRedisClient(log, addr, connTimeout)
}

// Ping checks every open store and returns the first failure.
func (c *Client) Ping(ctx context.Context) error {
	if c.Mongo != nil {
		if err := c.Mongo.Client.Ping(ctx, nil); err != nil {
			return err
		}
	}
	if c.SQL != nil {
		if err := c.SQL.PingContext(ctx); err != nil {
			return err
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.Mongo != nil {
		if err := c.Mongo.Client.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}
	if c.SQL != nil {
		if err := c.SQL.Close(); err != nil {
			log.Error("Failed to close SQL database", "error", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}
	log.Info("Storage connections closed")
}
