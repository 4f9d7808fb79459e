package kafka

import (
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts  = 3
	DefaultBatchTimeout = 10 * time.Millisecond
	DefaultRequireAcks  = -1
	DefaultCompression  = "snappy"
)

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	Compression  string // "none", "gzip", "snappy", "lz4", "zstd"
	Async        bool
}

// NewProducerConfig returns a config with the package defaults for everything
// but the brokers and topic.
func NewProducerConfig(brokers []string, topic string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		Topic:        topic,
		MaxAttempts:  DefaultMaxAttempts,
		BatchTimeout: DefaultBatchTimeout,
		RequireAcks:  DefaultRequireAcks,
		Compression:  DefaultCompression,
	}
}

func (c ProducerConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("at least one broker is required")
	}
	for i, broker := range c.Brokers {
		if broker == "" {
			return fmt.Errorf("broker %d cannot be empty", i)
		}
	}
	if c.Topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got: %d", c.MaxAttempts)
	}
	switch c.Compression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("compression must be one of [none, gzip, snappy, lz4, zstd], got: %s", c.Compression)
	}
	switch c.RequireAcks {
	case -1, 0, 1:
	default:
		return fmt.Errorf("require acks must be -1, 0, or 1, got: %d", c.RequireAcks)
	}
	return nil
}
