// Package integration drives the rentals API end to end against a real
// MongoDB. Multi-document transactions need a replica set, e.g.
// TEST_MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0.
package integration

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"smartrentals/internal/migrations/mongo"
	"smartrentals/pkg/app"
	"smartrentals/pkg/client"
	"smartrentals/pkg/config"
	"smartrentals/pkg/middleware"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	ServiceName   = "rentals-integration-tests"
	EnvMongoURI   = "TEST_MONGO_URI"
	jwtSecret     = "integration-secret-0123456789"
	webhookSecret = "integration-webhook-secret"
)

// newRentals serves a freshly migrated database and returns a staff client
// for it. The database is dropped when the test ends.
func newRentals(t *testing.T) *client.RentalsClient {
	t.Helper()
	uri := os.Getenv(EnvMongoURI)
	if uri == "" {
		t.Skipf("%s not set", EnvMongoURI)
	}
	t.Setenv(config.EnvLogLevel, "error")

	cfg := config.FromEnv(ServiceName)
	cfg.StorageDriver = config.StorageMongo
	cfg.MongoURI = uri
	cfg.MongoDatabaseName = "rentals_it_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	cfg.JWTSecret = jwtSecret
	cfg.PaymentWebhookSecret = webhookSecret
	cfg.SettingsFile = filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, cfg.Validate())
	cfg.SetStorage()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, mongo.RunMigration(ctx, cfg.Client.Mongo.Client, cfg.MongoDatabaseName, cfg.Log))

	a, err := app.Build(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())

	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName).Drop(ctx)
		cfg.GracefulShutdown()
	})

	token, err := middleware.GenerateStaffToken(jwtSecret, "integration", middleware.RoleStaff)
	require.NoError(t, err)
	return client.NewRentalsClient(srv.URL,
		client.WithStaffToken(token),
		client.WithWebhookSecret(webhookSecret),
		client.WithHTTPClient(srv.Client()),
	)
}
