package client

import (
	"context"
	"smartrentals/pkg/logger"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const mongoAppName = "smartrentals"

// MongoClient is the document store behind the catalog, the reservation
// ledger and orders when the Mongo driver is configured.
type MongoClient struct {
	Client *mongo.Client
}

// NewMongoClient connects and refuses to start against a standalone server.
// Orders book their reservations in multi-document transactions, which only
// replica sets and sharded clusters support.
func NewMongoClient(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) *MongoClient {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, mongoOptions(mongoURI, mongoConnTimeout))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	var hello mongoHello
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}
	if !hello.supportsTransactions() {
		log.Fatal("MongoDB deployment cannot run booking transactions; use a replica set or sharded cluster")
	}

	log.Info("Successfully connected to MongoDB", "replica_set", hello.SetName, "sharded", hello.Msg == mongosMsg)
	return &MongoClient{Client: client}
}

// mongoOptions reads and writes at majority so a confirmed booking survives
// a primary failover.
func mongoOptions(uri string, connTimeout time.Duration) *options.ClientOptions {
	return options.Client().
		ApplyURI(uri).
		SetAppName(mongoAppName).
		SetConnectTimeout(connTimeout).
		SetServerSelectionTimeout(connTimeout).
		SetRetryWrites(true).
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())
}

const mongosMsg = "isdbgrid"

// mongoHello holds the fields of the hello reply that tell the topology.
type mongoHello struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

func (h mongoHello) supportsTransactions() bool {
	return h.SetName != "" || h.Msg == mongosMsg
}
