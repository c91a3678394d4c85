// Package mongodb is the MongoDB implementation of the storage contracts:
// a Cluster that owns the single client for the process lifetime, and the
// student data-access functions that run one store call each.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Database and collection names are fixed for this deployment.
const (
	DatabaseName           = "school"
	StudentsCollectionName = "students"
)

var errNotStarted = errors.New("cluster is not started")

var _ storage.Collection = (*mongo.Collection)(nil)

// Cluster owns the one long-lived *mongo.Client. The client pools
// connections internally and is safe for concurrent use, so the handle is
// shared by every request without extra locking.
type Cluster struct {
	uri    string
	log    *zap.Logger
	client *mongo.Client
}

// NewCluster prepares a Cluster for uri. No connection is made until Start.
func NewCluster(uri string, log *zap.Logger) *Cluster {
	return &Cluster{uri: uri, log: log}
}

// Start connects to the cluster and pings the admin database. A failed
// ping aborts startup with the driver error attached.
func (c *Cluster) Start(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.uri))
	if err != nil {
		return fmt.Errorf("mongodb.Start: connect: %w", err)
	}

	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("mongodb.Start: failed to connect to MongoDB: %w", err)
	}

	c.client = client
	c.log.Info("connected to MongoDB cluster",
		zap.String("database", DatabaseName),
		zap.String("collection", StudentsCollectionName),
	)

	return nil
}

// Stop disconnects the client. It is called once, at shutdown.
func (c *Cluster) Stop(ctx context.Context) error {
	if c.client == nil {
		return errNotStarted
	}

	c.log.Info("closing connection to cluster")
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongodb.Stop: disconnect: %w", err)
	}

	return nil
}

// Database returns the whole school database, for callers that need
// database-level operations.
func (c *Cluster) Database() *mongo.Database {
	return c.client.Database(DatabaseName)
}

// Students returns the students collection. It implements storage.Provider.
func (c *Cluster) Students() storage.Collection {
	return c.Database().Collection(StudentsCollectionName)
}
