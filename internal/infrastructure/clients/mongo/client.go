package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	"github.com/pavi2003-eng/healthcare-backend/pkg/config"
	"github.com/pavi2003-eng/healthcare-backend/pkg/retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	CollectionUsers         = "users"
	CollectionPatients      = "patients"
	CollectionDoctors       = "doctors"
	CollectionAppointments  = "appointments"
	CollectionChats         = "chats"
	CollectionMessages      = "messages"
	CollectionNotifications = "notifications"
	CollectionRatings       = "ratings"
)

// Client represents a MongoDB client bound to one database
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewClient connects to MongoDB, pinging with exponential backoff
func NewClient(ctx context.Context, cfg *config.MongoConfig) (*Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(cfg.URI).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	logger := observability.GetLogger()
	err = retry.DoWithLog(ctx, retry.DefaultConfig(), "MongoDB",
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return client.Database("admin").RunCommand(pingCtx, bson.D{{Key: "ping", Value: 1}}).Err()
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("MongoDB connection attempt failed")
		},
	)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB after retries: %w", err)
	}

	logger.Info().Str("database", cfg.Database).Msg("connected to MongoDB")
	return &Client{client: client, db: client.Database(cfg.Database)}, nil
}

// NewClientFromDatabase wraps an already opened database handle. The caller
// keeps ownership of the underlying client.
func NewClientFromDatabase(db *mongo.Database) *Client {
	return &Client{db: db}
}

// Collection returns a handle to a collection of the configured database
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// EnsureIndexes creates the indexes the repositories rely on
func (c *Client) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionAppointments: {
			{Keys: bson.D{{Key: "appointmentId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "appointmentDate", Value: 1}}},
			{Keys: bson.D{{Key: "doctorId", Value: 1}}},
			{Keys: bson.D{{Key: "patientId", Value: 1}}},
		},
		CollectionChats: {
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "patientId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionMessages: {
			{Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		CollectionNotifications: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CollectionRatings: {
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "doctorId", Value: 1}}},
			{Keys: bson.D{{Key: "patientId", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := c.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

// Close disconnects from MongoDB
func (c *Client) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}

// Ping verifies the connection to MongoDB
func (c *Client) Ping(ctx context.Context) error {
	return c.db.Client().Ping(ctx, nil)
}
