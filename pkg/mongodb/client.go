package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client represents a connection to a MongoDB deployment, pinned to the
// database being patched.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a connection to the deployment at uri and verifies it with
// a ping against the primary.
//
// Example:
//
//	client, err := mongodb.Connect(ctx, "mongodb://localhost:27017", "app")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	db := client.Database()
func Connect(ctx context.Context, uri, database string) (*Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", uri)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrapf(err, "failed to ping %s", uri)
	}

	return &Client{client: client, db: client.Database(database)}, nil
}

// Database returns the handle of the database being patched. Fixes receive
// this handle during patch application.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Close disconnects from the deployment.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
