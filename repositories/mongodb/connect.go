package mongodb

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	errors "waypay/errors"

	// External Packages
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect connects to the mongodb server and returns the client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	timeout := time.Second * 5
	opts := &options.ClientOptions{ServerSelectionTimeout: &timeout}

	client, err := mongo.Connect(ctx, opts.ApplyURI(uri))
	if err != nil {
		return nil, errors.E(errors.Unavailable, "mongo connect failed", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, errors.E(errors.Unavailable, "mongo unreachable", err)
	}
	return client, nil
}
