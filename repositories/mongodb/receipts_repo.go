package mongodb

import (
	// Go Internal Packages
	"context"

	// Local Packages
	models "waypay/models"

	// External Packages
	"go.mongodb.org/mongo-driver/mongo"
)

type ReceiptRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewReceiptRepository(client *mongo.Client) *ReceiptRepository {
	return &ReceiptRepository{client: client, database: "waypay", collection: "receipts"}
}

// InsertReceipt archives a confirmed transaction. The txRef is the
// document id, so re-archiving the same confirmation is a duplicate-key
// error the caller may ignore.
func (r *ReceiptRepository) InsertReceipt(ctx context.Context, receipt models.MongoReceipt) error {
	collection := r.client.Database(r.database).Collection(r.collection)
	_, err := collection.InsertOne(ctx, receipt)
	if err != nil {
		return err
	}
	return nil
}
