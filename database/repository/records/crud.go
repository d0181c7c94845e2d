package recordsRepo

import (
	"context"
	"errors"
	"time"

	"glowdesk/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a new order record and returns its ID.
func (r *mongoRecordRepo) Create(ctx context.Context, record models.OrderRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	_, err := r.coll.InsertOne(ctx, record)
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

// GetByOrderID returns the archived record for a POS order id.
func (r *mongoRecordRepo) GetByOrderID(ctx context.Context, orderID string) (*models.OrderRecord, error) {
	var record models.OrderRecord
	err := r.coll.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByCustomerID fetches all archived orders for a customer, newest first.
func (r *mongoRecordRepo) GetByCustomerID(ctx context.Context, customerID string) ([]models.OrderRecord, error) {
	opts := options.Find().SetSort(bson.D{primitive.E{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"customerId": customerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.OrderRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteByID removes an archived record by ID.
func (r *mongoRecordRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errors.New("record not found")
	}
	return nil
}
