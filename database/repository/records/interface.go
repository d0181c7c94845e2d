package recordsRepo

import (
	"context"

	"glowdesk/database"
	"glowdesk/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// OrderRecordRepository archives finalized orders for later lookup.
type OrderRecordRepository interface {
	Create(ctx context.Context, record models.OrderRecord) (string, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.OrderRecord, error)
	GetByCustomerID(ctx context.Context, customerID string) ([]models.OrderRecord, error)
	DeleteByID(ctx context.Context, id string) error
}

type mongoRecordRepo struct {
	coll *mongo.Collection
}

// NewMongoRecordRepo returns a new OrderRecordRepository instance using MongoDB.
func NewMongoRecordRepo() OrderRecordRepository {
	db := database.MongoClient.Database("glowdesk")
	return &mongoRecordRepo{
		coll: db.Collection("order_records"),
	}
}
