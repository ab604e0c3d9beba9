package auditRepo

import (
	"context"
	"fmt"
	"time"

	"babyspa/database"
	"babyspa/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type MongoAuditRepo struct {
	coll *mongo.Collection
}

func NewMongoAuditRepo() *MongoAuditRepo {
	return &MongoAuditRepo{coll: database.Collection("audit_log")}
}

func (r *MongoAuditRepo) Record(ctx context.Context, event models.AuditEvent) error {
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}
