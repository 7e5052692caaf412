package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/mongo"
)

type AuditRepo struct {
	MongoCollection *mongo.Collection
}

func GetAuditRepo(client *mongo.Client) *AuditRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("AUDIT_COLLECTION")
	if collectionName == "" {
		collectionName = "audit_log"
	}
	return &AuditRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// InsertEvent appends one audit entry. Callers reach this only through the
// audit sink's drain goroutine, so a failure here never surfaces to the
// operation that produced the event.
func (r *AuditRepo) InsertEvent(event *model.AuditEvent) error {
	timer := utils.TrackDBOperation("insert", "audit_log")
	defer timer.ObserveDuration()

	if event == nil {
		utils.TrackError("database", "nil_audit_event")
		return fmt.Errorf("audit event cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.MongoCollection.InsertOne(ctx, event); err != nil {
		utils.TrackError("database", "audit_write_failed")
		return fmt.Errorf("failed to write audit event: %w", err)
	}

	return nil
}
