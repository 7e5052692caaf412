package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	presenceCollection := db.Collection("presence")
	adminsCollection := db.Collection("admins")
	alertsCollection := db.Collection("attack_alerts")
	auditCollection := db.Collection("audit_log")

	presenceIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("presence_user_id").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "online", Value: 1}},
			Options: options.Index().
				SetName("presence_online"),
		},
	}

	adminIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("admin_user_id").
				SetUnique(true),
		},
	}

	alertIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "alert_id", Value: 1}},
			Options: options.Index().
				SetName("alert_id_index").
				SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "acknowledged", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().
				SetName("alert_ack_time"),
		},
	}

	auditIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "kind", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().
				SetName("audit_kind_time"),
		},
	}

	if _, err := presenceCollection.Indexes().CreateMany(ctx, presenceIndexes); err != nil {
		return fmt.Errorf("failed to create presence indexes: %w", err)
	}
	if _, err := adminsCollection.Indexes().CreateMany(ctx, adminIndexes); err != nil {
		return fmt.Errorf("failed to create admin indexes: %w", err)
	}
	if _, err := alertsCollection.Indexes().CreateMany(ctx, alertIndexes); err != nil {
		return fmt.Errorf("failed to create attack alert indexes: %w", err)
	}
	if _, err := auditCollection.Indexes().CreateMany(ctx, auditIndexes); err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}

	log.Println("MongoDB indexes created")
	return nil
}
