package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AttackAlertRepo struct {
	MongoCollection *mongo.Collection
}

func GetAttackAlertRepo(client *mongo.Client) *AttackAlertRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("ATTACK_ALERTS_COLLECTION")
	if collectionName == "" {
		collectionName = "attack_alerts"
	}
	return &AttackAlertRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// ListAlerts returns the newest alerts first. Alerts are created by the
// external detection process; this service never inserts them.
func (r *AttackAlertRepo) ListAlerts(limit int64) ([]*model.AttackAlert, error) {
	timer := utils.TrackDBOperation("find", "attack_alerts")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"timestamp": -1})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := r.MongoCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		utils.TrackError("database", "alert_fetch_failed")
		return nil, fmt.Errorf("failed to fetch attack alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var alerts []*model.AttackAlert
	if err = cursor.All(ctx, &alerts); err != nil {
		utils.TrackError("database", "alert_decode_failed")
		return nil, fmt.Errorf("failed to decode attack alerts: %w", err)
	}

	return alerts, nil
}

// AcknowledgeAlert stamps the actor and time onto an unacknowledged alert.
// Returns false when the alert does not exist or was already acknowledged.
func (r *AttackAlertRepo) AcknowledgeAlert(alertID, actorID string) (bool, error) {
	timer := utils.TrackDBOperation("update", "attack_alerts")
	defer timer.ObserveDuration()

	if alertID == "" || actorID == "" {
		utils.TrackError("database", "invalid_alert_ack")
		return false, fmt.Errorf("alertID and actorID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	result, err := r.MongoCollection.UpdateOne(
		ctx,
		bson.M{"alert_id": alertID, "acknowledged": false},
		bson.M{"$set": bson.M{
			"acknowledged":    true,
			"acknowledged_by": actorID,
			"acknowledged_at": now,
		}},
	)
	if err != nil {
		utils.TrackError("database", "alert_ack_failed")
		return false, fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	return result.ModifiedCount > 0, nil
}

// IsAcknowledged reports whether an alert exists and has been acknowledged.
func (r *AttackAlertRepo) IsAcknowledged(alertID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var alert model.AttackAlert
	err := r.MongoCollection.FindOne(ctx, bson.M{"alert_id": alertID}).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, fmt.Errorf("alert not found")
		}
		return false, fmt.Errorf("failed to fetch alert: %w", err)
	}
	return alert.Acknowledged, nil
}
