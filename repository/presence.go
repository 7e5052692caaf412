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

type PresenceRepo struct {
	MongoCollection *mongo.Collection
}

func GetPresenceRepo(client *mongo.Client) *PresenceRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("PRESENCE_COLLECTION")
	if collectionName == "" {
		collectionName = "presence"
	}
	return &PresenceRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// RecordHeartbeat upserts the caller's presence record: the session joins
// the record's session set and its activity timestamp is refreshed. This is
// the only write path that marks a user online.
func (r *PresenceRepo) RecordHeartbeat(userID, sessionID, deviceLabel string) error {
	timer := utils.TrackDBOperation("upsert", "presence")
	defer timer.ObserveDuration()

	if userID == "" || sessionID == "" {
		utils.TrackError("database", "invalid_heartbeat")
		return fmt.Errorf("invalid heartbeat: missing user or session id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$addToSet": bson.M{"sessions": sessionID},
		"$set": bson.M{
			"session_activity." + sessionID: now,
			"session_devices." + sessionID:  deviceLabel,
			"online":                        true,
			"updated_at":                    now,
		},
	}

	_, err := r.MongoCollection.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		utils.TrackError("database", "heartbeat_write_failed")
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}

	utils.HeartbeatsTotal.Inc()
	return nil
}

// GetRecord fetches one user's presence record, nil if none exists yet.
func (r *PresenceRepo) GetRecord(userID string) (*model.PresenceRecord, error) {
	timer := utils.TrackDBOperation("find", "presence")
	defer timer.ObserveDuration()

	if userID == "" {
		utils.TrackError("database", "empty_user_id")
		return nil, fmt.Errorf("userID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var record model.PresenceRecord
	err := r.MongoCollection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "presence_fetch_failed")
		return nil, fmt.Errorf("failed to fetch presence record: %w", err)
	}

	return &record, nil
}

// GetAllRecords returns every presence record. The purge executor and the
// aggregator both work from this point-in-time snapshot.
func (r *PresenceRepo) GetAllRecords() ([]*model.PresenceRecord, error) {
	timer := utils.TrackDBOperation("find", "presence")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := r.MongoCollection.Find(ctx, bson.M{})
	if err != nil {
		utils.TrackError("database", "presence_fetch_failed")
		return nil, fmt.Errorf("failed to fetch presence records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.PresenceRecord
	if err = cursor.All(ctx, &records); err != nil {
		utils.TrackError("database", "presence_decode_failed")
		return nil, fmt.Errorf("failed to decode presence records: %w", err)
	}

	return records, nil
}

// ApplyRewrites commits one batch of purge rewrites in a single bulk write.
// The batch either commits together or fails together; batching across
// calls is the executor's concern.
func (r *PresenceRepo) ApplyRewrites(rewrites []model.PresenceRewrite) error {
	timer := utils.TrackDBOperation("bulk_update", "presence")
	defer timer.ObserveDuration()

	if len(rewrites) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(rewrites))
	for _, rw := range rewrites {
		sessions := rw.Sessions
		if sessions == nil {
			sessions = []string{}
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"user_id": rw.UserID}).
			SetUpdate(bson.M{"$set": bson.M{
				"sessions":   sessions,
				"online":     rw.Online,
				"updated_at": now,
			}}))
	}

	_, err := r.MongoCollection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		utils.TrackError("database", "purge_batch_failed")
		return fmt.Errorf("failed to apply presence rewrites: %w", err)
	}

	return nil
}
