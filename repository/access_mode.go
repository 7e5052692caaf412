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

type AccessModeRepo struct {
	MongoCollection *mongo.Collection
}

func GetAccessModeRepo(client *mongo.Client) *AccessModeRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("ACCESS_MODE_COLLECTION")
	if collectionName == "" {
		collectionName = "access_mode"
	}
	return &AccessModeRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// GetAccessMode returns the singleton access mode record, creating the
// default normal-mode record on first read.
func (r *AccessModeRepo) GetAccessMode() (*model.AccessMode, error) {
	timer := utils.TrackDBOperation("find", "access_mode")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mode model.AccessMode
	err := r.MongoCollection.FindOne(ctx, bson.M{"_id": model.AccessModeDocID}).Decode(&mode)
	if err == nil {
		return &mode, nil
	}
	if err != mongo.ErrNoDocuments {
		utils.TrackError("database", "access_mode_fetch_failed")
		return nil, fmt.Errorf("failed to fetch access mode: %w", err)
	}

	def := model.DefaultAccessMode()
	def.UpdatedAt = time.Now()
	if _, err := r.MongoCollection.InsertOne(ctx, def); err != nil {
		// A concurrent reader may have inserted it first; re-read wins.
		if mongo.IsDuplicateKeyError(err) {
			if err := r.MongoCollection.FindOne(ctx, bson.M{"_id": model.AccessModeDocID}).Decode(&mode); err == nil {
				return &mode, nil
			}
		}
		utils.TrackError("database", "access_mode_init_failed")
		return nil, fmt.Errorf("failed to initialize access mode: %w", err)
	}

	return def, nil
}

// SetAccessMode replaces the singleton record. Last write wins across
// concurrent administrators.
func (r *AccessModeRepo) SetAccessMode(mode *model.AccessMode) error {
	timer := utils.TrackDBOperation("replace", "access_mode")
	defer timer.ObserveDuration()

	if mode == nil {
		utils.TrackError("database", "nil_access_mode")
		return fmt.Errorf("access mode cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mode.ID = model.AccessModeDocID
	mode.UpdatedAt = time.Now()

	_, err := r.MongoCollection.ReplaceOne(
		ctx,
		bson.M{"_id": model.AccessModeDocID},
		mode,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		utils.TrackError("database", "access_mode_write_failed")
		return fmt.Errorf("failed to write access mode: %w", err)
	}

	return nil
}
