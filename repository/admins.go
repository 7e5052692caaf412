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
)

type AdminRepo struct {
	MongoCollection *mongo.Collection
}

func GetAdminRepo(client *mongo.Client) *AdminRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("ADMINS_COLLECTION")
	if collectionName == "" {
		collectionName = "admins"
	}
	return &AdminRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// FindAdmin returns the admin identity for userID, nil if unknown.
func (r *AdminRepo) FindAdmin(userID string) (*model.AdminUser, error) {
	timer := utils.TrackDBOperation("find", "admins")
	defer timer.ObserveDuration()

	if userID == "" {
		utils.TrackError("database", "empty_user_id")
		return nil, fmt.Errorf("userID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var admin model.AdminUser
	err := r.MongoCollection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&admin)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "admin_fetch_failed")
		return nil, fmt.Errorf("failed to fetch admin: %w", err)
	}

	return &admin, nil
}

// ListAdmins returns every admin identity, for joining against presence.
func (r *AdminRepo) ListAdmins() ([]*model.AdminUser, error) {
	timer := utils.TrackDBOperation("find", "admins")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := r.MongoCollection.Find(ctx, bson.M{})
	if err != nil {
		utils.TrackError("database", "admin_fetch_failed")
		return nil, fmt.Errorf("failed to fetch admins: %w", err)
	}
	defer cursor.Close(ctx)

	var admins []*model.AdminUser
	if err = cursor.All(ctx, &admins); err != nil {
		utils.TrackError("database", "admin_decode_failed")
		return nil, fmt.Errorf("failed to decode admins: %w", err)
	}

	return admins, nil
}
