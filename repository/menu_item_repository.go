package repository

import (
	"context"

	"github.com/Manish-456/eatsy-backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MenuItemRepository defines the interface for menu item data access
type MenuItemRepository interface {
	FindByRestaurantID(ctx context.Context, restaurantID string) ([]models.MenuItem, error)
	FindOne(ctx context.Context, id, restaurantID string) (*models.MenuItem, error)
	InsertMany(ctx context.Context, items []models.MenuItem) error
	Update(ctx context.Context, item models.MenuItem) error
	Delete(ctx context.Context, id, restaurantID string) error
	DeleteByIDs(ctx context.Context, ids []string) error
}

type MongoMenuItemRepository struct {
	collection *mongo.Collection
}

func NewMongoMenuItemRepository(db *mongo.Database) *MongoMenuItemRepository {
	return &MongoMenuItemRepository{collection: db.Collection("menu_items")}
}

func (r *MongoMenuItemRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "restaurantId", Value: 1}},
	})
	return err
}

func (r *MongoMenuItemRepository) FindByRestaurantID(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"restaurantId": restaurantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []models.MenuItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindOne returns the item only if it belongs to restaurantID.
func (r *MongoMenuItemRepository) FindOne(ctx context.Context, id, restaurantID string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "restaurantId": restaurantID}).Decode(&item)
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *MongoMenuItemRepository) InsertMany(ctx context.Context, items []models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, len(items))
	for i := range items {
		docs[i] = items[i]
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return translate(err)
}

func (r *MongoMenuItemRepository) Update(ctx context.Context, item models.MenuItem) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": item.ID, "restaurantId": item.RestaurantID},
		bson.M{"$set": bson.M{"name": item.Name, "price": item.Price}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoMenuItemRepository) Delete(ctx context.Context, id, restaurantID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "restaurantId": restaurantID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoMenuItemRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}
