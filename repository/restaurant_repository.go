package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/Manish-456/eatsy-backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SearchPageSize is the number of restaurants per search page.
const SearchPageSize = 10

// MaxSearchPage bounds the page number so the skip offset cannot overflow.
const MaxSearchPage = 100_000

// sortFields maps public sort options to document fields.
var sortFields = map[string]string{
	"lastUpdated":           "updatedAt",
	"deliveryPrice":         "deliveryPrice",
	"estimatedDeliveryTime": "estimatedDeliveryTime",
}

// RestaurantRepository defines the interface for restaurant data access
type RestaurantRepository interface {
	FindByID(ctx context.Context, id string) (*models.Restaurant, error)
	FindByUserID(ctx context.Context, userID string) (*models.Restaurant, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Restaurant, error)
	Create(ctx context.Context, restaurant *models.Restaurant) error
	Update(ctx context.Context, restaurant *models.Restaurant) error
	ClearImage(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountByCity(ctx context.Context, city string) (int64, error)
	Search(ctx context.Context, params models.SearchParams) ([]models.Restaurant, int64, error)
}

type MongoRestaurantRepository struct {
	collection *mongo.Collection
}

func NewMongoRestaurantRepository(db *mongo.Database) *MongoRestaurantRepository {
	return &MongoRestaurantRepository{collection: db.Collection("restaurants")}
}

// EnsureIndexes enforces one restaurant per owner in the store itself and
// indexes the search entry point.
func (r *MongoRestaurantRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "city", Value: 1}}},
	})
	return err
}

func (r *MongoRestaurantRepository) FindByID(ctx context.Context, id string) (*models.Restaurant, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRestaurantRepository) FindByUserID(ctx context.Context, userID string) (*models.Restaurant, error) {
	return r.findOne(ctx, bson.M{"user": userID})
}

func (r *MongoRestaurantRepository) findOne(ctx context.Context, filter bson.M) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.collection.FindOne(ctx, filter).Decode(&restaurant); err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

func (r *MongoRestaurantRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Restaurant, error) {
	if len(ids) == 0 {
		return []models.Restaurant{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (r *MongoRestaurantRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Restaurant, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	restaurants := []models.Restaurant{}
	if err := cursor.All(ctx, &restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// Create inserts the restaurant. A second restaurant for the same owner is
// rejected by the unique index with ErrDuplicate.
func (r *MongoRestaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	now := time.Now().UTC()
	restaurant.CreatedAt, restaurant.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, restaurant)
	return translate(err)
}

// Update replaces the stored document, keeping owner and creation time.
func (r *MongoRestaurantRepository) Update(ctx context.Context, restaurant *models.Restaurant) error {
	restaurant.UpdatedAt = time.Now().UTC()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": restaurant.ID}, bson.M{"$set": bson.M{
		"name":                  restaurant.Name,
		"city":                  restaurant.City,
		"country":               restaurant.Country,
		"description":           restaurant.Description,
		"deliveryPrice":         restaurant.DeliveryPrice,
		"estimatedDeliveryTime": restaurant.EstimatedDeliveryTime,
		"cuisines":              restaurant.Cuisines,
		"imageUrl":              restaurant.ImageURL,
		"publicId":              restaurant.PublicID,
		"updatedAt":             restaurant.UpdatedAt,
	}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearImage drops both image references in one write.
func (r *MongoRestaurantRepository) ClearImage(ctx context.Context, id string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"imageUrl": "", "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"publicId": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRestaurantRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoRestaurantRepository) CountByCity(ctx context.Context, city string) (int64, error) {
	return r.collection.CountDocuments(ctx, cityFilter(city))
}

// Search applies the public filters and returns one page plus the total
// number of matches.
func (r *MongoRestaurantRepository) Search(ctx context.Context, params models.SearchParams) ([]models.Restaurant, int64, error) {
	filter := searchFilter(params)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	sortField, ok := sortFields[params.SortOption]
	if !ok {
		sortField = sortFields["lastUpdated"]
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(searchSkip(params.Page)).
		SetLimit(SearchPageSize)

	restaurants, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return restaurants, total, nil
}

func searchSkip(page int) int64 {
	switch {
	case page < 1:
		page = 1
	case page > MaxSearchPage:
		page = MaxSearchPage
	}
	return int64(page-1) * SearchPageSize
}

// searchFilter matches the city exactly, every selected cuisine exactly and
// the free text anywhere in the name or a cuisine, all case-insensitively.
func searchFilter(params models.SearchParams) bson.M {
	filter := cityFilter(params.City)

	if len(params.SelectedCuisines) > 0 {
		all := make(bson.A, 0, len(params.SelectedCuisines))
		for _, c := range params.SelectedCuisines {
			all = append(all, primitive.Regex{Pattern: "^" + regexp.QuoteMeta(c) + "$", Options: "i"})
		}
		filter["cuisines"] = bson.M{"$all": all}
	}

	if params.SearchQuery != "" {
		q := primitive.Regex{Pattern: regexp.QuoteMeta(params.SearchQuery), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": q},
			bson.M{"cuisines": bson.M{"$in": bson.A{q}}},
		}
	}
	return filter
}

func cityFilter(city string) bson.M {
	return bson.M{"city": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(city) + "$", Options: "i"}}
}
