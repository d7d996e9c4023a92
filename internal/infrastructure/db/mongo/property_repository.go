package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

const collectionProperties = "properties"

// PropertyRepository implements ports.PropertyRepository using MongoDB.
type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection(collectionProperties)}
}

// List applies the filters and returns matches newest first.
func (r *PropertyRepository) List(ctx context.Context, f ports.PropertyFilter) ([]*domain.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit)).SetSkip(int64(f.Offset))
	}

	cur, err := r.col.Find(ctx, listFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find properties: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]*domain.Property, 0)
	for cur.Next(ctx) {
		var p domain.Property
		if err := cur.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode property: %w", err)
		}
		out = append(out, normalize(&p))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return out, nil
}

func listFilter(f ports.PropertyFilter) bson.M {
	filter := bson.M{}
	price := bson.M{}
	if f.MinPrice > 0 {
		price["$gte"] = f.MinPrice
	}
	if f.MaxPrice > 0 {
		price["$lte"] = f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if f.MinBedrooms > 0 {
		filter["bedrooms"] = bson.M{"$gte": f.MinBedrooms}
	}
	if f.Neighborhood != "" {
		filter["neighborhood"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Neighborhood), Options: "i"}
	}
	if f.PropertyType != "" {
		filter["property_type"] = string(f.PropertyType)
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	return filter
}

func (r *PropertyRepository) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Property
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return normalize(&p), nil
}

func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := *p
	if doc.Images == nil {
		doc.Images = []string{}
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

// Update sets only the patched fields. owner_id is never written.
func (r *PropertyRepository) Update(ctx context.Context, id string, patch domain.PropertyPatch) (*domain.Property, error) {
	set := patchSet(patch)
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}
	set["updated_at"] = time.Now().UTC()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Property
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("update property: %w", err)
	}
	return normalize(&p), nil
}

func patchSet(p domain.PropertyPatch) bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
		set["slug"] = domain.NewSlug(*p.Title)
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.City != nil {
		set["city"] = *p.City
	}
	if p.Neighborhood != nil {
		set["neighborhood"] = *p.Neighborhood
	}
	if p.Bedrooms != nil {
		set["bedrooms"] = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		set["bathrooms"] = *p.Bathrooms
	}
	if p.Area != nil {
		set["area"] = *p.Area
	}
	if p.Images != nil {
		images := *p.Images
		if images == nil {
			images = []string{}
		}
		set["images"] = images
	}
	if p.PropertyType != nil {
		set["property_type"] = string(*p.PropertyType)
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.MaintenanceFee != nil {
		set["maintenance_fee"] = *p.MaintenanceFee
	}
	if p.Requirements != nil {
		set["requirements"] = *p.Requirements
	}
	if p.ContactInfo != nil {
		set["contact_info"] = *p.ContactInfo
	}
	if p.LocationCoordinates != nil {
		set["location_coordinates"] = *p.LocationCoordinates
	}
	return set
}

func (r *PropertyRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete property: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// ToggleStatus flips the status with an update pipeline, evaluated atomically
// on the server.
func (r *PropertyRepository) ToggleStatus(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, toggleStatusPipeline(time.Now().UTC()))
	if err != nil {
		return false, fmt.Errorf("toggle property status: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func toggleStatusPipeline(now time.Time) mongo.Pipeline {
	flip := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$status", string(domain.StatusActive)}}},
		string(domain.StatusPaused),
		string(domain.StatusActive),
	}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: flip},
			{Key: "updated_at", Value: now},
		}}},
	}
}

// EnsureIndexes creates necessary indexes on the properties collection.
func (r *PropertyRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func normalize(p *domain.Property) *domain.Property {
	if p.Images == nil {
		p.Images = []string{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p
}
