package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grocery-catalog/internal/domain"
	"grocery-catalog/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID          string    `bson:"_id"`
	ProductName string    `bson:"productName"`
	Description string    `bson:"description"`
	Category    string    `bson:"category"`
	Unit        string    `bson:"unit"`
	Price       float64   `bson:"price"`
	OldPrice    *float64  `bson:"oldPrice,omitempty"`
	Discount    float64   `bson:"discount"`
	Images      []string  `bson:"images"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`

	// Populated by the $lookup stage only.
	Resolved []categoryDocument `bson:"resolved,omitempty"`
}

func newProductDocument(p *domain.Product) productDocument {
	return productDocument{
		ID:          p.ID.String(),
		ProductName: p.ProductName,
		Description: p.Description,
		Category:    p.CategoryID.String(),
		Unit:        p.Unit,
		Price:       p.Price,
		OldPrice:    p.OldPrice,
		Discount:    p.Discount,
		Images:      p.Images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d *productDocument) toDomain() (*domain.Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id %q: %w", d.ID, err)
	}
	categoryID, err := uuid.Parse(d.Category)
	if err != nil {
		return nil, fmt.Errorf("invalid category reference %q: %w", d.Category, err)
	}

	images := d.Images
	if images == nil {
		images = []string{}
	}

	product := &domain.Product{
		ID:          id,
		ProductName: d.ProductName,
		Description: d.Description,
		CategoryID:  categoryID,
		Unit:        d.Unit,
		Price:       d.Price,
		OldPrice:    d.OldPrice,
		Discount:    d.Discount,
		Images:      images,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}

	if len(d.Resolved) > 0 {
		category, err := d.Resolved[0].toDomain()
		if err != nil {
			return nil, err
		}
		product.Category = category
	}

	return product, nil
}

type productRepository struct {
	products *mongo.Collection
}

// NewProductRepository creates a product repository backed by db
func NewProductRepository(db *mongo.Database) repository.ProductRepository {
	return &productRepository{products: db.Collection(productsCollection)}
}

func lookupCategory() bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: categoriesCollection},
		{Key: "localField", Value: "category"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "resolved"},
	}}}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.products.InsertOne(ctx, newProductDocument(product)); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	if product.Images == nil {
		product.Images = []string{}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	set := bson.D{
		{Key: "productName", Value: product.ProductName},
		{Key: "description", Value: product.Description},
		{Key: "category", Value: product.CategoryID.String()},
		{Key: "unit", Value: product.Unit},
		{Key: "price", Value: product.Price},
		{Key: "discount", Value: product.Discount},
		{Key: "images", Value: product.Images},
		{Key: "updatedAt", Value: now},
	}

	update := bson.D{}
	if product.OldPrice != nil {
		set = append(set, bson.E{Key: "oldPrice", Value: *product.OldPrice})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "oldPrice", Value: ""}}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	err := r.products.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: product.ID.String()}}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	product.CreatedAt = doc.CreatedAt
	product.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.products.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: id.String()}}}},
		lookupCategory(),
	}

	products, err := r.aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	if len(products) == 0 {
		return nil, repository.ErrProductNotFound
	}

	return products[0], nil
}

func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}},
		lookupCategory(),
	}

	products, err := r.aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (r *productRepository) DeleteByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	result, err := r.products.DeleteMany(ctx, bson.D{{Key: "category", Value: categoryID.String()}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete category products: %w", err)
	}
	return int(result.DeletedCount), nil
}

func (r *productRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*domain.Product, error) {
	cursor, err := r.products.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []*domain.Product{}
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		product, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
