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

type categoryDocument struct {
	ID           string    `bson:"_id"`
	CategoryName string    `bson:"categoryName"`
	Images       []string  `bson:"images"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d *categoryDocument) toDomain() (*domain.Category, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid category id %q: %w", d.ID, err)
	}
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &domain.Category{
		ID:           id,
		CategoryName: d.CategoryName,
		Images:       images,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

type categoryRepository struct {
	categories *mongo.Collection
	products   *mongo.Collection
}

// NewCategoryRepository creates a category repository backed by db
func NewCategoryRepository(db *mongo.Database) repository.CategoryRepository {
	return &categoryRepository{
		categories: db.Collection(categoriesCollection),
		products:   db.Collection(productsCollection),
	}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if category.Images == nil {
		category.Images = []string{}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := categoryDocument{
		ID:           category.ID.String(),
		CategoryName: category.CategoryName,
		Images:       category.Images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.categories.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	category.CreatedAt = now
	category.UpdatedAt = now
	return nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "categoryName", Value: 1}})

	cursor, err := r.categories.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := []*domain.Category{}
	for cursor.Next(ctx) {
		var doc categoryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode category: %w", err)
		}
		category, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var doc categoryDocument
	err := r.categories.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}
	return doc.toDomain()
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.categories.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrCategoryNotFound
	}
	return nil
}

func (r *categoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	count, err := r.products.CountDocuments(ctx, bson.D{{Key: "category", Value: id.String()}})
	if err != nil {
		return 0, fmt.Errorf("failed to count category products: %w", err)
	}
	return int(count), nil
}
