package mongostore

import (
	"context"
	"log"
	"os"
	"testing"

	"grocery-catalog/internal/config"
	"grocery-catalog/internal/domain"
	"grocery-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
)

var testMongo *mongo.Database

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		log.Fatalf("could not start mongo container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		log.Fatalf("could not read mongo connection string: %v", err)
	}

	client, err := Connect(ctx, config.MongoConfig{URI: uri, Database: "catalog_test"})
	if err != nil {
		log.Fatalf("could not connect to mongo: %v", err)
	}

	testMongo = client.Database("catalog_test")
	if err := EnsureIndexes(ctx, testMongo); err != nil {
		log.Fatalf("could not create indexes: %v", err)
	}

	code := m.Run()

	_ = client.Disconnect(ctx)
	if err := container.Terminate(ctx); err != nil {
		log.Fatalf("could not teardown mongo container: %v", err)
	}

	os.Exit(code)
}

func resetCollections(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := testMongo.Collection(productsCollection).DeleteMany(ctx, map[string]any{})
	require.NoError(t, err)
	_, err = testMongo.Collection(categoriesCollection).DeleteMany(ctx, map[string]any{})
	require.NoError(t, err)
}

func TestCategoryRepository_Lifecycle(t *testing.T) {
	resetCollections(t)
	ctx := context.Background()
	repo := NewCategoryRepository(testMongo)

	dairy := &domain.Category{CategoryName: "Dairy", Images: []string{"d.png"}}
	require.NoError(t, repo.Create(ctx, dairy))
	require.NotEqual(t, uuid.Nil, dairy.ID)
	require.NoError(t, repo.Create(ctx, &domain.Category{CategoryName: "Bakery"}))

	err := repo.Create(ctx, &domain.Category{CategoryName: "Dairy"})
	require.ErrorIs(t, err, repository.ErrCategoryAlreadyExists)

	categories, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	require.Equal(t, "Bakery", categories[0].CategoryName)
	require.Equal(t, "Dairy", categories[1].CategoryName)

	found, err := repo.FindByID(ctx, dairy.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"d.png"}, found.Images)

	require.NoError(t, repo.Delete(ctx, dairy.ID))
	_, err = repo.FindByID(ctx, dairy.ID)
	require.ErrorIs(t, err, repository.ErrCategoryNotFound)
	require.ErrorIs(t, repo.Delete(ctx, dairy.ID), repository.ErrCategoryNotFound)
}

func TestProductRepository_CreateFindAndList(t *testing.T) {
	resetCollections(t)
	ctx := context.Background()
	categories := NewCategoryRepository(testMongo)
	products := NewProductRepository(testMongo)

	dairy := &domain.Category{CategoryName: "Dairy", Images: []string{"d.png"}}
	require.NoError(t, categories.Create(ctx, dairy))

	oldPrice := 100.0
	milk := &domain.Product{
		ProductName: "Milk",
		CategoryID:  dairy.ID,
		Unit:        "litre",
		Price:       90,
		OldPrice:    &oldPrice,
		Discount:    10,
		Images:      []string{"milk.jpg"},
	}
	require.NoError(t, products.Create(ctx, milk))
	require.False(t, milk.CreatedAt.IsZero())

	found, err := products.FindByID(ctx, milk.ID)
	require.NoError(t, err)
	require.Equal(t, 90.0, found.Price)
	require.NotNil(t, found.OldPrice)
	require.Equal(t, 100.0, *found.OldPrice)
	require.NotNil(t, found.Category)
	require.Equal(t, "Dairy", found.Category.CategoryName)

	require.NoError(t, products.Create(ctx, &domain.Product{
		ProductName: "Butter",
		CategoryID:  dairy.ID,
		Unit:        "each",
		Price:       3.5,
		Images:      []string{"butter.jpg"},
	}))

	list, err := products.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, p := range list {
		require.NotNil(t, p.Category)
		require.Equal(t, dairy.ID, p.Category.ID)
	}

	count, err := categories.CountProducts(ctx, dairy.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestProductRepository_UpdateClearsOldPrice(t *testing.T) {
	resetCollections(t)
	ctx := context.Background()
	products := NewProductRepository(testMongo)

	oldPrice := 100.0
	milk := &domain.Product{
		ProductName: "Milk",
		CategoryID:  uuid.New(),
		Unit:        "litre",
		Price:       90,
		OldPrice:    &oldPrice,
		Discount:    10,
		Images:      []string{"milk.jpg"},
	}
	require.NoError(t, products.Create(ctx, milk))

	milk.Price = 80
	milk.OldPrice = nil
	milk.Discount = 0
	require.NoError(t, products.Update(ctx, milk))

	found, err := products.FindByID(ctx, milk.ID)
	require.NoError(t, err)
	require.Equal(t, 80.0, found.Price)
	require.Nil(t, found.OldPrice)
	require.Zero(t, found.Discount)
	require.Equal(t, []string{"milk.jpg"}, found.Images)
	require.Nil(t, found.Category)

	err = products.Update(ctx, &domain.Product{ID: uuid.New(), CategoryID: uuid.New()})
	require.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestProductRepository_DeleteByCategory(t *testing.T) {
	resetCollections(t)
	ctx := context.Background()
	products := NewProductRepository(testMongo)

	categoryID := uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, products.Create(ctx, &domain.Product{
			ProductName: "Item",
			CategoryID:  categoryID,
			Unit:        "each",
			Price:       1,
			Images:      []string{"i.jpg"},
		}))
	}
	other := &domain.Product{ProductName: "Other", CategoryID: uuid.New(), Unit: "each", Images: []string{"o.jpg"}}
	require.NoError(t, products.Create(ctx, other))

	deleted, err := products.DeleteByCategory(ctx, categoryID)
	require.NoError(t, err)
	require.Equal(t, 3, deleted)

	require.NoError(t, products.Delete(ctx, other.ID))
	require.ErrorIs(t, products.Delete(ctx, other.ID), repository.ErrProductNotFound)
}
