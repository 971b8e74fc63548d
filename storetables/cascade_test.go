package storetables

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagehost/models"
)

// seedStore fills a store with one category, two products and an image per
// product, returning the category id.
func seedStore(t *testing.T, r *Repo, ident StoreIdent) int64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, r.Provision(ctx, ident))

	category := &models.Category{Name: "Shoes"}
	require.NoError(t, r.CreateCategory(ctx, ident, category))

	for _, name := range []string{"Sneaker", "Boot"} {
		product := &models.Product{CategoryID: category.ID, Name: name}
		require.NoError(t, r.CreateProduct(ctx, ident, product))
		image := &models.Image{
			ProductID: product.ID,
			Name:      name + " photo",
			ImageCode: GenerateImageCode(name + " photo"),
			ImageFile: "x.jpg",
		}
		require.NoError(t, r.CreateImage(ctx, ident, image))
	}
	return category.ID
}

func TestDeleteCategoryCascade(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	ident := mustIdent(t, "2")
	categoryID := seedStore(t, r, ident)

	require.NoError(t, r.DeleteCategoryCascade(ctx, ident, categoryID))

	_, err := r.GetCategory(ctx, ident, categoryID)
	assert.ErrorIs(t, err, ErrNotFound)

	products, err := r.ListProducts(ctx, ident, SortInsertion)
	require.NoError(t, err)
	assert.Empty(t, products)

	images, err := r.ListImages(ctx, ident, SortInsertion)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestDeleteCategoryCascadeLeavesOtherStoresIntact(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	store2 := mustIdent(t, "2")
	store3 := mustIdent(t, "3")
	cat2 := seedStore(t, r, store2)
	seedStore(t, r, store3)

	require.NoError(t, r.DeleteCategoryCascade(ctx, store2, cat2))

	// The identically named category and its data remain under store 3
	categories, err := r.ListCategories(ctx, store3, SortInsertion)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Shoes", categories[0].Name)

	products, err := r.ListProducts(ctx, store3, SortInsertion)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	images, err := r.ListImages(ctx, store3, SortInsertion)
	require.NoError(t, err)
	assert.Len(t, images, 2)
}

func TestDeleteCategoryCascadeNotFound(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	ident := mustIdent(t, "2")
	require.NoError(t, r.Provision(ctx, ident))

	err := r.DeleteCategoryCascade(ctx, ident, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProductRemovesItsImagesOnly(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	ident := mustIdent(t, "2")
	require.NoError(t, r.Provision(ctx, ident))

	category := &models.Category{Name: "Shoes"}
	require.NoError(t, r.CreateCategory(ctx, ident, category))
	keep := &models.Product{CategoryID: category.ID, Name: "Keep"}
	drop := &models.Product{CategoryID: category.ID, Name: "Drop"}
	require.NoError(t, r.CreateProduct(ctx, ident, keep))
	require.NoError(t, r.CreateProduct(ctx, ident, drop))
	require.NoError(t, r.CreateImage(ctx, ident, &models.Image{
		ProductID: keep.ID, Name: "keep", ImageCode: "keep", ImageFile: "k.jpg",
	}))
	require.NoError(t, r.CreateImage(ctx, ident, &models.Image{
		ProductID: drop.ID, Name: "drop", ImageCode: "drop", ImageFile: "d.jpg",
	}))

	require.NoError(t, r.DeleteProduct(ctx, ident, drop.ID))

	images, err := r.ListImages(ctx, ident, SortInsertion)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "keep", images[0].ImageCode)
}
