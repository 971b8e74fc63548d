package storetables

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"imagehost/models"
)

// Repo routes all reads and writes for per-store tables. It holds an
// explicit database handle; nothing in this package reaches for a global
// connection, which keeps tests on isolated databases.
type Repo struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRepo(db *gorm.DB, log *zap.Logger) *Repo {
	return &Repo{db: db, log: log}
}

// SortKey selects an ordering for list and filter results. The zero value
// is insertion order. Keys are an allow-list because the ORDER BY column
// is spliced into SQL text.
type SortKey string

const (
	SortInsertion SortKey = ""
	SortName      SortKey = "name"
	SortNewest    SortKey = "newest"
)

func (s SortKey) orderClause() (string, error) {
	switch s {
	case SortInsertion:
		return "id", nil
	case SortName:
		return "name", nil
	case SortNewest:
		return "created_at DESC", nil
	}
	return "", fmt.Errorf("%w: unknown sort key %q", ErrInvalidIdentifier, string(s))
}

// ---- Stores ----

// CreateStore inserts the store row and provisions its table set in one
// transaction, so a DDL failure also rolls back the row.
func (r *Repo) CreateStore(ctx context.Context, store *models.Store) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(store).Error; err != nil {
			return translate(err)
		}
		ident, err := IdentForStore(store.ID)
		if err != nil {
			return err
		}
		return provisionTx(tx, ident)
	})
	if err != nil {
		return err
	}
	r.log.Info("store created", zap.Uint("store_id", store.ID))
	return nil
}

// DeleteStore removes the store row and drops its table set in one
// transaction.
func (r *Repo) DeleteStore(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Store{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		ident, err := IdentForStore(id)
		if err != nil {
			return err
		}
		return deprovisionTx(tx, ident)
	})
	if err != nil {
		return err
	}
	r.log.Info("store deleted", zap.Uint("store_id", id))
	return nil
}

// ---- Categories ----

func (r *Repo) CreateCategory(ctx context.Context, store StoreIdent, category *models.Category) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Raw(
		"INSERT INTO "+store.CategoriesTable()+" (name, created_at, updated_at) VALUES (?, ?, ?) RETURNING id",
		category.Name, now, now,
	).Scan(&category.ID).Error
	if err != nil {
		return translate(err)
	}
	category.CreatedAt, category.UpdatedAt = now, now
	r.log.Debug("category created", zap.String("store", string(store)), zap.Int64("id", category.ID))
	return nil
}

func (r *Repo) GetCategory(ctx context.Context, store StoreIdent, id int64) (models.Category, error) {
	var category models.Category
	res := r.db.WithContext(ctx).Raw(
		"SELECT * FROM "+store.CategoriesTable()+" WHERE id = ?", id,
	).Scan(&category)
	if res.Error != nil {
		return models.Category{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Category{}, ErrNotFound
	}
	return category, nil
}

func (r *Repo) ListCategories(ctx context.Context, store StoreIdent, sort SortKey) ([]models.Category, error) {
	cur, err := r.FilterCategories(ctx, store, "", sort)
	if err != nil {
		return nil, err
	}
	return cur.Collect()
}

// FilterCategories returns a forward-only cursor over the store's
// categories whose name contains search (all rows when search is empty).
func (r *Repo) FilterCategories(ctx context.Context, store StoreIdent, search string, sort SortKey) (*Cursor[models.Category], error) {
	order, err := sort.orderClause()
	if err != nil {
		return nil, err
	}
	query := "SELECT * FROM " + store.CategoriesTable()
	var args []interface{}
	if search != "" {
		query += " WHERE name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY " + order
	gdb := r.db.WithContext(ctx)
	rows, err := gdb.Raw(query, args...).Rows()
	if err != nil {
		return nil, translate(err)
	}
	return newCursor[models.Category](gdb, rows), nil
}

func (r *Repo) UpdateCategory(ctx context.Context, store StoreIdent, id int64, name string) error {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE "+store.CategoriesTable()+" SET name = ?, updated_at = ? WHERE id = ?",
		name, time.Now().UTC(), id,
	)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- Products ----

func (r *Repo) CreateProduct(ctx context.Context, store StoreIdent, product *models.Product) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Raw(
		"INSERT INTO "+store.ProductsTable()+
			" (category_id, name, marked_price, min_discounted_price, description, created_at, updated_at)"+
			" VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id",
		product.CategoryID, product.Name, product.MarkedPrice, product.MinDiscountedPrice,
		product.Description, now, now,
	).Scan(&product.ID).Error
	if err != nil {
		return translate(err)
	}
	product.CreatedAt, product.UpdatedAt = now, now
	r.log.Debug("product created", zap.String("store", string(store)), zap.Int64("id", product.ID))
	return nil
}

func (r *Repo) GetProduct(ctx context.Context, store StoreIdent, id int64) (models.Product, error) {
	var product models.Product
	res := r.db.WithContext(ctx).Raw(
		"SELECT * FROM "+store.ProductsTable()+" WHERE id = ?", id,
	).Scan(&product)
	if res.Error != nil {
		return models.Product{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Product{}, ErrNotFound
	}
	return product, nil
}

func (r *Repo) ListProducts(ctx context.Context, store StoreIdent, sort SortKey) ([]models.Product, error) {
	cur, err := r.FilterProducts(ctx, store, "", 0, sort)
	if err != nil {
		return nil, err
	}
	return cur.Collect()
}

// FilterProducts returns a cursor over the store's products, optionally
// narrowed by a name substring and/or a category id (0 means any).
func (r *Repo) FilterProducts(ctx context.Context, store StoreIdent, search string, categoryID int64, sort SortKey) (*Cursor[models.Product], error) {
	order, err := sort.orderClause()
	if err != nil {
		return nil, err
	}
	query := "SELECT * FROM " + store.ProductsTable() + " WHERE 1=1"
	var args []interface{}
	if search != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	if categoryID != 0 {
		query += " AND category_id = ?"
		args = append(args, categoryID)
	}
	query += " ORDER BY " + order
	gdb := r.db.WithContext(ctx)
	rows, err := gdb.Raw(query, args...).Rows()
	if err != nil {
		return nil, translate(err)
	}
	return newCursor[models.Product](gdb, rows), nil
}

func (r *Repo) UpdateProduct(ctx context.Context, store StoreIdent, id int64, product models.Product) error {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE "+store.ProductsTable()+
			" SET category_id = ?, name = ?, marked_price = ?, min_discounted_price = ?, description = ?, updated_at = ?"+
			" WHERE id = ?",
		product.CategoryID, product.Name, product.MarkedPrice, product.MinDiscountedPrice,
		product.Description, time.Now().UTC(), id,
	)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- Images ----

// CreateImage inserts an image row. The duplicate-code check and the
// insert run in one transaction, and the unique index on image_code is the
// authoritative guard should two inserts race past the check.
func (r *Repo) CreateImage(ctx context.Context, store StoreIdent, image *models.Image) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := codeExists(tx, store, image.ImageCode, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %q", ErrDuplicateCode, image.ImageCode)
		}
		err = tx.Raw(
			"INSERT INTO "+store.ImagesTable()+
				" (product_id, name, image_code, image_file, url, created_at, updated_at)"+
				" VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id",
			image.ProductID, image.Name, image.ImageCode, image.ImageFile, image.URL, now, now,
		).Scan(&image.ID).Error
		return translate(err)
	})
	if err != nil {
		return err
	}
	image.CreatedAt, image.UpdatedAt = now, now
	r.log.Debug("image created",
		zap.String("store", string(store)),
		zap.Int64("id", image.ID),
		zap.String("code", image.ImageCode))
	return nil
}

func (r *Repo) GetImage(ctx context.Context, store StoreIdent, id int64) (models.Image, error) {
	var image models.Image
	res := r.db.WithContext(ctx).Raw(
		"SELECT * FROM "+store.ImagesTable()+" WHERE id = ?", id,
	).Scan(&image)
	if res.Error != nil {
		return models.Image{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Image{}, ErrNotFound
	}
	return image, nil
}

// FindImageByCode looks an image up by its store-scoped code.
func (r *Repo) FindImageByCode(ctx context.Context, store StoreIdent, code string) (models.Image, error) {
	var image models.Image
	res := r.db.WithContext(ctx).Raw(
		"SELECT * FROM "+store.ImagesTable()+" WHERE image_code = ?", code,
	).Scan(&image)
	if res.Error != nil {
		return models.Image{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Image{}, ErrNotFound
	}
	return image, nil
}

func (r *Repo) ListImages(ctx context.Context, store StoreIdent, sort SortKey) ([]models.Image, error) {
	cur, err := r.FilterImages(ctx, store, "", 0, sort)
	if err != nil {
		return nil, err
	}
	return cur.Collect()
}

// FilterImages returns a cursor over the store's images, optionally
// narrowed by a name substring and/or a product id (0 means any).
func (r *Repo) FilterImages(ctx context.Context, store StoreIdent, search string, productID int64, sort SortKey) (*Cursor[models.Image], error) {
	order, err := sort.orderClause()
	if err != nil {
		return nil, err
	}
	query := "SELECT * FROM " + store.ImagesTable() + " WHERE 1=1"
	var args []interface{}
	if search != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+search+"%")
	}
	if productID != 0 {
		query += " AND product_id = ?"
		args = append(args, productID)
	}
	query += " ORDER BY " + order
	gdb := r.db.WithContext(ctx)
	rows, err := gdb.Raw(query, args...).Rows()
	if err != nil {
		return nil, translate(err)
	}
	return newCursor[models.Image](gdb, rows), nil
}

// UpdateImage updates an image's name and code. The new code is re-checked
// for collisions in the same transaction as the update.
func (r *Repo) UpdateImage(ctx context.Context, store StoreIdent, id int64, name, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := codeExists(tx, store, code, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %q", ErrDuplicateCode, code)
		}
		res := tx.Exec(
			"UPDATE "+store.ImagesTable()+" SET name = ?, image_code = ?, updated_at = ? WHERE id = ?",
			name, code, time.Now().UTC(), id,
		)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UpdateImageCode changes only the store-scoped code of an image.
func (r *Repo) UpdateImageCode(ctx context.Context, store StoreIdent, id int64, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := codeExists(tx, store, code, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %q", ErrDuplicateCode, code)
		}
		res := tx.Exec(
			"UPDATE "+store.ImagesTable()+" SET image_code = ?, updated_at = ? WHERE id = ?",
			code, time.Now().UTC(), id,
		)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Repo) DeleteImage(ctx context.Context, store StoreIdent, id int64) error {
	res := r.db.WithContext(ctx).Exec(
		"DELETE FROM "+store.ImagesTable()+" WHERE id = ?", id,
	)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
