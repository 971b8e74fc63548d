package storetables

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeleteCategoryCascade removes a category together with its products and
// their images, all inside one transaction: a failure at any step leaves
// the pre-delete state intact. The explicit walk is the authoritative
// cascade; the ON DELETE CASCADE clauses in the DDL are only a backstop.
func (r *Repo) DeleteCategoryCascade(ctx context.Context, store StoreIdent, categoryID int64) error {
	var products, images int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var productIDs []int64
		err := tx.Raw(
			"SELECT id FROM "+store.ProductsTable()+" WHERE category_id = ?", categoryID,
		).Scan(&productIDs).Error
		if err != nil {
			return translate(err)
		}
		if len(productIDs) > 0 {
			res := tx.Exec(
				"DELETE FROM "+store.ImagesTable()+" WHERE product_id IN ?", productIDs,
			)
			if res.Error != nil {
				return translate(res.Error)
			}
			images = res.RowsAffected

			res = tx.Exec(
				"DELETE FROM "+store.ProductsTable()+" WHERE category_id = ?", categoryID,
			)
			if res.Error != nil {
				return translate(res.Error)
			}
			products = res.RowsAffected
		}
		res := tx.Exec(
			"DELETE FROM "+store.CategoriesTable()+" WHERE id = ?", categoryID,
		)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.Info("category deleted with cascade",
		zap.String("store", string(store)),
		zap.Int64("category_id", categoryID),
		zap.Int64("products", products),
		zap.Int64("images", images))
	return nil
}

// DeleteProduct removes a product and its images in one transaction, the
// same walk DeleteCategoryCascade does one level down.
func (r *Repo) DeleteProduct(ctx context.Context, store StoreIdent, productID int64) error {
	var images int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			"DELETE FROM "+store.ImagesTable()+" WHERE product_id = ?", productID,
		)
		if res.Error != nil {
			return translate(res.Error)
		}
		images = res.RowsAffected

		res = tx.Exec(
			"DELETE FROM "+store.ProductsTable()+" WHERE id = ?", productID,
		)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.Info("product deleted with cascade",
		zap.String("store", string(store)),
		zap.Int64("product_id", productID),
		zap.Int64("images", images))
	return nil
}
