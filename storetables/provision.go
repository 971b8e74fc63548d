package storetables

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provisionStatements returns the DDL for one store's table set. Table
// names come from the StoreIdent only; nothing else is interpolated.
//
// The ON DELETE CASCADE clauses are a backstop: the explicit walk in
// DeleteCategoryCascade is the authoritative cascade mechanism, since
// engine-level cascade over dynamically created tables is not guaranteed
// by every backend.
func provisionStatements(store StoreIdent) []string {
	cats := store.CategoriesTable()
	prods := store.ProductsTable()
	imgs := store.ImagesTable()
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name VARCHAR(200) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`, cats),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category_id INTEGER NOT NULL,
			name VARCHAR(200) NOT NULL,
			marked_price REAL,
			min_discounted_price REAL,
			description TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (category_id) REFERENCES %s(id) ON DELETE CASCADE
		)`, prods, cats),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id INTEGER NOT NULL,
			name VARCHAR(200) NOT NULL,
			image_code VARCHAR(200) NOT NULL,
			image_file VARCHAR(100) NOT NULL,
			url VARCHAR(200),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (product_id) REFERENCES %s(id) ON DELETE CASCADE
		)`, imgs, prods),
		// image_code is unique within this store's table only; other
		// stores may reuse the same code.
		fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_code_unique ON %s(image_code)", imgs, imgs),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_name ON %s(name)", cats, cats),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_category ON %s(category_id)", prods, prods),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_name ON %s(name)", prods, prods),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_product ON %s(product_id)", imgs, imgs),
	}
}

// Provision creates the store's three tables and their indexes inside one
// transaction, so a failure leaves no partial table set behind. Calling it
// for an already provisioned store is a no-op: existence is checked first,
// and the IF NOT EXISTS DDL backstops a partial set.
func (r *Repo) Provision(ctx context.Context, store StoreIdent) error {
	ok, err := r.Provisioned(ctx, store)
	if err != nil {
		return &ProvisionError{Store: store, Op: "create", Err: err}
	}
	if ok {
		return nil
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return provisionTx(tx, store)
	})
	if err != nil {
		return err
	}
	r.log.Info("store tables provisioned", zap.String("store", string(store)))
	return nil
}

func provisionTx(tx *gorm.DB, store StoreIdent) error {
	for _, stmt := range provisionStatements(store) {
		if err := tx.Exec(stmt).Error; err != nil {
			return &ProvisionError{Store: store, Op: "create", Err: err}
		}
	}
	return nil
}

// Provisioned reports whether the store's full table set exists.
func (r *Repo) Provisioned(ctx context.Context, store StoreIdent) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN (?, ?, ?)",
			store.CategoriesTable(), store.ProductsTable(), store.ImagesTable()).
		Scan(&n).Error
	if err != nil {
		return false, err
	}
	return n == int64(len(store.tables())), nil
}

// Deprovision drops the store's table set inside one transaction. Before
// dropping it asserts that no table outside the set references one of the
// store's tables; isolation makes that structurally impossible, so a hit
// means the catalog is corrupt and the drop is refused.
func (r *Repo) Deprovision(ctx context.Context, store StoreIdent) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deprovisionTx(tx, store)
	})
	if err != nil {
		return err
	}
	r.log.Info("store tables dropped", zap.String("store", string(store)))
	return nil
}

func deprovisionTx(tx *gorm.DB, store StoreIdent) error {
	var refs []string
	err := tx.Raw(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE ? ESCAPE '\' AND sql LIKE ? ESCAPE '\'`,
		store.likePrefix(), "%REFERENCES "+store.likePrefix(),
	).Scan(&refs).Error
	if err != nil {
		return &ProvisionError{Store: store, Op: "drop", Err: err}
	}
	if len(refs) > 0 {
		return &ProvisionError{Store: store, Op: "drop",
			Err: fmt.Errorf("tables %v still reference this store's table set", refs)}
	}
	// Drop children first so no foreign key dangles mid-transaction.
	for i := len(store.tables()) - 1; i >= 0; i-- {
		if err := tx.Exec("DROP TABLE IF EXISTS " + store.tables()[i]).Error; err != nil {
			return &ProvisionError{Store: store, Op: "drop", Err: err}
		}
	}
	return nil
}
