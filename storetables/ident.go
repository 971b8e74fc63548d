package storetables

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// StoreIdent is a validated table-name fragment for one store. It is only
// produced by SanitizeStoreID, the single choke point every dynamic table
// name passes through, and is the only thing ever spliced into SQL text.
// Data values always travel as bound parameters.
type StoreIdent string

const maxIdentLen = 32

var identPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// SanitizeStoreID validates a raw store identifier against a strict
// allow-list (lowercase alphanumerics and underscore, bounded length) and
// returns it as a StoreIdent. Anything else fails with ErrInvalidIdentifier.
func SanitizeStoreID(raw string) (StoreIdent, error) {
	if raw == "" || len(raw) > maxIdentLen || !identPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	return StoreIdent(raw), nil
}

// IdentForStore builds the identifier for a numeric store id. The decimal
// form still goes through SanitizeStoreID so there is exactly one producer
// of safe identifiers.
func IdentForStore(id uint) (StoreIdent, error) {
	return SanitizeStoreID(strconv.FormatUint(uint64(id), 10))
}

func (s StoreIdent) CategoriesTable() string { return "store_" + string(s) + "_categories" }
func (s StoreIdent) ProductsTable() string   { return "store_" + string(s) + "_products" }
func (s StoreIdent) ImagesTable() string     { return "store_" + string(s) + "_images" }

// tables returns the store's table set in dependency order, parents first.
func (s StoreIdent) tables() []string {
	return []string{s.CategoriesTable(), s.ProductsTable(), s.ImagesTable()}
}

// likePrefix returns a LIKE pattern matching the store's table names, with
// underscores escaped so "store_2_" does not also match "store_22".
// Callers must add ESCAPE '\' to the clause.
func (s StoreIdent) likePrefix() string {
	return strings.ReplaceAll("store_"+string(s)+"_", "_", `\_`) + "%"
}
