package storetables

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var (
	codeNonAlnum    = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	codeSpaces      = regexp.MustCompile(`\s+`)
	codeInvalid     = regexp.MustCompile(`[^a-z0-9_]`)
	codeUnderscores = regexp.MustCompile(`_+`)
)

// GenerateImageCode derives a code from a filename: extension stripped,
// lowercase, words separated by single underscores.
func GenerateImageCode(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = codeNonAlnum.ReplaceAllString(name, "")
	name = codeSpaces.ReplaceAllString(name, " ")
	code := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	return codeUnderscores.ReplaceAllString(code, "_")
}

// NormalizeCode cleans an explicitly supplied code: trimmed, lowercase,
// whitespace to underscores, invalid characters dropped, runs of
// underscores collapsed.
func NormalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	code = codeSpaces.ReplaceAllString(code, "_")
	code = codeInvalid.ReplaceAllString(code, "")
	code = codeUnderscores.ReplaceAllString(code, "_")
	return strings.Trim(code, "_")
}

// UniqueCode returns base, or base_1, base_2, ... — the first code not yet
// taken in the store's images table. It is used when the caller supplied
// no explicit code; an explicit colliding code fails with ErrDuplicateCode
// instead of being suffixed.
func (r *Repo) UniqueCode(ctx context.Context, store StoreIdent, base string) (string, error) {
	code := base
	for n := 1; ; n++ {
		taken, err := codeExists(r.db.WithContext(ctx), store, code, 0)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		code = fmt.Sprintf("%s_%d", base, n)
	}
}

// codeExists reports whether code is taken in the store's images table,
// ignoring row excludeID so in-place updates don't collide with themselves.
func codeExists(tx *gorm.DB, store StoreIdent, code string, excludeID int64) (bool, error) {
	var n int64
	err := tx.Raw(
		"SELECT COUNT(*) FROM "+store.ImagesTable()+" WHERE image_code = ? AND id != ?",
		code, excludeID,
	).Scan(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}
