package entity

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vibecheck.dev/vibecheck/internal/db"
	"vibecheck.dev/vibecheck/internal/globaltime"
)

// ErrNotSeeded is returned when a canonical entity has no persisted row.
var ErrNotSeeded = errors.New("entity not seeded in database")

// ResolveID returns the persisted id for a canonical entity name.
func ResolveID(ctx context.Context, pool *db.Pool, name string) (int64, error) {
	var row db.Entity
	err := pool.GORM().WithContext(ctx).
		Where("name = ?", name).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("entity %q: %w", name, ErrNotSeeded)
		}
		return 0, fmt.Errorf("look up entity %q: %w", name, err)
	}
	return row.ID, nil
}

// Seed inserts the curated catalog into the entities table. Existing rows are
// left untouched, so the command is safe to re-run.
func Seed(ctx context.Context, pool *db.Pool) (int, error) {
	created := 0
	for _, def := range Catalog {
		row := db.Entity{
			Name:      def.Name,
			Category:  def.Category,
			CreatedAt: globaltime.UTC(),
		}
		res := pool.GORM().WithContext(ctx).
			Where(db.Entity{Name: def.Name}).
			FirstOrCreate(&row)
		if res.Error != nil {
			return created, fmt.Errorf("seed entity %q: %w", def.Name, res.Error)
		}
		if res.RowsAffected > 0 {
			created++
		}
	}
	return created, nil
}
