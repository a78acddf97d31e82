package repositories

import (
	"fmt"

	"gorm.io/gorm"
)

const expiringSoonFunction = `
CREATE OR REPLACE FUNCTION get_items_expiring_soon(user_uuid text, days_ahead integer DEFAULT 7)
RETURNS SETOF pantry_items
LANGUAGE sql STABLE AS $$
	SELECT * FROM pantry_items
	WHERE user_id = user_uuid
	  AND expiration_date IS NOT NULL
	  AND expiration_date::date >= CURRENT_DATE
	  AND expiration_date::date <= CURRENT_DATE + days_ahead
	ORDER BY expiration_date ASC
$$;`

const expiredFunction = `
CREATE OR REPLACE FUNCTION get_expired_items(user_uuid text)
RETURNS SETOF pantry_items
LANGUAGE sql STABLE AS $$
	SELECT * FROM pantry_items
	WHERE user_id = user_uuid
	  AND expiration_date IS NOT NULL
	  AND expiration_date::date < CURRENT_DATE
	ORDER BY expiration_date ASC
$$;`

// AutoMigrate creates the pantry_items table and, on PostgreSQL, the expiry lookup
// functions. Production deployments provision these themselves.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return ErrNotConfigured
	}
	if err := db.AutoMigrate(&pantryItemRecord{}); err != nil {
		return fmt.Errorf("failed to migrate pantry_items: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range []string{expiringSoonFunction, expiredFunction} {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create expiry function: %w", err)
		}
	}
	return nil
}
