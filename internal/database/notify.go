package database

import (
	"fmt"

	"gorm.io/gorm"
)

// ListingChangesChannel is the Postgres NOTIFY channel listing changes are sent on.
const ListingChangesChannel = "listing_changes"

const listingNotifySQL = `
CREATE OR REPLACE FUNCTION notify_listing_change() RETURNS trigger AS $$
DECLARE
	row_id text;
BEGIN
	IF TG_OP = 'DELETE' THEN
		row_id := OLD.id;
	ELSE
		row_id := NEW.id;
	END IF;
	PERFORM pg_notify('` + ListingChangesChannel + `', json_build_object(
		'table', TG_TABLE_NAME,
		'kind', lower(TG_OP),
		'id', row_id
	)::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS properties_notify_change ON properties;
CREATE TRIGGER properties_notify_change
	AFTER INSERT OR UPDATE OR DELETE ON properties
	FOR EACH ROW EXECUTE FUNCTION notify_listing_change();
`

// InstallChangeTrigger makes Postgres emit a NOTIFY for every listing row change.
// It is a no-op on other dialects.
func InstallChangeTrigger(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(listingNotifySQL).Error; err != nil {
		return fmt.Errorf("failed to install listing change trigger: %w", err)
	}
	return nil
}
