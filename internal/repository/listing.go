// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"estatehub/internal/models"

	"gorm.io/gorm"
)

// ChangePublisher announces row changes to other processes.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event models.ChangeEvent) error
}

// ListingRepository is the remote listing store. It speaks in persisted rows;
// mapping to the in-memory model belongs to the catalog.
type ListingRepository interface {
	// List returns every row, newest first.
	List(ctx context.Context) ([]models.ListingRow, error)
	GetByID(ctx context.Context, id string) (*models.ListingRow, error)
	Create(ctx context.Context, row *models.ListingRow) error
	// Update applies columns to the row with id. An absent row is a NotFound error.
	Update(ctx context.Context, id string, columns map[string]interface{}) error
	// UpdateStatus moves the row from one status to another only if it is
	// still in the from status.
	UpdateStatus(ctx context.Context, id string, from, to models.ListingStatus) error
	// Delete removes the row. Deleting an absent row succeeds.
	Delete(ctx context.Context, id string) error
}

type listingRepository struct {
	db        *gorm.DB
	publisher ChangePublisher
}

// NewListingRepository creates a listing repository. publisher may be nil when
// change notifications come from the database itself or are not needed.
func NewListingRepository(db *gorm.DB, publisher ChangePublisher) ListingRepository {
	return &listingRepository{db: db, publisher: publisher}
}

func (r *listingRepository) List(ctx context.Context) ([]models.ListingRow, error) {
	var rows []models.ListingRow
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*models.ListingRow, error) {
	var row models.ListingRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Listing", id)
		}
		return nil, err
	}
	return &row, nil
}

func (r *listingRepository) Create(ctx context.Context, row *models.ListingRow) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	r.publish(ctx, models.ChangeInsert, row.ID)
	return nil
}

func (r *listingRepository) Update(ctx context.Context, id string, columns map[string]interface{}) error {
	if len(columns) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}

	updates := make(map[string]interface{}, len(columns)+1)
	for k, v := range columns {
		updates[k] = v
	}
	updates["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).
		Model(&models.ListingRow{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", id)
	}
	r.publish(ctx, models.ChangeUpdate, id)
	return nil
}

func (r *listingRepository) UpdateStatus(ctx context.Context, id string, from, to models.ListingStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.ListingRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return models.NewInvalidTransitionError(models.ListingStatus(current.Status), to)
	}
	r.publish(ctx, models.ChangeUpdate, id)
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ListingRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		r.publish(ctx, models.ChangeDelete, id)
	}
	return nil
}

// publish is best effort: the mutation already committed, and the local
// caller resyncs on its own.
func (r *listingRepository) publish(ctx context.Context, kind models.ChangeKind, id string) {
	if r.publisher == nil {
		return
	}
	event := models.ChangeEvent{Table: models.ListingsTable, Kind: kind, ID: id}
	if err := r.publisher.PublishChange(ctx, event); err != nil {
		logRepoWarn(ctx, "failed to publish listing change", err)
	}
}
