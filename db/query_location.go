package db

import (
	"context"

	"github.com/google/uuid"
)

func (queries *Queries) CreateLocation(ctx context.Context, location *Location) error {
	return queries.DB.WithContext(ctx).Create(location).Error
}

func (queries *Queries) ListLocations(ctx context.Context) ([]Location, error) {
	var locations []Location
	err := queries.DB.WithContext(ctx).Order("date_created DESC").Find(&locations).Error
	return locations, err
}

func (queries *Queries) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	var location Location
	err := queries.DB.WithContext(ctx).First(&location, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &location, nil
}

func (queries *Queries) UpdateLocation(ctx context.Context, location *Location) error {
	return queries.DB.WithContext(ctx).Save(location).Error
}

// DeleteLocation soft-deletes; quests keep their location_id and resolve it
// with Unscoped when history needs displaying.
func (queries *Queries) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	result := queries.DB.WithContext(ctx).Delete(&Location{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
