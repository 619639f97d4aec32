package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sproutapp/sprout/internal/model"
)

// AddPlantImage appends an image reference for a plant owned by ownerID.
// Only the filename is stored; the binary lives elsewhere.
func (s *Store) AddPlantImage(ctx context.Context, ownerID string, img *model.PlantImage) error {
	if _, err := s.GetPlant(ctx, ownerID, img.PlantID); err != nil {
		return err
	}

	img.ID = newID()
	img.OwnerID = ownerID
	img.CreatedAt = now()

	const q = `INSERT INTO plant_images
		(id, owner_id, plant_id, filename, caption, taken_on, created_at)
		VALUES
		(:id, :owner_id, :plant_id, :filename, :caption, :taken_on, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, img); err != nil {
		return fmt.Errorf("insert plant image: %w", err)
	}
	return nil
}

// GetPlantImage returns a single image reference by ID, scoped to ownerID.
func (s *Store) GetPlantImage(ctx context.Context, ownerID, id string) (*model.PlantImage, error) {
	var img model.PlantImage
	const q = `SELECT * FROM plant_images WHERE id = ? AND owner_id = ?`
	if err := s.db.GetContext(ctx, &img, s.rebind(q), id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get plant image: %w", err)
	}
	return &img, nil
}

// GetPlantImages returns the image references for a plant owned by ownerID,
// most recently taken first.
func (s *Store) GetPlantImages(ctx context.Context, ownerID, plantID string) ([]model.PlantImage, error) {
	if _, err := s.GetPlant(ctx, ownerID, plantID); err != nil {
		return nil, err
	}

	var images []model.PlantImage
	const q = `SELECT * FROM plant_images WHERE plant_id = ? AND owner_id = ?
		ORDER BY taken_on DESC, created_at DESC`
	if err := s.db.SelectContext(ctx, &images, s.rebind(q), plantID, ownerID); err != nil {
		return nil, fmt.Errorf("get plant images: %w", err)
	}
	return images, nil
}
