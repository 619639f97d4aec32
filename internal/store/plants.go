package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sproutapp/sprout/internal/model"
)

// AddPlant inserts a new plant for ownerID. The ID, OwnerID, and timestamp
// fields on p are populated after a successful insert.
func (s *Store) AddPlant(ctx context.Context, ownerID string, p *model.Plant) error {
	ts := now()
	p.ID = newID()
	p.OwnerID = ownerID
	p.CreatedAt = ts
	p.UpdatedAt = ts

	const q = `INSERT INTO plants
		(id, owner_id, name, species, location, acquired_on, watering_frequency_days,
		 last_watered, notes, created_at, updated_at)
		VALUES
		(:id, :owner_id, :name, :species, :location, :acquired_on, :watering_frequency_days,
		 :last_watered, :notes, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, p); err != nil {
		return fmt.Errorf("insert plant: %w", err)
	}
	return nil
}

// GetPlant returns the plant with the given ID, provided it belongs to
// ownerID. A plant owned by someone else is reported as ErrNotFound.
func (s *Store) GetPlant(ctx context.Context, ownerID, id string) (*model.Plant, error) {
	var p model.Plant
	const q = `SELECT * FROM plants WHERE id = ? AND owner_id = ?`
	if err := s.db.GetContext(ctx, &p, s.rebind(q), id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return &p, nil
}

// ListPlants returns the plants belonging to ownerID, optionally narrowed
// by exact-match location and species, ordered by name ascending.
func (s *Store) ListPlants(ctx context.Context, ownerID string, f model.PlantFilter) ([]model.Plant, error) {
	query := `SELECT * FROM plants WHERE owner_id = ?`
	args := []interface{}{ownerID}

	if f.Location != "" {
		query += ` AND location = ?`
		args = append(args, f.Location)
	}
	if f.Species != "" {
		query += ` AND species = ?`
		args = append(args, f.Species)
	}
	query += ` ORDER BY name ASC`

	var plants []model.Plant
	if err := s.db.SelectContext(ctx, &plants, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	return plants, nil
}

// UpdatePlant applies a partial update to a plant owned by ownerID and
// returns the updated record. Only set fields are modified; the updated
// timestamp is refreshed whenever any field changes. An empty update is a
// no-op that returns the current record.
func (s *Store) UpdatePlant(ctx context.Context, ownerID, id string, upd model.PlantUpdate) (*model.Plant, error) {
	if upd.IsEmpty() {
		return s.GetPlant(ctx, ownerID, id)
	}

	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 9)

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Species != nil {
		sets = append(sets, "species = ?")
		args = append(args, *upd.Species)
	}
	if upd.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *upd.Location)
	}
	if upd.AcquiredOn != nil {
		sets = append(sets, "acquired_on = ?")
		args = append(args, *upd.AcquiredOn)
	}
	if upd.WateringFrequencyDays != nil {
		sets = append(sets, "watering_frequency_days = ?")
		args = append(args, *upd.WateringFrequencyDays)
	}
	if upd.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *upd.Notes)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, now(), id, ownerID)

	query := `UPDATE plants SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND owner_id = ?`
	result, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("update plant: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update plant rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.GetPlant(ctx, ownerID, id)
}

// DeletePlant removes a plant owned by ownerID. Watering events, growth
// logs, and images cascade. The boolean reports whether a row was actually
// removed.
func (s *Store) DeletePlant(ctx context.Context, ownerID, id string) (bool, error) {
	const q = `DELETE FROM plants WHERE id = ? AND owner_id = ?`
	result, err := s.db.ExecContext(ctx, s.rebind(q), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete plant: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete plant rows affected: %w", err)
	}
	return n > 0, nil
}
