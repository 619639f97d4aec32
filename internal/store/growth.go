package store

import (
	"context"
	"fmt"

	"github.com/sproutapp/sprout/internal/model"
)

// AddGrowthLog appends a growth measurement for a plant owned by ownerID.
// The ID, OwnerID, and CreatedAt fields on log are populated after insert.
func (s *Store) AddGrowthLog(ctx context.Context, ownerID string, log *model.GrowthLog) error {
	if _, err := s.GetPlant(ctx, ownerID, log.PlantID); err != nil {
		return err
	}

	log.ID = newID()
	log.OwnerID = ownerID
	log.CreatedAt = now()

	const q = `INSERT INTO growth_logs
		(id, owner_id, plant_id, logged_on, measurement_kind, measurement_unit, value, notes, created_at)
		VALUES
		(:id, :owner_id, :plant_id, :logged_on, :measurement_kind, :measurement_unit, :value, :notes, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, log); err != nil {
		return fmt.Errorf("insert growth log: %w", err)
	}
	return nil
}

// GetGrowthLogs returns the growth measurements for a plant owned by
// ownerID, most recent log date first.
func (s *Store) GetGrowthLogs(ctx context.Context, ownerID, plantID string) ([]model.GrowthLog, error) {
	if _, err := s.GetPlant(ctx, ownerID, plantID); err != nil {
		return nil, err
	}

	var logs []model.GrowthLog
	const q = `SELECT * FROM growth_logs WHERE plant_id = ? AND owner_id = ?
		ORDER BY logged_on DESC, created_at DESC`
	if err := s.db.SelectContext(ctx, &logs, s.rebind(q), plantID, ownerID); err != nil {
		return nil, fmt.Errorf("get growth logs: %w", err)
	}
	return logs, nil
}
