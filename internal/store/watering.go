package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sproutapp/sprout/internal/model"
)

// WaterPlant records a watering of the plant and advances the plant's
// last-watered date. The event insert and the plant update happen in one
// transaction: a failure of either leaves no partial state.
func (s *Store) WaterPlant(ctx context.Context, ownerID, plantID, wateredOn, notes string) (*model.WateringEvent, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Ownership check inside the transaction.
	var plantOwner string
	const ownerQ = `SELECT owner_id FROM plants WHERE id = ? AND owner_id = ?`
	if err := tx.GetContext(ctx, &plantOwner, s.rebind(ownerQ), plantID, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("check plant owner: %w", err)
	}

	ev := &model.WateringEvent{
		ID:        newID(),
		OwnerID:   ownerID,
		PlantID:   plantID,
		WateredOn: wateredOn,
		Notes:     notes,
		CreatedAt: now(),
	}

	const insertQ = `INSERT INTO watering_events (id, owner_id, plant_id, watered_on, notes, created_at)
		VALUES (:id, :owner_id, :plant_id, :watered_on, :notes, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertQ, ev); err != nil {
		return nil, fmt.Errorf("insert watering event: %w", err)
	}

	const updateQ = `UPDATE plants SET last_watered = ?, updated_at = ? WHERE id = ? AND owner_id = ?`
	if _, err := tx.ExecContext(ctx, s.rebind(updateQ), wateredOn, now(), plantID, ownerID); err != nil {
		return nil, fmt.Errorf("update plant last watered: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit watering: %w", err)
	}
	return ev, nil
}

// GetWateringHistory returns the watering events for a plant owned by
// ownerID, most recent watering first.
func (s *Store) GetWateringHistory(ctx context.Context, ownerID, plantID string) ([]model.WateringEvent, error) {
	if _, err := s.GetPlant(ctx, ownerID, plantID); err != nil {
		return nil, err
	}

	var events []model.WateringEvent
	const q = `SELECT * FROM watering_events WHERE plant_id = ? AND owner_id = ?
		ORDER BY watered_on DESC, created_at DESC`
	if err := s.db.SelectContext(ctx, &events, s.rebind(q), plantID, ownerID); err != nil {
		return nil, fmt.Errorf("get watering history: %w", err)
	}
	return events, nil
}
