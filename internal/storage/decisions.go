package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"photocull/internal/catalog"
)

// UpsertDecision records or replaces the keep/remove decision for an asset.
// The asset must exist; the foreign key rejects decisions on unknown ids.
func (s *Storage) UpsertDecision(d catalog.Decision) error {
	_, err := s.db.Exec(`
		INSERT INTO decisions (asset_id, state, reason, note, decided_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(asset_id) DO UPDATE SET
			state = excluded.state,
			reason = excluded.reason,
			note = excluded.note,
			decided_at = excluded.decided_at
	`, d.AssetID, string(d.State), string(d.Reason), d.Note, d.DecidedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to record decision for %s: %w", d.AssetID, err)
	}
	return nil
}

// GetDecision returns the decision for an asset, or ErrNotFound when the
// asset is still undecided.
func (s *Storage) GetDecision(assetID string) (*catalog.Decision, error) {
	row := s.db.QueryRow(`
		SELECT asset_id, state, reason, note, decided_at FROM decisions WHERE asset_id = ?
	`, assetID)
	return scanDecision(row)
}

// ListDecisions returns every decision recorded for a collection's assets.
func (s *Storage) ListDecisions(collectionID string) ([]*catalog.Decision, error) {
	rows, err := s.db.Query(`
		SELECT d.asset_id, d.state, d.reason, d.note, d.decided_at
		FROM decisions d
		JOIN assets a ON a.id = d.asset_id
		WHERE a.collection_id = ?
		ORDER BY d.decided_at
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*catalog.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// DeleteDecision clears an asset's decision, returning it to undecided.
func (s *Storage) DeleteDecision(assetID string) error {
	_, err := s.db.Exec(`DELETE FROM decisions WHERE asset_id = ?`, assetID)
	return err
}

func scanDecision(row rowScanner) (*catalog.Decision, error) {
	d := &catalog.Decision{}
	var state, reason, decidedAt string
	err := row.Scan(&d.AssetID, &state, &reason, &d.Note, &decidedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan decision: %w", err)
	}
	d.State = catalog.DecisionState(state)
	d.Reason = catalog.ReasonCode(reason)
	d.DecidedAt = parseTime(decidedAt)
	return d, nil
}
