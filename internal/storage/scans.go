package storage

import (
	"fmt"
	"time"
)

// ScanRecord summarizes one completed scan of a collection.
type ScanRecord struct {
	ID              int64
	CollectionID    string
	ScannedAt       time.Time
	TotalAssets     int
	TotalGroups     int
	TotalDuplicates int
}

// RecordScan appends a scan summary to the collection's history.
func (s *Storage) RecordScan(collectionID string, totalAssets, totalGroups, totalDuplicates int) error {
	_, err := s.db.Exec(`
		INSERT INTO scan_history (collection_id, total_assets, total_groups, total_duplicates)
		VALUES (?, ?, ?, ?)
	`, collectionID, totalAssets, totalGroups, totalDuplicates)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	return nil
}

// ScanHistory returns a collection's scan summaries, newest first.
func (s *Storage) ScanHistory(collectionID string) ([]*ScanRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, collection_id, scanned_at, total_assets, total_groups, total_duplicates
		FROM scan_history WHERE collection_id = ? ORDER BY id DESC
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var records []*ScanRecord
	for rows.Next() {
		r := &ScanRecord{}
		var scannedAt string
		if err := rows.Scan(&r.ID, &r.CollectionID, &scannedAt, &r.TotalAssets, &r.TotalGroups, &r.TotalDuplicates); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		// sqlite's CURRENT_TIMESTAMP format
		r.ScannedAt, _ = time.Parse("2006-01-02 15:04:05", scannedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}
