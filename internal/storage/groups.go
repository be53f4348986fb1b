package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"photocull/internal/catalog"
)

// ReplaceGroups swaps a collection's variant groups for a freshly matched
// set. Replacement is all-or-nothing; membership positions preserve the
// matcher's member order so SuggestedKeep and similarity stay meaningful.
func (s *Storage) ReplaceGroups(collectionID string, groups []*catalog.Group) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM variant_groups WHERE collection_id = ?`, collectionID); err != nil {
		return fmt.Errorf("failed to clear groups: %w", err)
	}

	groupStmt, err := tx.Prepare(`
		INSERT INTO variant_groups (id, collection_id, kind, similarity, suggested_keep, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare group insert: %w", err)
	}
	defer groupStmt.Close()

	memberStmt, err := tx.Prepare(`
		INSERT INTO asset_groups (asset_id, group_id, position) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare membership insert: %w", err)
	}
	defer memberStmt.Close()

	for _, g := range groups {
		_, err := groupStmt.Exec(g.ID, g.CollectionID, string(g.Kind), g.Similarity,
			g.SuggestedKeep, g.CreatedAt.Format(timeFormat))
		if err != nil {
			return fmt.Errorf("failed to insert group %s: %w", g.ID, err)
		}
		for i, m := range g.Members {
			if _, err := memberStmt.Exec(m.ID, g.ID, i); err != nil {
				return fmt.Errorf("failed to insert membership %s: %w", m.ID, err)
			}
		}
	}

	return tx.Commit()
}

// GetGroups returns a collection's variant groups with members loaded in
// their stored positions.
func (s *Storage) GetGroups(collectionID string) ([]*catalog.Group, error) {
	rows, err := s.db.Query(`
		SELECT id, collection_id, kind, similarity, suggested_keep, created_at
		FROM variant_groups WHERE collection_id = ? ORDER BY rowid
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []*catalog.Group
	for rows.Next() {
		g := &catalog.Group{}
		var kind, createdAt string
		if err := rows.Scan(&g.ID, &g.CollectionID, &kind, &g.Similarity, &g.SuggestedKeep, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		g.Kind = catalog.GroupKind(kind)
		g.CreatedAt = parseTime(createdAt)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, g := range groups {
		members, err := s.groupMembers(g.ID)
		if err != nil {
			return nil, err
		}
		g.Members = members
	}
	return groups, nil
}

// GetGroup returns one variant group by id with members loaded.
func (s *Storage) GetGroup(id string) (*catalog.Group, error) {
	row := s.db.QueryRow(`
		SELECT id, collection_id, kind, similarity, suggested_keep, created_at
		FROM variant_groups WHERE id = ?
	`, id)

	g := &catalog.Group{}
	var kind, createdAt string
	if err := row.Scan(&g.ID, &g.CollectionID, &kind, &g.Similarity, &g.SuggestedKeep, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan group: %w", err)
	}
	g.Kind = catalog.GroupKind(kind)
	g.CreatedAt = parseTime(createdAt)

	members, err := s.groupMembers(g.ID)
	if err != nil {
		return nil, err
	}
	g.Members = members
	return g, nil
}

func (s *Storage) groupMembers(groupID string) ([]*catalog.Asset, error) {
	rows, err := s.db.Query(`
		SELECT `+prefixedAssetColumns+`
		FROM assets a
		JOIN asset_groups ag ON ag.asset_id = a.id
		WHERE ag.group_id = ?
		ORDER BY ag.position
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*catalog.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, a)
	}
	return members, rows.Err()
}
