package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"photocull/internal/catalog"
)

const assetColumns = `id, collection_id, path, size, width, height, content_hash,
	perceptual_hash, has_perceptual, thumbnail_path, exif_json, mod_time,
	file_created_at, created_at, updated_at`

const prefixedAssetColumns = `a.id, a.collection_id, a.path, a.size, a.width, a.height,
	a.content_hash, a.perceptual_hash, a.has_perceptual, a.thumbnail_path, a.exif_json,
	a.mod_time, a.file_created_at, a.created_at, a.updated_at`

// SaveAssets upserts a batch of assets in one transaction. An asset already
// known by (collection, path) keeps its original id and discovery timestamp;
// everything else is refreshed. The canonical stored id is written back into
// each in-memory asset, so a rescan's fresh ids are replaced by the ids
// assigned at first discovery.
func (s *Storage) SaveAssets(assets []*catalog.Asset) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO assets (` + assetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, path) DO UPDATE SET
			size = excluded.size,
			width = excluded.width,
			height = excluded.height,
			content_hash = excluded.content_hash,
			perceptual_hash = excluded.perceptual_hash,
			has_perceptual = excluded.has_perceptual,
			thumbnail_path = excluded.thumbnail_path,
			exif_json = excluded.exif_json,
			mod_time = excluded.mod_time,
			file_created_at = excluded.file_created_at,
			updated_at = excluded.updated_at
		RETURNING id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range assets {
		exifJSON := ""
		if a.Exif != nil {
			raw, err := json.Marshal(a.Exif)
			if err != nil {
				return fmt.Errorf("failed to encode exif for %s: %w", a.Path, err)
			}
			exifJSON = string(raw)
		}

		var storedID string
		err := stmt.QueryRow(
			a.ID, a.CollectionID, a.Path, a.Size, a.Width, a.Height, a.ContentHash,
			int64(a.PerceptualHash), boolToInt(a.HasPerceptual), a.ThumbnailPath,
			exifJSON, a.ModTime.Format(timeFormat), a.FileCreatedAt.Format(timeFormat),
			a.CreatedAt.Format(timeFormat), a.UpdatedAt.Format(timeFormat),
		).Scan(&storedID)
		if err != nil {
			return fmt.Errorf("failed to insert asset %s: %w", a.Path, err)
		}
		a.ID = storedID
	}

	return tx.Commit()
}

// UpdateAsset rewrites the mutable fields of one asset by id.
func (s *Storage) UpdateAsset(a *catalog.Asset) error {
	exifJSON := ""
	if a.Exif != nil {
		raw, err := json.Marshal(a.Exif)
		if err != nil {
			return fmt.Errorf("failed to encode exif: %w", err)
		}
		exifJSON = string(raw)
	}

	res, err := s.db.Exec(`
		UPDATE assets SET size = ?, width = ?, height = ?, content_hash = ?,
			perceptual_hash = ?, has_perceptual = ?, thumbnail_path = ?,
			exif_json = ?, mod_time = ?, file_created_at = ?, updated_at = ?
		WHERE id = ?
	`,
		a.Size, a.Width, a.Height, a.ContentHash, int64(a.PerceptualHash),
		boolToInt(a.HasPerceptual), a.ThumbnailPath, exifJSON,
		a.ModTime.Format(timeFormat), a.FileCreatedAt.Format(timeFormat),
		time.Now().UTC().Format(timeFormat), a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAsset returns one asset by id.
func (s *Storage) GetAsset(id string) (*catalog.Asset, error) {
	row := s.db.QueryRow(`SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)
	return scanAsset(row)
}

// FindAssetByPrefix resolves a unique asset id prefix to the full asset.
// Ambiguous prefixes are an error, unknown ones are ErrNotFound.
func (s *Storage) FindAssetByPrefix(prefix string) (*catalog.Asset, error) {
	rows, err := s.db.Query(`
		SELECT `+assetColumns+` FROM assets WHERE id LIKE ? || '%' LIMIT 2
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var matches []*catalog.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("asset id prefix %q is ambiguous", prefix)
	}
}

// GetAssetsByCollection returns a collection's assets in discovery order
// (insertion order of first sighting).
func (s *Storage) GetAssetsByCollection(collectionID string) ([]*catalog.Asset, error) {
	rows, err := s.db.Query(`
		SELECT `+assetColumns+` FROM assets WHERE collection_id = ? ORDER BY rowid
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []*catalog.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// DeleteAsset removes an asset row (its group memberships and decision go
// with it).
func (s *Storage) DeleteAsset(id string) error {
	_, err := s.db.Exec(`DELETE FROM assets WHERE id = ?`, id)
	return err
}

// DeleteAssetByPath removes an asset row by collection and path.
func (s *Storage) DeleteAssetByPath(collectionID, path string) error {
	_, err := s.db.Exec(`DELETE FROM assets WHERE collection_id = ? AND path = ?`, collectionID, path)
	return err
}

func scanAsset(row rowScanner) (*catalog.Asset, error) {
	a := &catalog.Asset{}
	var pHash int64
	var hasPerceptual int
	var exifJSON, modTime, fileCreatedAt, createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.CollectionID, &a.Path, &a.Size, &a.Width, &a.Height,
		&a.ContentHash, &pHash, &hasPerceptual, &a.ThumbnailPath, &exifJSON,
		&modTime, &fileCreatedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}

	a.PerceptualHash = uint64(pHash)
	a.HasPerceptual = hasPerceptual == 1
	if exifJSON != "" {
		var exif catalog.ExifData
		if json.Unmarshal([]byte(exifJSON), &exif) == nil {
			a.Exif = &exif
		}
	}
	a.ModTime = parseTime(modTime)
	a.FileCreatedAt = parseTime(fileCreatedAt)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
