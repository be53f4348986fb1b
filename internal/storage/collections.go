package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"photocull/internal/catalog"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

const timeFormat = time.RFC3339Nano

// EnsureCollection returns the collection rooted at sourcePath, creating it
// if necessary.
func (s *Storage) EnsureCollection(name, sourcePath, outputPath string) (*catalog.Collection, error) {
	existing, err := s.FindCollectionBySource(sourcePath)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	c := &catalog.Collection{
		ID:         catalog.NewCollectionID(),
		Name:       name,
		SourcePath: sourcePath,
		OutputPath: outputPath,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.CreateCollection(c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCollection inserts a new collection.
func (s *Storage) CreateCollection(c *catalog.Collection) error {
	excludes, err := json.Marshal(c.ExcludePatterns)
	if err != nil {
		return fmt.Errorf("failed to encode exclude patterns: %w", err)
	}
	types, err := json.Marshal(c.FileTypes)
	if err != nil {
		return fmt.Errorf("failed to encode file types: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO collections (id, name, source_path, output_path, exclude_patterns, file_types, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.Name, c.SourcePath, c.OutputPath, string(excludes), string(types),
		c.CreatedAt.Format(timeFormat), c.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	return nil
}

// FindCollectionBySource looks a collection up by its source directory.
func (s *Storage) FindCollectionBySource(sourcePath string) (*catalog.Collection, error) {
	row := s.db.QueryRow(`
		SELECT id, name, source_path, output_path, exclude_patterns, file_types, created_at, updated_at
		FROM collections WHERE source_path = ?
	`, sourcePath)
	return scanCollection(row)
}

// GetCollection looks a collection up by id.
func (s *Storage) GetCollection(id string) (*catalog.Collection, error) {
	row := s.db.QueryRow(`
		SELECT id, name, source_path, output_path, exclude_patterns, file_types, created_at, updated_at
		FROM collections WHERE id = ?
	`, id)
	return scanCollection(row)
}

// ListCollections returns every collection ordered by name.
func (s *Storage) ListCollections() ([]*catalog.Collection, error) {
	rows, err := s.db.Query(`
		SELECT id, name, source_path, output_path, exclude_patterns, file_types, created_at, updated_at
		FROM collections ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	var collections []*catalog.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row rowScanner) (*catalog.Collection, error) {
	c := &catalog.Collection{}
	var excludes, types, createdAt, updatedAt string
	err := row.Scan(&c.ID, &c.Name, &c.SourcePath, &c.OutputPath, &excludes, &types, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}

	json.Unmarshal([]byte(excludes), &c.ExcludePatterns)
	json.Unmarshal([]byte(types), &c.FileTypes)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

func parseTime(value string) time.Time {
	t, _ := time.Parse(timeFormat, value)
	return t
}
