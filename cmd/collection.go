package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"photocull/internal/catalog"
	"photocull/internal/storage"
)

// resolveCollection picks the collection to operate on. With a path it looks
// the collection up by source folder; without one it requires the catalog to
// hold exactly one collection.
func resolveCollection(store *storage.Storage, path string) (*catalog.Collection, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}
		coll, err := store.FindCollectionBySource(abs)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("no collection for %s; run 'photocull scan %s' first", abs, path)
			}
			return nil, err
		}
		return coll, nil
	}

	colls, err := store.ListCollections()
	if err != nil {
		return nil, err
	}
	switch len(colls) {
	case 0:
		return nil, errors.New("catalog is empty; run 'photocull scan <folder>' first")
	case 1:
		return colls[0], nil
	default:
		return nil, fmt.Errorf("catalog holds %d collections; pick one with --collection <folder>", len(colls))
	}
}
