package catalog

import (
	"context"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/storage"
)

// Status summarizes the catalog.
type Status struct {
	Products        int64  `json:"products"`
	ActiveProducts  int64  `json:"active_products"`
	IndexedProducts uint64 `json:"indexed_products"`
	DiskUsageBytes  int64  `json:"disk_usage_bytes"`
	DatabasePath    string `json:"database_path,omitempty"`
	IndexPath       string `json:"index_path,omitempty"`
}

// Status reports product counts and the disk usage of the database and index.
func (s *Service) Status(ctx context.Context, databasePath, indexPath string) (*Status, error) {
	total, err := s.store.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.store.CountActiveProducts(ctx)
	if err != nil {
		return nil, err
	}
	indexed, err := s.index.DocCount()
	if err != nil {
		return nil, err
	}
	disk, err := storage.DiskUsageBytes(databasePath, indexPath)
	if err != nil {
		return nil, err
	}
	return &Status{
		Products:        total,
		ActiveProducts:  active,
		IndexedProducts: indexed,
		DiskUsageBytes:  disk,
		DatabasePath:    databasePath,
		IndexPath:       indexPath,
	}, nil
}
