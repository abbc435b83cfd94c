package dataset

import (
	"encoding/gob"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"supermarket-dashboard/internal/models"
)

const cacheVersion = "v2"

type cacheFile struct {
	Records  []models.SaleRecord
	Columns  ColumnMap
	StoredAt time.Time
}

func cacheFilename(dir, csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(dir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func saveToCache(dir, csvPath string, cols ColumnMap, records []models.SaleRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(cacheFilename(dir, csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(cacheFile{Records: records, Columns: cols, StoredAt: time.Now()})
}

// loadFromCache returns cached records only when the cache is newer than the CSV
// and was written under the same column map.
func loadFromCache(dir, csvPath string, cols ColumnMap) ([]models.SaleRecord, error) {
	info, err := os.Stat(csvPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(cacheFilename(dir, csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cached cacheFile
	if err := gob.NewDecoder(file).Decode(&cached); err != nil {
		return nil, err
	}

	if !info.ModTime().Before(cached.StoredAt) {
		return nil, errors.New("cache is stale")
	}
	if !maps.Equal(cached.Columns, cols) {
		return nil, errors.New("cache column map differs")
	}
	if len(cached.Records) == 0 {
		return nil, ErrEmptySource
	}
	return cached.Records, nil
}
