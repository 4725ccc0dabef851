package categorize

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// LoadVendorMap reads a vendor-hint mapping table from CSV. The file is
// versioned alongside the bank rule tables so the taxonomy can evolve
// without a code change. Expected header: hint,category,exclude,reason.
func LoadVendorMap(r io.Reader) ([]VendorMapping, error) {
	var rows []VendorMapping
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse vendor map CSV: %w", err)
	}

	mappings := make([]VendorMapping, 0, len(rows))
	for i, row := range rows {
		row.Hint = strings.ToUpper(strings.TrimSpace(row.Hint))
		if row.Hint == "" {
			continue
		}
		if row.Exclude {
			if row.Reason == "" {
				return nil, fmt.Errorf("vendor map row %d: non-spend entry %q needs a reason", i+2, row.Hint)
			}
		} else if !row.Category.Valid() {
			return nil, fmt.Errorf("vendor map row %d: unknown category %q", i+2, row.Category)
		}
		mappings = append(mappings, row)
	}

	if len(mappings) == 0 {
		return nil, fmt.Errorf("vendor map contains no usable entries")
	}
	return mappings, nil
}

// LoadVendorMapFile is a convenience wrapper over LoadVendorMap.
func LoadVendorMapFile(path string) ([]VendorMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vendor map: %w", err)
	}
	defer f.Close()
	return LoadVendorMap(f)
}
