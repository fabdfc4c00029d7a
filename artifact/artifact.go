// Package artifact writes and validates the tabular CSV output consumed by
// downstream systems.
package artifact

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/use-agent/harvest/models"
)

// Header is the fixed artifact header row. Column order is part of the
// downstream contract and must not change.
var Header = []string{"Name", "Group", "Cost", "Income", "Variant", "Asset Path"}

// Write persists one row per record to a CSV file at path. Numeric fields
// are written as plain integers; a missing asset path becomes an empty cell.
func Write(path string, records []*models.ExtractedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return models.NewHarvestError(models.ErrCodeArtifactWrite,
			fmt.Sprintf("create artifact %s", path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return models.NewHarvestError(models.ErrCodeArtifactWrite, "write header", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Name,
			rec.Group,
			strconv.Itoa(rec.Cost),
			strconv.Itoa(rec.Income),
			rec.Variant,
			rec.LocalAssetPath,
		}
		if err := w.Write(row); err != nil {
			return models.NewHarvestError(models.ErrCodeArtifactWrite,
				fmt.Sprintf("write row for %s", rec.Name), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return models.NewHarvestError(models.ErrCodeArtifactWrite, "flush artifact", err)
	}
	return nil
}

// Validate re-reads the artifact and confirms the header matches and at
// least one data row with the right column count exists.
func Validate(path string) error {
	rows, err := readAll(path)
	if err != nil {
		return err
	}
	if len(rows) == 0 || !equalRow(rows[0], Header) {
		return models.NewHarvestError(models.ErrCodeArtifactInvalid,
			fmt.Sprintf("artifact %s has a malformed header", path), nil)
	}
	if len(rows) < 2 {
		return models.NewHarvestError(models.ErrCodeArtifactInvalid,
			fmt.Sprintf("artifact %s contains no data rows", path), nil)
	}
	for i, row := range rows[1:] {
		if len(row) != len(Header) {
			return models.NewHarvestError(models.ErrCodeArtifactInvalid,
				fmt.Sprintf("artifact %s row %d has %d columns, want %d", path, i+1, len(row), len(Header)), nil)
		}
	}
	return nil
}

// Read parses the artifact back into records, preserving row order. Used by
// validation tooling and round-trip tests; diagnostics are not part of the
// on-disk format and come back empty.
func Read(path string) ([]*models.ExtractedRecord, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || !equalRow(rows[0], Header) {
		return nil, models.NewHarvestError(models.ErrCodeArtifactInvalid,
			fmt.Sprintf("artifact %s has a malformed header", path), nil)
	}

	records := make([]*models.ExtractedRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(Header) {
			return nil, models.NewHarvestError(models.ErrCodeArtifactInvalid,
				fmt.Sprintf("artifact %s row %d has %d columns, want %d", path, i+1, len(row), len(Header)), nil)
		}
		cost, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, models.NewHarvestError(models.ErrCodeArtifactInvalid,
				fmt.Sprintf("artifact %s row %d: bad cost %q", path, i+1, row[2]), err)
		}
		income, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, models.NewHarvestError(models.ErrCodeArtifactInvalid,
				fmt.Sprintf("artifact %s row %d: bad income %q", path, i+1, row[3]), err)
		}
		records = append(records, &models.ExtractedRecord{
			Name:           row[0],
			Group:          row[1],
			Cost:           cost,
			Income:         income,
			Variant:        row[4],
			LocalAssetPath: row[5],
			Found:          true,
		})
	}
	return records, nil
}

func readAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewHarvestError(models.ErrCodeArtifactInvalid,
			fmt.Sprintf("open artifact %s", path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // column counts are checked explicitly
	rows, err := r.ReadAll()
	if err != nil {
		return nil, models.NewHarvestError(models.ErrCodeArtifactInvalid,
			fmt.Sprintf("parse artifact %s", path), err)
	}
	return rows, nil
}

func equalRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
