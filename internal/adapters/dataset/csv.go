// Package dataset reads the game catalog from CSV into raw records.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/gamefit/internal/domain/model"
)

// Catalog column names after header normalization.
const (
	ColumnGenres      = "genres"
	ColumnWindows     = "windows"
	ColumnMac         = "mac"
	ColumnLinux       = "linux"
	ColumnPrice       = "price"
	ColumnPositive    = "positive"
	ColumnNegative    = "negative"
	ColumnReleaseDate = "release_date"
	ColumnDevelopers  = "developers"
	ColumnCategories  = "categories"
	ColumnTags        = "tags"
	ColumnPlaytime    = "average_playtime_forever"
)

// RequiredColumns must be present in every catalog header.
var RequiredColumns = []string{ColumnGenres, ColumnPositive, ColumnNegative, ColumnPrice, ColumnReleaseDate}

// ctxCheckEvery bounds how many rows are read between cancellation checks.
const ctxCheckEvery = 1024

// NormalizeHeader lower-cases a column name, trims it and replaces spaces
// with underscores.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// Read parses a catalog. A header without every required column is an
// error; missing optional columns and empty cells become invalid fields.
func Read(ctx context.Context, r io.Reader) ([]model.RawGameRecord, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	col := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}
	m := mapping{
		genres: col(ColumnGenres), windows: col(ColumnWindows), mac: col(ColumnMac), linux: col(ColumnLinux),
		price: col(ColumnPrice), positive: col(ColumnPositive), negative: col(ColumnNegative),
		releaseDate: col(ColumnReleaseDate), developers: col(ColumnDevelopers),
		categories: col(ColumnCategories), tags: col(ColumnTags), playtime: col(ColumnPlaytime),
	}

	var out []model.RawGameRecord
	for line := 2; ; line++ {
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		out = append(out, m.record(row))
	}
	return out, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(ctx context.Context, path string) ([]model.RawGameRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(ctx, f)
}

type mapping struct {
	genres, windows, mac, linux int
	price, positive, negative   int
	releaseDate, developers     int
	categories, tags, playtime  int
}

func (m mapping) record(row []string) model.RawGameRecord {
	return model.RawGameRecord{
		Genres:                 cell(row, m.genres),
		Windows:                cell(row, m.windows),
		Mac:                    cell(row, m.mac),
		Linux:                  cell(row, m.linux),
		Price:                  cell(row, m.price),
		Positive:               cell(row, m.positive),
		Negative:               cell(row, m.negative),
		ReleaseDate:            cell(row, m.releaseDate),
		Developers:             cell(row, m.developers),
		Categories:             cell(row, m.categories),
		Tags:                   cell(row, m.tags),
		AveragePlaytimeForever: cell(row, m.playtime),
	}
}

func cell(row []string, i int) model.RawField {
	if i < 0 || i >= len(row) {
		return model.RawField{}
	}
	v := strings.TrimSpace(row[i])
	if v == "" {
		return model.RawField{}
	}
	return model.Raw(v)
}
