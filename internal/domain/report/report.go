// Package report summarises how catalog labels (genres, categories, tags)
// are distributed across games.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/gamefit/internal/domain/model"
	"github.com/okian/gamefit/internal/domain/stats"
	"gonum.org/v1/gonum/stat"
)

// Field selects a multi-valued catalog column.
type Field string

// Reportable fields.
const (
	FieldGenres     Field = "genres"
	FieldCategories Field = "categories"
	FieldTags       Field = "tags"
)

// Fields lists every reportable field.
func Fields() []Field { return []Field{FieldGenres, FieldCategories, FieldTags} }

// ParseField resolves a field name.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Fields() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// singular is the CSV header of the value column.
func (f Field) singular() string {
	switch f {
	case FieldGenres:
		return "genre"
	case FieldCategories:
		return "category"
	default:
		return "tag"
	}
}

func (f Field) cell(r model.RawGameRecord) model.RawField {
	switch f {
	case FieldGenres:
		return r.Genres
	case FieldCategories:
		return r.Categories
	default:
		return r.Tags
	}
}

// Mode tells whether only the leading value or every value is counted.
type Mode string

// Modes.
const (
	ModePrimary Mode = "primary"
	ModeAll     Mode = "all"
)

// Unknown stands in for a game without a leading value.
const Unknown = "Unknown"

// Entry is one value with its frequency. Percentage is relative to the
// number of games, rounded to two decimals.
type Entry struct {
	Value      string
	Count      int
	Percentage float64
}

// Distribution is a frequency table, most frequent first.
type Distribution struct {
	Field       Field
	Mode        Mode
	Games       int
	Assignments int
	Entries     []Entry
}

// Summary describes how many values each game carries.
type Summary struct {
	Games int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Split returns the trimmed non-empty comma-separated values of a cell.
func Split(f model.RawField) []string {
	if !f.Valid {
		return nil
	}
	parts := strings.Split(f.Value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Primary counts the leading value of every game. Games without one are
// counted as Unknown.
func Primary(records []model.RawGameRecord, field Field) Distribution {
	counts := make(map[string]int)
	for _, r := range records {
		values := Split(field.cell(r))
		if len(values) == 0 || strings.EqualFold(values[0], Unknown) {
			counts[Unknown]++
			continue
		}
		counts[values[0]]++
	}
	return build(field, ModePrimary, len(records), counts)
}

// All counts every value of every game.
func All(records []model.RawGameRecord, field Field) Distribution {
	counts := make(map[string]int)
	for _, r := range records {
		for _, v := range Split(field.cell(r)) {
			counts[v]++
		}
	}
	return build(field, ModeAll, len(records), counts)
}

// PerGame returns the number of values each game carries, in input order.
func PerGame(records []model.RawGameRecord, field Field) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = len(Split(field.cell(r)))
	}
	return out
}

// Describe summarises counts. Std is the sample deviation; quantiles
// interpolate linearly. An empty input yields a zero Summary.
func Describe(counts []int) Summary {
	if len(counts) == 0 {
		return Summary{}
	}
	x := make([]float64, len(counts))
	for i, c := range counts {
		x[i] = float64(c)
	}
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		std = math.NaN()
	}
	return Summary{
		Games: len(x),
		Mean:  mean,
		Std:   std,
		Min:   stats.Quantile(0, x),
		Q25:   stats.Quantile(0.25, x),
		Q50:   stats.Quantile(0.5, x),
		Q75:   stats.Quantile(0.75, x),
		Max:   stats.Quantile(1, x),
	}
}

func build(field Field, mode Mode, games int, counts map[string]int) Distribution {
	d := Distribution{Field: field, Mode: mode, Games: games, Entries: make([]Entry, 0, len(counts))}
	for v, c := range counts {
		d.Assignments += c
		d.Entries = append(d.Entries, Entry{Value: v, Count: c, Percentage: percentage(c, games)})
	}
	sort.Slice(d.Entries, func(i, j int) bool {
		if d.Entries[i].Count != d.Entries[j].Count {
			return d.Entries[i].Count > d.Entries[j].Count
		}
		return d.Entries[i].Value < d.Entries[j].Value
	})
	return d
}

func percentage(count, games int) float64 {
	if games == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(games)*100*100) / 100
}

// FileName is the conventional output name, e.g. "primary_genre_distribution.csv".
func (d Distribution) FileName() string {
	return string(d.Mode) + "_" + d.Field.singular() + "_distribution.csv"
}

// WriteCSV writes the table with a header row.
func (d Distribution) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{d.Field.singular(), "count", "percentage"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range d.Entries {
		row := []string{e.Value, strconv.Itoa(e.Count), strconv.FormatFloat(e.Percentage, 'f', 2, 64)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %q: %w", e.Value, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
