package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for dataset files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// LoadFile reads a dataset from a .json, .yaml or .yml file holding both
// "competitors" and "legacy" lists.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var ds Dataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &ds); err != nil {
			return nil, fmt.Errorf("parse json dataset %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &ds); err != nil {
			return nil, fmt.Errorf("parse yaml dataset %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return &ds, nil
}

// LoadFiles reads the competitor and legacy lists from separate files. CSV
// files hold one list each; JSON/YAML files contribute whichever lists they
// contain. An empty path is skipped.
func LoadFiles(competitorPath, legacyPath string) (*Dataset, error) {
	ds := &Dataset{}

	if competitorPath != "" {
		if isCSV(competitorPath) {
			rows, err := readCSVFile(competitorPath, ReadCompetitorsCSV)
			if err != nil {
				return nil, err
			}
			ds.Competitors = rows
		} else {
			loaded, err := LoadFile(competitorPath)
			if err != nil {
				return nil, err
			}
			ds.Competitors = loaded.Competitors
			if legacyPath == "" {
				ds.Legacy = loaded.Legacy
			}
		}
	}

	if legacyPath != "" {
		if isCSV(legacyPath) {
			rows, err := readCSVFile(legacyPath, ReadLegacyCSV)
			if err != nil {
				return nil, err
			}
			ds.Legacy = rows
		} else {
			loaded, err := LoadFile(legacyPath)
			if err != nil {
				return nil, err
			}
			ds.Legacy = loaded.Legacy
		}
	}

	return ds, nil
}

// Validate checks that every record carries its required fields.
func (d *Dataset) Validate() error {
	for i, m := range d.Competitors {
		if strings.TrimSpace(m.CompetitorModel) == "" {
			return fmt.Errorf("competitor %d: competitor_model is required", i)
		}
		if strings.TrimSpace(m.AxisReplacement) == "" {
			return fmt.Errorf("competitor %d (%s): axis_replacement is required", i, m.CompetitorModel)
		}
	}
	for i, m := range d.Legacy {
		if strings.TrimSpace(m.LegacyModel) == "" {
			return fmt.Errorf("legacy %d: legacy_model is required", i)
		}
		if strings.TrimSpace(m.Replacement) == "" {
			return fmt.Errorf("legacy %d (%s): replacement is required", i, m.LegacyModel)
		}
	}
	return nil
}

// ReadCompetitorsCSV parses competitor mappings. The header row names the
// columns; competitor_model and axis_replacement are required. Features are
// separated by ';' or '|'.
func ReadCompetitorsCSV(r io.Reader) ([]CompetitorMapping, error) {
	var out []CompetitorMapping
	err := readCSV(r, []string{"competitor_model", "axis_replacement"}, func(line int, get func(string) string) error {
		m := CompetitorMapping{
			CompetitorModel: get("competitor_model"),
			Manufacturer:    get("manufacturer"),
			AxisReplacement: get("axis_replacement"),
			Features:        splitFeatures(get("features")),
			MatchConfidence: get("match_confidence"),
			CompetitorType:  get("competitor_type"),
			Resolution:      get("resolution"),
			Notes:           get("notes"),
		}
		if m.CompetitorModel == "" || m.AxisReplacement == "" {
			return fmt.Errorf("line %d: competitor_model and axis_replacement are required", line)
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

// ReadLegacyCSV parses legacy mappings; legacy_model and replacement are required.
func ReadLegacyCSV(r io.Reader) ([]LegacyMapping, error) {
	var out []LegacyMapping
	err := readCSV(r, []string{"legacy_model", "replacement"}, func(line int, get func(string) string) error {
		m := LegacyMapping{
			LegacyModel: get("legacy_model"),
			Replacement: get("replacement"),
			Notes:       get("notes"),
		}
		if m.LegacyModel == "" || m.Replacement == "" {
			return fmt.Errorf("line %d: legacy_model and replacement are required", line)
		}
		if y := get("discontinued_year"); y != "" {
			year, err := strconv.Atoi(y)
			if err != nil {
				return fmt.Errorf("line %d: invalid discontinued_year %q", line, y)
			}
			m.DiscontinuedYear = year
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

func readCSV(r io.Reader, required []string, row func(line int, get func(string) string) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		name = strings.ReplaceAll(name, " ", "_")
		columns[name] = i
	}
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			return fmt.Errorf("csv header missing column %q", col)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("read csv line %d: %w", line, err)
		}

		get := func(col string) string {
			i, ok := columns[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		if err := row(line, get); err != nil {
			return err
		}
	}
}

func readCSVFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func splitFeatures(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' })
	features := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			features = append(features, p)
		}
	}
	return features
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}
