// Package loader decodes datasets from JSON or YAML files and keeps them fresh
// by watching the file for changes.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/hirepulse/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// Format identifies a dataset encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor infers the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Decode reads one dataset from r and validates it.
func Decode(r io.Reader, f Format) (*model.Dataset, error) {
	var ds model.Dataset
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&ds); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}

	if err := Validate(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// LoadFile decodes the dataset at path. The dataset name defaults to the
// file's base name.
func LoadFile(path string) (*model.Dataset, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer fh.Close()

	ds, err := Decode(fh, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if ds.Name == "" {
		ds.Name = filepath.Base(path)
	}
	return ds, nil
}

// Validate checks the structural rules the engine relies on: requisition ids
// are present and unique, and every candidate and event names a requisition.
// Records pointing at unknown requisitions are allowed; analysis ignores them.
func Validate(ds *model.Dataset) error {
	seen := make(map[string]struct{}, len(ds.Requisitions))
	for i, r := range ds.Requisitions {
		if r.ID == "" {
			return fmt.Errorf("%w: requisition %d has no id", ErrInvalidDataset, i)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate requisition id %q", ErrInvalidDataset, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	for i, c := range ds.Candidates {
		if c.RequisitionID == "" {
			return fmt.Errorf("%w: candidate %d (%s) has no requisition_id", ErrInvalidDataset, i, c.ID)
		}
	}
	for i, e := range ds.Events {
		if e.RequisitionID == "" {
			return fmt.Errorf("%w: event %d has no requisition_id", ErrInvalidDataset, i)
		}
	}
	return nil
}
