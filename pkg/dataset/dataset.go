// Package dataset reads the documents that seed ashaboard with workers, cases
// and water sources.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashaboard/ashaboard/pkg/ranking"
)

// WorkerStatus is the roster state of an ASHA worker.
type WorkerStatus string

const (
	WorkerActive   WorkerStatus = "active"
	WorkerInactive WorkerStatus = "inactive"
)

// ParseWorkerStatus normalizes and validates a textual worker status.
func ParseWorkerStatus(s string) (WorkerStatus, error) {
	status := WorkerStatus(strings.ToLower(strings.TrimSpace(s)))
	if status != WorkerActive && status != WorkerInactive {
		return "", fmt.Errorf("unknown worker status %q", s)
	}
	return status, nil
}

// Worker is an ASHA health worker on the village roster.
type Worker struct {
	ID      string       `json:"id" yaml:"id"`
	Name    string       `json:"name" yaml:"name"`
	Status  WorkerStatus `json:"status" yaml:"status"`
	Village string       `json:"village,omitempty" yaml:"village,omitempty"`
}

// Dataset is a complete set of records.
type Dataset struct {
	Workers []Worker              `json:"workers" yaml:"workers"`
	Cases   []ranking.Case        `json:"cases" yaml:"cases"`
	Sources []ranking.WaterSource `json:"sources" yaml:"sources"`
}

// Format identifies a serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file name or object key extension.
// Unknown extensions are treated as YAML, which also accepts JSON.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses a dataset document.
func Decode(data []byte, format Format) (*Dataset, error) {
	var ds Dataset
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &ds); err != nil {
			return nil, fmt.Errorf("parsing dataset json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &ds); err != nil {
			return nil, fmt.Errorf("parsing dataset yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", format)
	}
	return &ds, nil
}

// LoadFile reads a dataset from disk.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return Decode(data, FormatFromPath(path))
}

// Validate reports every problem found in the dataset. The ranking engine
// itself accepts anything; this is the data-entry side check.
func (d *Dataset) Validate() error {
	var errs []error

	workerIDs := make(map[string]bool)
	for i, w := range d.Workers {
		if w.ID == "" {
			errs = append(errs, fmt.Errorf("worker %d: missing id", i))
		} else if workerIDs[w.ID] {
			errs = append(errs, fmt.Errorf("worker %s: duplicate id", w.ID))
		}
		workerIDs[w.ID] = true
		if w.Name == "" {
			errs = append(errs, fmt.Errorf("worker %s: missing name", w.ID))
		}
		if _, err := ParseWorkerStatus(string(w.Status)); err != nil {
			errs = append(errs, fmt.Errorf("worker %s: %w", w.ID, err))
		}
	}

	caseIDs := make(map[string]bool)
	for i, c := range d.Cases {
		ref := c.ID
		if ref == "" {
			ref = fmt.Sprintf("#%d", i)
		} else if caseIDs[c.ID] {
			errs = append(errs, fmt.Errorf("case %s: duplicate id", c.ID))
		}
		caseIDs[c.ID] = true
		if !c.Status.Valid() {
			errs = append(errs, fmt.Errorf("case %s: unknown status %q", ref, c.Status))
		}
		if c.Village == "" {
			errs = append(errs, fmt.Errorf("case %s: missing village", ref))
		}
		if c.Age < 0 {
			errs = append(errs, fmt.Errorf("case %s: negative age %d", ref, c.Age))
		}
		if !c.Gender.Valid() {
			errs = append(errs, fmt.Errorf("case %s: unknown gender %q", ref, c.Gender))
		}
	}

	sourceIDs := make(map[string]bool)
	for i, s := range d.Sources {
		ref := s.ID
		if ref == "" {
			ref = fmt.Sprintf("#%d", i)
		} else if sourceIDs[s.ID] {
			errs = append(errs, fmt.Errorf("source %s: duplicate id", s.ID))
		}
		sourceIDs[s.ID] = true
		if !s.Status.Valid() {
			errs = append(errs, fmt.Errorf("source %s: unknown status %q", ref, s.Status))
		}
		if s.Village == "" {
			errs = append(errs, fmt.Errorf("source %s: missing village", ref))
		}
	}

	return errors.Join(errs...)
}
