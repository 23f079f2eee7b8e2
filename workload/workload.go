// Package workload loads process sets from YAML and CSV files.
package workload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/schedsim/process"
)

// A Workload is a set of processes and, optionally, the scheduling settings
// it was written for.
type Workload struct {
	Algorithm string
	Quantum   int
	Processes []*process.Process
}

type yamlWorkload struct {
	Algorithm string        `yaml:"algorithm"`
	Quantum   int           `yaml:"quantum"`
	Processes []yamlProcess `yaml:"processes"`
}

type yamlProcess struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	Burst   int    `yaml:"burst"`
	Arrival int    `yaml:"arrival"`
}

// Load reads a workload file. Files ending in .csv are read as CSV, all others
// as YAML.
func Load(path string) (*Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workload: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	default:
		return ReadYAML(f)
	}
}

// ReadYAML parses a YAML workload:
//
//	algorithm: SRTF
//	quantum: 2
//	processes:
//	  - {id: 1, name: Editor, burst: 5, arrival: 0}
func ReadYAML(r io.Reader) (*Workload, error) {
	var doc yamlWorkload

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &process.ValidationError{
				Field:  "processes",
				Reason: "no processes given",
			}
		}

		return nil, fmt.Errorf("parse workload: %w", err)
	}

	w := &Workload{Algorithm: doc.Algorithm, Quantum: doc.Quantum}
	for _, p := range doc.Processes {
		proc, err := process.New(p.ID, p.Name, p.Burst, p.Arrival)
		if err != nil {
			return nil, err
		}

		w.Processes = append(w.Processes, proc)
	}

	if err := process.ValidateSet(w.Processes); err != nil {
		return nil, err
	}

	return w, nil
}

// ReadCSV parses a CSV workload with the header id,name,burst,arrival. The
// columns may come in any order; name is optional.
func ReadCSV(r io.Reader) (*Workload, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse workload: %w", err)
	}

	if len(rows) == 0 {
		return nil, errors.New("parse workload: missing header")
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{"id", "burst", "arrival"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("parse workload: missing column %q",
				required)
		}
	}

	w := &Workload{}
	for line, row := range rows[1:] {
		proc, err := parseRow(row, columns)
		if err != nil {
			return nil, fmt.Errorf("parse workload: line %d: %w", line+2, err)
		}

		w.Processes = append(w.Processes, proc)
	}

	if err := process.ValidateSet(w.Processes); err != nil {
		return nil, err
	}

	return w, nil
}

func parseRow(row []string, columns map[string]int) (*process.Process, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}

		return strings.TrimSpace(row[i])
	}

	var numbers [3]int
	for i, name := range []string{"id", "burst", "arrival"} {
		n, err := strconv.Atoi(field(name))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}

		numbers[i] = n
	}

	return process.New(numbers[0], field("name"), numbers[1], numbers[2])
}
