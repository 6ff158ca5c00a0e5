package bench

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Meta identifies one run in the results file.
type Meta struct {
	RunID     string    `yaml:"run_id"`
	Driver    string    `yaml:"driver"`
	Count     int       `yaml:"count"`
	StartedAt time.Time `yaml:"started_at"`
}

type resultDoc struct {
	Scenario   string  `yaml:"scenario"`
	Binding    string  `yaml:"binding"`
	Seconds    float64 `yaml:"seconds"`
	Iterations int     `yaml:"iterations"`
	Completed  int     `yaml:"completed"`
	OpsPerSec  float64 `yaml:"ops_per_sec"`
	Error      string  `yaml:"error,omitempty"`
}

type document struct {
	Meta    `yaml:",inline"`
	Results []resultDoc `yaml:"results"`
}

func WriteResults(w io.Writer, meta Meta, results []Result) error {
	doc := document{Meta: meta, Results: make([]resultDoc, 0, len(results))}
	for _, r := range results {
		rd := resultDoc{
			Scenario:   r.Scenario,
			Binding:    r.Binding,
			Seconds:    r.Elapsed.Seconds(),
			Iterations: r.Iterations,
			Completed:  r.Completed,
			OpsPerSec:  r.OpsPerSec(),
		}
		if r.Err != nil {
			rd.Error = r.Err.Error()
		}
		doc.Results = append(doc.Results, rd)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// SaveResults writes the results file, creating its directory.
func SaveResults(path string, meta Meta, results []Result) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return WriteResults(f, meta, results)
}
