// Package telemetry records per-generation evolution statistics to CSV and
// snapshots run configuration to YAML, so a host can inspect a run's
// progress and reproduce its hyperparameters without re-deriving them from
// the engine's binary checkpoints.
package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/allanchew/goneat/neat"
)

// GenerationStats is one row of a run's telemetry.csv.
type GenerationStats struct {
	Generation     int64   `csv:"generation"`
	BestFitness    float64 `csv:"best_fitness"`
	MeanFitness    float64 `csv:"mean_fitness"`
	NumSpecies     int     `csv:"num_species"`
	MeanCompatDist float64 `csv:"mean_compat_dist"`
	ElapsedSeconds float64 `csv:"elapsed_seconds"`
}

// Recorder appends GenerationStats rows to a CSV file, writing the header
// on the first call to Record.
type Recorder struct {
	file          *os.File
	headerWritten bool
}

// NewRecorder creates (or truncates) csvPath and returns a Recorder ready
// to append GenerationStats.
func NewRecorder(csvPath string) (*Recorder, error) {
	f, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating %s: %w", csvPath, err)
	}
	return &Recorder{file: f}, nil
}

// Record appends one row of stats to the underlying CSV file.
func (r *Recorder) Record(stats GenerationStats) error {
	rows := []GenerationStats{stats}
	if !r.headerWritten {
		if err := gocsv.Marshal(rows, r.file); err != nil {
			return fmt.Errorf("telemetry: writing generation %d: %w", stats.Generation, err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, r.file); err != nil {
		return fmt.Errorf("telemetry: writing generation %d: %w", stats.Generation, err)
	}
	return nil
}

// Close flushes and closes the underlying CSV file.
func (r *Recorder) Close() error {
	return r.file.Close()
}

// LoadGenerationStats reads every row previously written by Record from
// csvPath, e.g. for offline analysis of a finished run.
func LoadGenerationStats(csvPath string) ([]GenerationStats, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("telemetry: opening %s: %w", csvPath, err)
	}
	defer f.Close()

	var rows []GenerationStats
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("telemetry: parsing %s: %w", csvPath, err)
	}
	return rows, nil
}

// SnapshotConfig dumps cfg as YAML to path, for recording the exact
// hyperparameters a run used alongside its telemetry and checkpoints.
func SnapshotConfig(cfg *neat.EngineConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("telemetry: marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("telemetry: writing %s: %w", path, err)
	}
	return nil
}
