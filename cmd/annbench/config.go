package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/annbench"
	"github.com/hupe1980/annbench/algorithm"
	"github.com/hupe1980/annbench/algorithm/flatscan"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/distance"
)

// SweepConfig is the YAML description of a full benchmark sweep.
type SweepConfig struct {
	// Output is the directory reports and ground truth are written to.
	Output string `yaml:"output"`

	TargetRecall  float64 `yaml:"target_recall"`
	BatchSize     int     `yaml:"batch_size"`
	MaxSearchTime string  `yaml:"max_search_time"`
	Workers       int     `yaml:"workers"`
	Compress      bool    `yaml:"compress"`

	Dataset DatasetConfig `yaml:"dataset"`

	Ks    []int     `yaml:"ks"`
	Radii []float32 `yaml:"radii"`

	// Algorithms lists backend kinds; empty means every registered kind.
	Algorithms []string `yaml:"algorithms"`
}

// DatasetConfig names the base dataset and the synthetic scales to run.
type DatasetConfig struct {
	Name    string `yaml:"name"`
	Train   string `yaml:"train"`
	Queries string `yaml:"queries"`
	Metric  string `yaml:"metric"`

	// Scales multiplies the base cardinality with jittered copies.
	// Empty means just the base data (scale 1).
	Scales    []int   `yaml:"scales"`
	ErrorRate float32 `yaml:"error_rate"`
	Seed      int64   `yaml:"seed"`
}

// LoadSweepConfig reads and validates a sweep description.
func LoadSweepConfig(path string) (*SweepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg SweepConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Output == "" {
		cfg.Output = "./results"
	}
	if cfg.Dataset.Name == "" {
		return nil, fmt.Errorf("%s: dataset.name is required", path)
	}
	if cfg.Dataset.Train == "" || cfg.Dataset.Queries == "" {
		return nil, fmt.Errorf("%s: dataset.train and dataset.queries are required", path)
	}
	if len(cfg.Scales()) == 0 {
		cfg.Dataset.Scales = []int{1}
	}
	if len(cfg.Algorithms) == 0 {
		for _, kind := range algorithm.Kinds() {
			cfg.Algorithms = append(cfg.Algorithms, string(kind))
		}
	}
	return &cfg, nil
}

// Scales returns the configured scale factors.
func (c *SweepConfig) Scales() []int {
	return c.Dataset.Scales
}

// RunnerOptions translates the config into runner options.
func (c *SweepConfig) RunnerOptions(logger *annbench.Logger) ([]annbench.Option, error) {
	opts := []annbench.Option{annbench.WithLogger(logger)}

	if c.TargetRecall > 0 {
		opts = append(opts, annbench.WithTargetRecall(c.TargetRecall))
	}
	if c.BatchSize > 0 {
		opts = append(opts, annbench.WithBatchSize(c.BatchSize))
	}
	if c.MaxSearchTime != "" {
		d, err := time.ParseDuration(c.MaxSearchTime)
		if err != nil {
			return nil, fmt.Errorf("max_search_time: %w", err)
		}
		opts = append(opts, annbench.WithMaxSearchTime(d))
	}
	if c.Workers > 0 {
		opts = append(opts, annbench.WithWorkers(c.Workers))
	}
	if c.Compress {
		opts = append(opts, annbench.WithCompression())
	}
	return opts, nil
}

// Units expands the config into oracle units (one per scale, run first)
// and the approximate units scored against them.
func (c *SweepConfig) Units() (oracles, units []annbench.Unit, err error) {
	metric, err := distance.Parse(c.Dataset.Metric)
	if err != nil {
		return nil, nil, err
	}

	train, err := loadMatrix(c.Dataset.Train)
	if err != nil {
		return nil, nil, fmt.Errorf("load train: %w", err)
	}
	queries, err := loadMatrix(c.Dataset.Queries)
	if err != nil {
		return nil, nil, fmt.Errorf("load queries: %w", err)
	}

	rng := rand.New(rand.NewSource(c.Dataset.Seed))

	for _, scale := range c.Scales() {
		scaled, err := dataset.Scale(train, scale, c.Dataset.ErrorRate, rng)
		if err != nil {
			return nil, nil, err
		}

		base := annbench.Unit{
			Dataset: c.Dataset.Name,
			Scale:   scale,
			Metric:  metric,
			Train:   scaled,
			Queries: queries,
			Ks:      c.Ks,
			Radii:   c.Radii,
		}

		oracle := base
		oracle.Algorithm = flatscan.New()
		oracle.Oracle = true
		oracles = append(oracles, oracle)

		for _, name := range c.Algorithms {
			if name == string(flatscan.Kind) {
				continue // covered by the oracle unit
			}
			alg, err := algorithm.New(algorithm.Kind(name))
			if err != nil {
				return nil, nil, err
			}

			unit := base
			unit.Algorithm = alg
			if !alg.SupportsRangeSearch() {
				unit.Radii = nil
			}
			units = append(units, unit)
		}
	}
	return oracles, units, nil
}

func loadMatrix(path string) (*dataset.Matrix, error) {
	if strings.HasSuffix(path, ".json") || strings.HasSuffix(path, ".json.gz") {
		return dataset.OpenJSON(path)
	}
	return dataset.Open(path)
}
