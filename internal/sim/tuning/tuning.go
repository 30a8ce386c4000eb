package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"voxedit.ai/internal/sim/edit"
	"voxedit.ai/internal/sim/edit/buildqueue"
	"voxedit.ai/internal/sim/edit/history"
	"voxedit.ai/internal/sim/voxel"
	"voxedit.ai/internal/sim/voxmap"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	Grid          voxel.Dims `yaml:"grid" json:"grid"`
	DrainPeriodMs int        `yaml:"drain_period_ms" json:"drain_period_ms"`
	DrainBatch    int        `yaml:"drain_batch" json:"drain_batch"`
	MaxUndo       int        `yaml:"max_undo" json:"max_undo"`
	PasteOffset   []int      `yaml:"paste_offset" json:"paste_offset"`
	DenyPolicy    string     `yaml:"deny_policy" json:"deny_policy"`
	// Seed fixes every session's random source. Zero uses the clock.
	Seed int64 `yaml:"seed" json:"seed"`

	Zones []voxmap.Zone `yaml:"zones" json:"zones"`
}

func Defaults() Tuning {
	var t Tuning
	t.applyDefaults()
	return t
}

func (t *Tuning) applyDefaults() {
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = "1.0"
	}
	if t.Grid.W <= 0 {
		t.Grid.W = voxel.DefaultDims().W
	}
	if t.Grid.D <= 0 {
		t.Grid.D = voxel.DefaultDims().D
	}
	if t.Grid.H <= 0 {
		t.Grid.H = voxel.DefaultDims().H
	}
	if t.DrainPeriodMs <= 0 {
		t.DrainPeriodMs = 10
	}
	if t.DrainBatch <= 0 {
		t.DrainBatch = buildqueue.DefaultBatch
	}
	if t.MaxUndo <= 0 {
		t.MaxUndo = history.DefaultDepth
	}
	if len(t.PasteOffset) != 3 {
		t.PasteOffset = []int{1, 1, 2}
	}
	if t.DenyPolicy == "" {
		t.DenyPolicy = "abort"
	}
}

func (t Tuning) validate() error {
	if _, ok := buildqueue.ParseDenyPolicy(t.DenyPolicy); !ok {
		return fmt.Errorf("deny_policy %q: want abort or skip", t.DenyPolicy)
	}
	for i, z := range t.Zones {
		if z.Owner == "" {
			return fmt.Errorf("zones[%d]: owner is required", i)
		}
	}
	return nil
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyDefaults()
	if err := t.validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) DrainPeriod() time.Duration {
	return time.Duration(t.DrainPeriodMs) * time.Millisecond
}

// EditOptions maps the tuning onto per-session options.
func (t Tuning) EditOptions() edit.Options {
	policy, _ := buildqueue.ParseDenyPolicy(t.DenyPolicy)
	opts := edit.Options{
		Dims:       t.Grid,
		UndoDepth:  t.MaxUndo,
		Batch:      t.DrainBatch,
		DenyPolicy: policy,
		Seed:       t.Seed,
	}
	if len(t.PasteOffset) == 3 {
		opts.PasteOffset = voxel.Point{X: t.PasteOffset[0], Y: t.PasteOffset[1], Z: t.PasteOffset[2]}
	}
	return opts
}
