package config

import (
	"fmt"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/MJE43/lilyhop/internal/game"
)

// LoadTuning returns the default game parameters overlaid with the INI
// file at path. An empty path yields the defaults. Keys absent from the
// file keep their default values.
//
//	[field]
//	max_lilypads = 8
//	min_spacing  = 5
//
//	[frog]
//	jump_power = 0.1
//
//	[biomes]
//	snow = 50
func LoadTuning(path string) (game.Params, error) {
	p := game.DefaultParams()
	if path == "" {
		return p, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return p, fmt.Errorf("config: load tuning %s: %w", path, err)
	}

	r := tuningReader{file: file}
	field := "field"
	r.float(field, "lateral_range", &p.LateralRange)
	r.float(field, "trailing_distance", &p.TrailingDistance)
	r.int(field, "max_lilypads", &p.MaxLilypads)
	r.int(field, "initial_lilypads", &p.InitialLilypads)
	r.float(field, "initial_spacing", &p.InitialSpacing)
	r.float(field, "min_spacing", &p.MinSpacing)
	r.float(field, "max_spacing", &p.MaxSpacing)
	r.float(field, "spawn_spread", &p.SpawnSpread)
	r.float(field, "min_size", &p.MinSize)
	r.float(field, "max_size", &p.MaxSize)
	r.float(field, "radius_scale", &p.RadiusScale)
	r.float(field, "min_speed", &p.MinSpeed)
	r.float(field, "max_speed", &p.MaxSpeed)

	frog := "frog"
	r.float(frog, "jump_power", &p.JumpPower)
	r.float(frog, "gravity", &p.Gravity)
	r.float(frog, "jump_distance", &p.JumpDistance)
	r.float(frog, "lateral_step", &p.LateralStep)
	r.float(frog, "ground_y", &p.GroundY)

	biomes := "biomes"
	r.int(biomes, "snow", &p.Thresholds.Snow)
	r.int(biomes, "desert", &p.Thresholds.Desert)
	r.int(biomes, "space", &p.Thresholds.Space)

	if r.err != nil {
		return p, fmt.Errorf("config: tuning %s: %w", path, r.err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("config: tuning %s: %w", path, err)
	}
	return p, nil
}

// SaveTuning writes p to path in the format LoadTuning reads.
func SaveTuning(path string, p game.Params) error {
	file := ini.Empty()
	set := func(section, key, value string) {
		file.Section(section).Key(key).SetValue(value)
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	set("field", "lateral_range", f(p.LateralRange))
	set("field", "trailing_distance", f(p.TrailingDistance))
	set("field", "max_lilypads", strconv.Itoa(p.MaxLilypads))
	set("field", "initial_lilypads", strconv.Itoa(p.InitialLilypads))
	set("field", "initial_spacing", f(p.InitialSpacing))
	set("field", "min_spacing", f(p.MinSpacing))
	set("field", "max_spacing", f(p.MaxSpacing))
	set("field", "spawn_spread", f(p.SpawnSpread))
	set("field", "min_size", f(p.MinSize))
	set("field", "max_size", f(p.MaxSize))
	set("field", "radius_scale", f(p.RadiusScale))
	set("field", "min_speed", f(p.MinSpeed))
	set("field", "max_speed", f(p.MaxSpeed))

	set("frog", "jump_power", f(p.JumpPower))
	set("frog", "gravity", f(p.Gravity))
	set("frog", "jump_distance", f(p.JumpDistance))
	set("frog", "lateral_step", f(p.LateralStep))
	set("frog", "ground_y", f(p.GroundY))

	set("biomes", "snow", strconv.Itoa(p.Thresholds.Snow))
	set("biomes", "desert", strconv.Itoa(p.Thresholds.Desert))
	set("biomes", "space", strconv.Itoa(p.Thresholds.Space))

	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("config: save tuning %s: %w", path, err)
	}
	return nil
}

// tuningReader keeps the first conversion error.
type tuningReader struct {
	file *ini.File
	err  error
}

func (r *tuningReader) key(section, name string) *ini.Key {
	if r.err != nil {
		return nil
	}
	s, err := r.file.GetSection(section)
	if err != nil || !s.HasKey(name) {
		return nil
	}
	return s.Key(name)
}

func (r *tuningReader) float(section, name string, dst *float64) {
	k := r.key(section, name)
	if k == nil {
		return
	}
	v, err := k.Float64()
	if err != nil {
		r.err = fmt.Errorf("[%s] %s: %q is not a number", section, name, k.String())
		return
	}
	*dst = v
}

func (r *tuningReader) int(section, name string, dst *int) {
	k := r.key(section, name)
	if k == nil {
		return
	}
	v, err := k.Int()
	if err != nil {
		r.err = fmt.Errorf("[%s] %s: %q is not an integer", section, name, k.String())
		return
	}
	*dst = v
}
