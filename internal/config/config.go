// Package config handles engine configuration loading and management.
package config

// Config holds all engine settings.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Blade   BladeConfig   `yaml:"blade"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig holds worker pool, partitioning and cut tolerances.
type EngineConfig struct {
	Workers             int     `yaml:"workers"`    // 0 = one per CPU
	Partitions          int     `yaml:"partitions"` // per submesh
	PropagationRounds   int     `yaml:"propagation_rounds"`
	BufferSlots         int     `yaml:"buffer_slots"` // per cut buffer
	CutDistance         float32 `yaml:"cut_distance"`
	AdjustFraction      float32 `yaml:"adjust_fraction"`
	ParallelTolerance   float32 `yaml:"parallel_tolerance"`
	CoincidentTolerance float32 `yaml:"coincident_tolerance"`
}

// MeshConfig describes the procedural block the simulator cuts.
type MeshConfig struct {
	NX        int     `yaml:"nx"`
	NY        int     `yaml:"ny"`
	NZ        int     `yaml:"nz"`
	Size      float32 `yaml:"size"` // cube edge length
	Submeshes int     `yaml:"submeshes"`
}

// BladeConfig describes the blade sweep.
type BladeConfig struct {
	Frames int        `yaml:"frames"`
	Step   float32    `yaml:"step"`   // travel per frame
	Normal [3]float32 `yaml:"normal"` // cut plane normal
	Offset float32    `yaml:"offset"` // plane offset from the block center
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:             0,
			Partitions:          4,
			PropagationRounds:   8,
			BufferSlots:         1 << 20,
			CutDistance:         0.01,
			AdjustFraction:      0.2,
			ParallelTolerance:   0.1,
			CoincidentTolerance: 1e-4,
		},
		Mesh: MeshConfig{
			NX:        8,
			NY:        8,
			NZ:        8,
			Size:      0.125,
			Submeshes: 2,
		},
		Blade: BladeConfig{
			Frames: 60,
			Step:   0.05,
			Normal: [3]float32{1, 0.3, 0.2},
			Offset: 0.013,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
