package segmentation

import "github.com/kbukum/mlopskit/validation"

const (
	DefaultFoldColumn     = "fold"
	DefaultEmptyColumn    = "empty"
	DefaultTrainBatchSize = 32
	DefaultValidBatchSize = 64
	DefaultWorkers        = 4
	DefaultDebugTrainRows = 160
	DefaultDebugValidRows = 60
	// DebugBatchSize replaces both configured batch sizes in debug mode.
	DebugBatchSize = 20
)

// Config controls how a fold is split and batched.
type Config struct {
	FoldColumn     string `yaml:"fold_column" mapstructure:"fold_column" validate:"required"`
	EmptyColumn    string `yaml:"empty_column" mapstructure:"empty_column" validate:"required"`
	TrainBatchSize int    `yaml:"train_batch_size" mapstructure:"train_batch_size" validate:"gt=0"`
	ValidBatchSize int    `yaml:"valid_batch_size" mapstructure:"valid_batch_size" validate:"gt=0"`
	// Workers is how many batches are assembled ahead of the consumer.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gt=0"`
	// Seed drives the per-epoch shuffle of the training loader.
	Seed int64 `yaml:"seed" mapstructure:"seed"`

	// Debug truncates both subsets, drops rows flagged empty and forces
	// DebugBatchSize.
	Debug          bool `yaml:"debug" mapstructure:"debug"`
	DebugTrainRows int  `yaml:"debug_train_rows" mapstructure:"debug_train_rows" validate:"gte=0"`
	DebugValidRows int  `yaml:"debug_valid_rows" mapstructure:"debug_valid_rows" validate:"gte=0"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.FoldColumn == "" {
		c.FoldColumn = DefaultFoldColumn
	}
	if c.EmptyColumn == "" {
		c.EmptyColumn = DefaultEmptyColumn
	}
	if c.TrainBatchSize == 0 {
		c.TrainBatchSize = DefaultTrainBatchSize
	}
	if c.ValidBatchSize == 0 {
		c.ValidBatchSize = DefaultValidBatchSize
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.DebugTrainRows == 0 {
		c.DebugTrainRows = DefaultDebugTrainRows
	}
	if c.DebugValidRows == 0 {
		c.DebugValidRows = DefaultDebugValidRows
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
