package churn

import (
	"fmt"
	"time"

	"github.com/kbukum/mlopskit/config"
	"github.com/kbukum/mlopskit/httpclient"
	"github.com/kbukum/mlopskit/model"
	"github.com/kbukum/mlopskit/observability"
	"github.com/kbukum/mlopskit/runstore"
	"github.com/kbukum/mlopskit/serving"
	"github.com/kbukum/mlopskit/storage"
	"github.com/kbukum/mlopskit/validation"
)

const (
	DefaultModelName      = "model"
	DefaultMinAccuracy    = 0.50
	DefaultDeployTimeout  = 120 * time.Second
	DefaultTarget         = "Churn"
	DefaultTestSize       = 0.2
	DefaultSeed           = 42
	DefaultSampleRows     = 5
	defaultServiceName    = "churnctl"
	defaultPredictService = "prediction-server"
)

// Config is the churnctl configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Data       DataConfig           `yaml:"data" mapstructure:"data"`
	Model      model.Params         `yaml:"model" mapstructure:"model"`
	Deployment DeploymentConfig     `yaml:"deployment" mapstructure:"deployment"`
	Storage    storage.Config       `yaml:"storage" mapstructure:"storage"`
	Serving    serving.Config       `yaml:"serving" mapstructure:"serving"`
	RunStore   runstore.Config      `yaml:"run_store" mapstructure:"run_store"`
	Prediction httpclient.Config    `yaml:"prediction" mapstructure:"prediction"`
	Tracing    observability.Config `yaml:"tracing" mapstructure:"tracing"`

	// PipelinesDir overrides the embedded pipeline definitions when it holds
	// a file with the pipeline's name.
	PipelinesDir string `yaml:"pipelines_dir" mapstructure:"pipelines_dir"`
}

// DataConfig describes the training dataset.
type DataConfig struct {
	// Path is the CSV file read by ingest_data and dynamic_importer.
	Path        string   `yaml:"path" mapstructure:"path" validate:"required"`
	Target      string   `yaml:"target" mapstructure:"target" validate:"required"`
	DropColumns []string `yaml:"drop_columns" mapstructure:"drop_columns"`
	TestSize    float64  `yaml:"test_size" mapstructure:"test_size" validate:"gt=0,lt=1"`
	Seed        int64    `yaml:"seed" mapstructure:"seed"`
	// SampleRows is how many rows dynamic_importer sends for prediction.
	SampleRows int `yaml:"sample_rows" mapstructure:"sample_rows" validate:"gt=0"`
}

// DeploymentConfig controls the deployment gate and the deploy request.
type DeploymentConfig struct {
	MinAccuracy float64 `yaml:"min_accuracy" mapstructure:"min_accuracy" validate:"gte=0,lte=1"`
	// Secret is forwarded verbatim to the serving platform.
	Secret    string        `yaml:"secret" mapstructure:"secret"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	Replicas  int           `yaml:"replicas" mapstructure:"replicas" validate:"gte=1"`
	ModelName string        `yaml:"model_name" mapstructure:"model_name" validate:"required"`
}

// GetTracingConfig exposes the tracing section to bootstrap.
func (c *Config) GetTracingConfig() observability.Config {
	return c.Tracing
}

// Defaults are the loader defaults for settings where zero is a valid
// choice: a zero gate deploys every model and zero is a valid seed.
func Defaults() map[string]any {
	return map[string]any{
		"deployment.min_accuracy": DefaultMinAccuracy,
		"data.seed":               DefaultSeed,
	}
}

// ApplyDefaults sets defaults for every section. MinAccuracy and Seed are
// left alone; they come from Defaults at load time.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Data.ApplyDefaults()
	applyParamDefaults(&c.Model)
	c.Deployment.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Serving.ApplyDefaults()
	c.RunStore.ApplyDefaults()
	if c.Prediction.Service == "" {
		c.Prediction.Service = defaultPredictService
	}
	c.Prediction.ApplyDefaults()
	c.Tracing.ApplyDefaults()
}

// ApplyDefaults fills zero values.
func (c *DataConfig) ApplyDefaults() {
	if c.Target == "" {
		c.Target = DefaultTarget
	}
	if c.DropColumns == nil {
		c.DropColumns = []string{"customerID"}
	}
	if c.TestSize == 0 {
		c.TestSize = DefaultTestSize
	}
	if c.SampleRows == 0 {
		c.SampleRows = DefaultSampleRows
	}
}

// ApplyDefaults fills zero values.
func (c *DeploymentConfig) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultDeployTimeout
	}
	if c.Replicas == 0 {
		c.Replicas = 1
	}
	if c.ModelName == "" {
		c.ModelName = DefaultModelName
	}
}

func applyParamDefaults(p *model.Params) {
	d := model.DefaultParams()
	if p.LearningRate == 0 {
		p.LearningRate = d.LearningRate
	}
	if p.Epochs == 0 {
		p.Epochs = d.Epochs
	}
	if p.Threshold == 0 {
		p.Threshold = d.Threshold
	}
	if p.L2 == 0 {
		p.L2 = d.L2
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Serving.Validate(); err != nil {
		return err
	}
	if err := c.RunStore.Validate(); err != nil {
		return fmt.Errorf("run_store: %w", err)
	}
	if err := c.Prediction.Validate(); err != nil {
		return fmt.Errorf("prediction: %w", err)
	}
	return validation.Validate(c)
}
