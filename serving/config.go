package serving

import (
	"fmt"
	"time"

	"github.com/kbukum/mlopskit/validation"
)

// Provider constants for well-known serving platforms.
const (
	ProviderKubernetes = "kubernetes"
)

const (
	DefaultProvider     = ProviderKubernetes
	DefaultNamespace    = "default"
	DefaultImage        = "ghcr.io/kbukum/mlopskit-modelserver:latest"
	DefaultPort         = 8080
	DefaultPollInterval = 2 * time.Second
)

// Config holds serving platform configuration.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider" validate:"required"`
	// Kubeconfig is the path to the kubeconfig file. Empty uses in-cluster config.
	Kubeconfig string `yaml:"kubeconfig" mapstructure:"kubeconfig"`
	// Context is the kubeconfig context to use. Empty uses the current context.
	Context   string `yaml:"context" mapstructure:"context"`
	Namespace string `yaml:"namespace" mapstructure:"namespace" validate:"required"`
	// Image is the model server image started for each deployment.
	Image           string `yaml:"image" mapstructure:"image" validate:"required"`
	ImagePullPolicy string `yaml:"image_pull_policy" mapstructure:"image_pull_policy" validate:"omitempty,oneof=Always IfNotPresent Never"`
	Port            int    `yaml:"port" mapstructure:"port" validate:"gt=0,lt=65536"`
	ServiceAccount  string `yaml:"service_account" mapstructure:"service_account"`
	// PollInterval is how often Deploy checks readiness.
	PollInterval  time.Duration     `yaml:"poll_interval" mapstructure:"poll_interval"`
	DefaultLabels map[string]string `yaml:"default_labels" mapstructure:"default_labels"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Image == "" {
		c.Image = DefaultImage
	}
	if c.ImagePullPolicy == "" {
		c.ImagePullPolicy = "IfNotPresent"
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
