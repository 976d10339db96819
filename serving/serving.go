package serving

import (
	"context"
	"time"
)

// State is the lifecycle state of a prediction server.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateFailed  State = "failed"
)

// ImplementationSKLearn names the scikit-learn compatible model server,
// the one cmd/modelserver provides.
const ImplementationSKLearn = "SKLEARN_SERVER"

// Query selects the servers created by one pipeline step for one model.
type Query struct {
	PipelineName string
	StepName     string
	ModelName    string
}

// DeploymentConfig describes a prediction server to start.
type DeploymentConfig struct {
	PipelineName string `json:"pipeline_name" validate:"required"`
	StepName     string `json:"step_name" validate:"required"`
	ModelName    string `json:"model_name" validate:"required"`
	// RunID is the pipeline run that produced the model.
	RunID          string `json:"run_id"`
	Replicas       int    `json:"replicas" validate:"gte=1"`
	Implementation string `json:"implementation" validate:"required"`
	// ModelURI is the artifact location of the classifier to serve.
	ModelURI string `json:"model_uri" validate:"required"`
	// SecretName is passed to the platform verbatim; it names credentials
	// the server needs to read the artifact store.
	SecretName string `json:"secret_name"`
}

// Query returns the query that finds servers created with this config.
func (c DeploymentConfig) Query() Query {
	return Query{PipelineName: c.PipelineName, StepName: c.StepName, ModelName: c.ModelName}
}

// ServiceRecord is the platform's view of one prediction server.
type ServiceRecord struct {
	UUID          string
	State         State
	PredictionURL string
	LastError     string
	Config        DeploymentConfig
	CreatedAt     time.Time
}

// IsRunning reports whether the server accepts prediction requests.
func (r ServiceRecord) IsRunning() bool { return r.State == StateRunning }

// IsFailed reports whether the platform gave up on the server.
func (r ServiceRecord) IsFailed() bool { return r.State == StateFailed }

// Deployer manages prediction servers on a serving platform.
type Deployer interface {
	// Find returns matching servers, newest first.
	Find(ctx context.Context, q Query) ([]ServiceRecord, error)
	// Deploy starts a server and waits up to timeout for it to run. A
	// server not running in time is DEPLOYMENT_TIMEOUT. Older servers for
	// the same query are replaced once the new one runs.
	Deploy(ctx context.Context, cfg DeploymentConfig, timeout time.Duration) (*ServiceRecord, error)
	// Delete removes the server with the given uuid.
	Delete(ctx context.Context, uuid string) error
}
