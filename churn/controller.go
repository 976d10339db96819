package churn

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/mlopskit/artifact"
	"github.com/kbukum/mlopskit/dag"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/observability"
	"github.com/kbukum/mlopskit/serving"
)

// Options selects what a Controller run does. The status report is always
// printed.
type Options struct {
	Deploy  bool
	Predict bool
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Deployer  serving.Deployer
	Predictor serving.Predictor
	// Materializer persists step outputs. The deployed model URI is the
	// location it wrote the trained classifier to.
	Materializer *artifact.Materializer
	// Recorder is optional.
	Recorder dag.Recorder
	// Metrics is optional.
	Metrics *observability.Metrics
	// Out receives the status report. Defaults to stdout.
	Out io.Writer
}

// Controller runs the churn pipelines and reports the prediction server.
type Controller struct {
	steps     *steps
	engine    *dag.Engine
	deploy    *dag.Pipeline
	inference *dag.Pipeline
	out       io.Writer
	log       *logger.Logger
}

// NewController builds both pipelines from their definitions.
func NewController(cfg *Config, deps Deps, log *logger.Logger) (*Controller, error) {
	switch {
	case deps.Deployer == nil:
		return nil, fmt.Errorf("churn: deployer is required")
	case deps.Predictor == nil:
		return nil, fmt.Errorf("churn: predictor is required")
	case deps.Materializer == nil:
		return nil, fmt.Errorf("churn: materializer is required")
	}
	log = log.WithComponent("churn")

	s := &steps{
		cfg:       cfg,
		deployer:  deps.Deployer,
		predictor: deps.Predictor,
		log:       log,
	}
	registry := dag.NewRegistry()
	s.register(registry)

	loader := newLoader(cfg.PipelinesDir)
	deploy, err := buildPipeline(loader, registry, DeploymentPipeline)
	if err != nil {
		return nil, err
	}
	inference, err := buildPipeline(loader, registry, InferencePipeline)
	if err != nil {
		return nil, err
	}

	hooks := []dag.Hook{dag.WithTracing, dag.WithLogging(log)}
	if deps.Metrics != nil {
		hooks = append(hooks, dag.WithMetrics(deps.Metrics))
	}
	opts := []dag.Option{dag.WithMaterializer(deps.Materializer), dag.WithHooks(hooks...)}
	if deps.Recorder != nil {
		opts = append(opts, dag.WithRecorder(deps.Recorder))
	}

	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	return &Controller{
		steps:     s,
		engine:    dag.NewEngine(log, opts...),
		deploy:    deploy,
		inference: inference,
		out:       out,
		log:       log,
	}, nil
}

// Run executes the deployment pipeline, then the inference pipeline, each
// only when requested, and finally reports the prediction server status.
// The first failure stops the run.
func (c *Controller) Run(ctx context.Context, opts Options) error {
	if opts.Deploy {
		if _, err := c.engine.Run(ctx, c.deploy, dag.ArtifactSet{}); err != nil {
			return err
		}
	}
	if opts.Predict {
		res, err := c.engine.Run(ctx, c.inference, dag.ArtifactSet{})
		if err != nil {
			return err
		}
		if preds, err := dag.Read(res.Outputs, portPredictions); err == nil {
			c.log.WithContext(ctx).Info("inference completed", logger.Fields("predictions", preds.Values))
		}
	}
	return c.Report(ctx)
}

// Report prints the state of the prediction server deployed by the
// deployment pipeline.
func (c *Controller) Report(ctx context.Context) error {
	records, err := c.steps.deployer.Find(ctx, c.steps.serviceQuery())
	if err != nil {
		return err
	}
	msg := statusMessage(records)
	if msg == "" {
		return nil
	}
	_, err = fmt.Fprintln(c.out, msg)
	return err
}

// Delete stops the prediction server with the given uuid.
func (c *Controller) Delete(ctx context.Context, uuid string) error {
	if err := c.steps.deployer.Delete(ctx, uuid); err != nil {
		return err
	}
	c.log.WithContext(ctx).Info("prediction server deleted", logger.Fields("service", uuid))
	return nil
}
