// Command churnctl trains and deploys the churn classifier, queries the
// deployed prediction server and reports its status.
//
//	churnctl --deploy --secret seldon-init-container-secret
//	churnctl --predict --secret seldon-init-container-secret
//	churnctl served-models delete <uuid>
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/mlopskit/artifact"
	"github.com/kbukum/mlopskit/bootstrap"
	"github.com/kbukum/mlopskit/churn"
	"github.com/kbukum/mlopskit/config"
	"github.com/kbukum/mlopskit/observability"
	"github.com/kbukum/mlopskit/runstore"
	"github.com/kbukum/mlopskit/serving"
	"github.com/kbukum/mlopskit/storage"
	"github.com/kbukum/mlopskit/validation"
	"github.com/kbukum/mlopskit/version"

	_ "github.com/kbukum/mlopskit/serving/kubernetes"
	_ "github.com/kbukum/mlopskit/storage/local"
	_ "github.com/kbukum/mlopskit/storage/memory"
	_ "github.com/kbukum/mlopskit/storage/s3"
)

const (
	serviceName = "churnctl"
	envPrefix   = "MLOPSKIT"
)

// flagKeys maps flags onto config keys. Command flags are not config.
var flagKeys = map[string]string{
	"min-accuracy": "deployment.min_accuracy",
	"secret":       "deployment.secret",
	"deploy":       "",
	"predict":      "",
	"config":       "",
	"version":      "",
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "churnctl:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, the environment and the bound flags.
func loadConfig(inv *invocation) (*churn.Config, error) {
	cfg := &churn.Config{}
	if err := config.LoadConfig(serviceName, cfg,
		config.WithConfigFile(inv.configPath),
		config.WithEnvPrefix(envPrefix),
		config.WithFlags(inv.flags, flagKeys),
		config.WithDefaults(churn.Defaults()),
	); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	inv, err := parseArgs(args, stderr)
	if stderrors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if inv.version {
		_, err := fmt.Fprintln(stdout, serviceName, version.Get())
		return err
	}

	cfg, err := loadConfig(inv)
	if err != nil {
		return err
	}
	v := validation.New()
	if inv.deleteUUID == "" {
		v.Required("--secret", cfg.Deployment.Secret)
	} else {
		v.RequiredUUID("uuid", inv.deleteUUID)
	}
	v.Probability("--min-accuracy", cfg.Deployment.MinAccuracy)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	var runs *runstore.Store
	app.OnStart(func(ctx context.Context) error {
		s, err := runstore.Open(ctx, cfg.RunStore, log)
		if err != nil {
			return err
		}
		runs = s
		app.AddHealthCheck(s)
		return nil
	})
	app.OnStop(bootstrap.Closer(func() error {
		if runs == nil {
			return nil
		}
		return runs.Close()
	}))

	return app.RunTask(ctx, func(ctx context.Context) error {
		store, err := storage.New(cfg.Storage, log)
		if err != nil {
			return err
		}
		deployer, err := serving.New(cfg.Serving, log)
		if err != nil {
			return err
		}
		metrics, err := observability.NewMetrics(observability.Meter(serviceName))
		if err != nil {
			return err
		}
		predictor, err := serving.NewClient(cfg.Prediction, metrics, log)
		if err != nil {
			return err
		}

		ctrl, err := churn.NewController(cfg, churn.Deps{
			Deployer:     deployer,
			Predictor:    predictor,
			Materializer: artifact.NewMaterializer(store, log),
			Recorder:     runs,
			Metrics:      metrics,
			Out:          stdout,
		}, log)
		if err != nil {
			return err
		}
		if inv.deleteUUID != "" {
			return ctrl.Delete(ctx, inv.deleteUUID)
		}
		return ctrl.Run(ctx, churn.Options{Deploy: inv.deploy, Predict: inv.predict})
	})
}
