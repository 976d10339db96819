// Command modelserver serves a persisted churn classifier over the
// prediction protocol. It is the image the serving platform starts for each
// deployment; settings arrive as MLOPSKIT_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/mlopskit/artifact"
	"github.com/kbukum/mlopskit/bootstrap"
	"github.com/kbukum/mlopskit/config"
	"github.com/kbukum/mlopskit/modelserver"
	"github.com/kbukum/mlopskit/observability"
	"github.com/kbukum/mlopskit/storage"
	"github.com/kbukum/mlopskit/version"

	_ "github.com/kbukum/mlopskit/storage/local"
	_ "github.com/kbukum/mlopskit/storage/s3"
)

const serviceName = "modelserver"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "modelserver:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "config file (default: searched as config.yml)")
	fs.String("model-uri", "", "artifact location of the classifier to serve")
	fs.Int("port", 0, "listen port")
	showVersion := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(serviceName, version.Get())
		return nil
	}

	cfg := &modelserver.Config{}
	if err := config.LoadConfig(serviceName, cfg,
		config.WithConfigFile(*configPath),
		config.WithEnvPrefix("MLOPSKIT"),
		config.WithFlags(fs, map[string]string{
			"model-uri": "model.uri",
			"port":      "server.port",
			"config":    "",
			"version":   "",
		}),
	); err != nil {
		return err
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	var srv *modelserver.Server
	app.OnStart(func(ctx context.Context) error {
		store, err := storage.New(cfg.Storage, log)
		if err != nil {
			return err
		}
		clf, err := modelserver.LoadClassifier(ctx, artifact.NewMaterializer(store, log), cfg.Model.URI)
		if err != nil {
			return err
		}
		metrics, err := observability.NewMetrics(observability.Meter(serviceName))
		if err != nil {
			return err
		}
		srv = modelserver.New(cfg.Server, cfg.Model.Name, clf, metrics, log)
		return srv.Start(ctx)
	})
	app.OnStop(func(ctx context.Context) error {
		if srv == nil {
			return nil
		}
		return srv.Stop(ctx)
	})
	return app.Run(ctx)
}
