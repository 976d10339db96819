package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kbukum/mlopskit/churn"
)

// invocation is a parsed command line.
type invocation struct {
	flags      *pflag.FlagSet
	configPath string
	deploy     bool
	predict    bool
	version    bool
	// deleteUUID is set by "served-models delete <uuid>".
	deleteUUID string
}

func parseArgs(args []string, stderr io.Writer) (*invocation, error) {
	inv := &invocation{}
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVarP(&inv.deploy, "deploy", "d", false, "run the training and deployment pipeline")
	fs.BoolVarP(&inv.predict, "predict", "p", false, "run the inference pipeline against the deployed model")
	fs.Float64("min-accuracy", churn.DefaultMinAccuracy, "minimum accuracy required to deploy the model")
	fs.StringP("secret", "x", "", "secret the serving platform uses to read the artifact store")
	fs.BoolVar(&inv.version, "version", false, "print the version and exit")
	fs.StringVarP(&inv.configPath, "config", "c", "", "config file (default: searched as config.yml)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n  %s [flags]\n  %s served-models delete <uuid>\n\nFlags:\n%s",
			serviceName, serviceName, fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	inv.flags = fs

	switch rest := fs.Args(); {
	case len(rest) == 0:
	case len(rest) == 3 && rest[0] == "served-models" && rest[1] == "delete":
		inv.deleteUUID = rest[2]
		if inv.deploy || inv.predict {
			return nil, fmt.Errorf("served-models delete does not take --deploy or --predict")
		}
	default:
		return nil, fmt.Errorf("unknown command %q", strings.Join(rest, " "))
	}
	return inv, nil
}
