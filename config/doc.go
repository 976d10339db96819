// Package config loads binary configuration with Viper.
//
// Sources are layered from lowest to highest precedence: the YAML file
// (found next to the binary's cmd directory or given explicitly), a .env
// file, process environment variables, and finally command-line flags that
// were set explicitly.
//
// # Usage
//
//	var cfg churn.Config
//	err := config.LoadConfig("churnctl", &cfg,
//	    config.WithConfigFile(path),
//	    config.WithEnvPrefix("CHURNCTL"),
//	    config.WithFlags(cmd.Flags(), map[string]string{"min-accuracy": "deployment.min_accuracy"}),
//	)
//
// Environment variables map to nested keys by splitting on underscores, so
// CHURNCTL_DEPLOYMENT_MIN_ACCURACY sets deployment.min_accuracy.
package config
