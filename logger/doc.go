// Package logger provides structured logging on top of zerolog.
//
// Every binary calls Init once with the logging section of its config;
// packages then take a component-scoped logger and attach run and step
// identifiers as fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.WithComponent("churn")
//	log.Info("step finished", logger.StepFields("training_pipeline", runID, "model_trainer"))
package logger
