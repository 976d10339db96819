// Package dag runs ML pipelines: named steps wired into a directed acyclic
// graph by the artifacts they consume and produce.
//
// A step declares its inputs and outputs by name and exchanges values
// through an ArtifactSet. The engine orders steps with Kahn's algorithm,
// runs them one at a time, and stops the run at the first failure,
// reporting it as a STEP_EXECUTION error that wraps the step's own error.
//
// A step returning ErrSkip is recorded as skipped, and so is every step
// downstream of it. Outputs that are artifacts (numeric series or
// classifiers) are persisted through an artifact.Materializer under
// <pipeline>/<run-id>/<step>/<output>.
//
// Pipelines are built in code with New or from a YAML definition resolved
// against a Registry:
//
//	name: continuous_deployment_pipeline
//	steps:
//	  - step: ingest_data
//	  - step: model_trainer
//	    depends_on: [ingest_data]
package dag
