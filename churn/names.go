package churn

// Pipeline names.
const (
	DeploymentPipeline = "continuous_deployment_pipeline"
	InferencePipeline  = "inference_pipeline"
)

// Step names. The deployer step name is part of the service lookup key.
const (
	StepIngestData    = "ingest_data"
	StepEncode        = "encode_cat_cols"
	StepBalance       = "handle_imbalanced_data"
	StepDropColumns   = "drop_cols"
	StepSplit         = "data_splitter"
	StepTrain         = "model_trainer"
	StepEvaluate      = "evaluation"
	StepTrigger       = "deployment_trigger"
	StepDeploy        = "seldon_model_deployer_step"
	StepImport        = "dynamic_importer"
	StepServiceLoader = "prediction_service_loader"
	StepPredict       = "predictor"
)

// Artifact names passed between steps.
const (
	outData        = "data"
	outEncoded     = "data_encoded"
	outBalanced    = "data_balanced"
	outClean       = "data_clean"
	outXTrain      = "x_train"
	outXTest       = "x_test"
	outYTrain      = "y_train"
	outYTest       = "y_test"
	outModel       = "model"
	outAccuracy    = "accuracy"
	outDecision    = "decision"
	outService     = "service"
	outPredictions = "predictions"
)
