// Package churn trains, deploys and queries the customer churn classifier.
//
// Two pipelines are built from the embedded definitions under pipelines/:
//
//	continuous_deployment_pipeline: ingest_data -> encode_cat_cols ->
//	    handle_imbalanced_data -> drop_cols -> data_splitter ->
//	    model_trainer -> evaluation -> deployment_trigger ->
//	    seldon_model_deployer_step
//	inference_pipeline: dynamic_importer -> prediction_service_loader ->
//	    predictor
//
// Controller.Run executes the requested pipelines and then reports the state
// of the prediction server:
//
//	ctrl, err := churn.NewController(cfg, churn.Deps{...}, log)
//	err = ctrl.Run(ctx, churn.Options{Deploy: true, Secret: "seldon-init"})
package churn
