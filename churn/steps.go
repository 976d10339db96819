package churn

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/kbukum/mlopskit/dag"
	"github.com/kbukum/mlopskit/dataset"
	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/model"
	"github.com/kbukum/mlopskit/serving"
)

// Features is a feature matrix with its column names, in the order the
// classifier expects them.
type Features struct {
	Names []string
	Rows  [][]float64
}

var (
	portData        = dag.Port[*dataset.Table]{Name: outData}
	portEncoded     = dag.Port[*dataset.Table]{Name: outEncoded}
	portBalanced    = dag.Port[*dataset.Table]{Name: outBalanced}
	portClean       = dag.Port[*dataset.Table]{Name: outClean}
	portXTrain      = dag.Port[*Features]{Name: outXTrain}
	portXTest       = dag.Port[*Features]{Name: outXTest}
	portYTrain      = dag.Port[*model.Series]{Name: outYTrain}
	portYTest       = dag.Port[*model.Series]{Name: outYTest}
	portModel       = dag.Port[*model.LogisticRegression]{Name: outModel}
	portAccuracy    = dag.Port[float64]{Name: outAccuracy}
	portDecision    = dag.Port[bool]{Name: outDecision}
	portService     = dag.Port[*serving.ServiceRecord]{Name: outService}
	portSample      = dag.Port[*Features]{Name: outData}
	portPredictions = dag.Port[*model.Series]{Name: outPredictions}
)

// steps builds the step implementations of both pipelines. It holds what
// the steps need from the controller.
type steps struct {
	cfg       *Config
	deployer  serving.Deployer
	predictor serving.Predictor
	log       *logger.Logger
}

// register adds every step to r.
func (s *steps) register(r *dag.Registry) {
	r.Register(
		dag.NewStep(StepIngestData, nil, []string{outData}, s.ingestData),
		dag.NewStep(StepEncode, []string{outData}, []string{outEncoded}, s.encode),
		dag.NewStep(StepBalance, []string{outEncoded}, []string{outBalanced}, s.balance),
		dag.NewStep(StepDropColumns, []string{outBalanced}, []string{outClean}, s.dropColumns),
		dag.NewStep(StepSplit, []string{outClean}, []string{outXTrain, outXTest, outYTrain, outYTest}, s.split),
		dag.NewStep(StepTrain, []string{outXTrain, outYTrain}, []string{outModel}, s.train),
		dag.NewStep(StepEvaluate, []string{outModel, outXTest, outYTest}, []string{outAccuracy}, s.evaluate),
		dag.NewStep(StepTrigger, []string{outAccuracy}, []string{outDecision}, s.trigger),
		dag.NewStep(StepDeploy, []string{outDecision, outModel}, []string{outService}, s.deploy),

		dag.NewStep(StepImport, nil, []string{outData}, s.importSample),
		dag.NewStep(StepServiceLoader, nil, []string{outService}, s.loadService),
		dag.NewStep(StepPredict, []string{outService, outData}, []string{outPredictions}, s.predict),
	)
}

func (s *steps) readData() (*dataset.Table, error) {
	f, err := os.Open(s.cfg.Data.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.ReadCSV(f)
}

func (s *steps) ingestData(ctx context.Context, _ dag.ArtifactSet) (dag.ArtifactSet, error) {
	t, err := s.readData()
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("dataset ingested", logger.Fields("rows", t.Len(), "columns", len(t.Columns)))
	out := dag.ArtifactSet{}
	dag.Write(out, portData, t)
	return out, nil
}

func (s *steps) encode(_ context.Context, in dag.ArtifactSet) (dag.ArtifactSet, error) {
	t, err := dag.Read(in, portData)
	if err != nil {
		return nil, err
	}
	encoded, _, err := t.EncodeLabels(t.Categorical()...)
	if err != nil {
		return nil, err
	}
	out := dag.ArtifactSet{}
	dag.Write(out, portEncoded, encoded)
	return out, nil
}

func (s *steps) balance(_ context.Context, in dag.ArtifactSet) (dag.ArtifactSet, error) {
	t, err := dag.Read(in, portEncoded)
	if err != nil {
		return nil, err
	}
	balanced, err := t.Oversample(s.cfg.Data.Target, s.cfg.Data.Seed)
	if err != nil {
		return nil, err
	}
	out := dag.ArtifactSet{}
	dag.Write(out, portBalanced, balanced)
	return out, nil
}

func (s *steps) dropColumns(_ context.Context, in dag.ArtifactSet) (dag.ArtifactSet, error) {
	t, err := dag.Read(in, portBalanced)
	if err != nil {
		return nil, err
	}
	clean, err := t.Drop(s.cfg.Data.DropColumns...)
	if err != nil {
		return nil, err
	}
	out := dag.ArtifactSet{}
	dag.Write(out, portClean, clean)
	return out, nil
}

func (s *steps) split(_ context.Context, in dag.ArtifactSet) (dag.ArtifactSet, error) {
	t, err := dag.Read(in, portClean)
	if err != nil {
		return nil, err
	}
	train, test, err := t.Split(s.cfg.Data.TestSize, s.cfg.Data.Seed)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain, err := s.matrix(train)
	if err != nil {
		return nil, err
	}
	xTest, yTest, err := s.matrix(test)
	if err != nil {
		return nil, err
	}
	out := dag.ArtifactSet{}
	dag.Write(out, portXTrain, xTrain)
	dag.Write(out, portXTest, xTest)
	dag.Write(out, portYTrain, model.NewSeries(s.cfg.Data.Target, yTrain))
	dag.Write(out, portYTest, model.NewSeries(s.cfg.Data.Target, yTest))
	return out, nil
}

func (s *steps) matrix(t *dataset.Table) (*Features, []float64, error) {
	X, y, names, err := t.Matrix(s.cfg.Data.Target)
	if err != nil {
		return nil, nil, err
	}
	return &Features{Names: names, Rows: X}, y, nil
}

func (s *steps) train(ctx context.Context, in dag.ArtifactSet) (dag.ArtifactSet, error) {
	x, err := dag.Read(in, portXTrain)
	if err != nil {
		return nil, err
	}
	y, err := dag.Read(in, portYTrain)
	if err != nil {
		return nil, err
	}
	clf := model.NewLogisticRegression(s.cfg.Model)
	if err := clf.Fit(x.Rows, y.Values, x.Names); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Debug("classifier fitted", logger.Fields("rows", len(x.Rows), "features", len(x.Names)))
	out := dag.ArtifactSet{}
	dag.Write(out, portModel, clf)
	return out, nil
}

func (s *steps) evaluate(ctx context.Context, in dag.ArtifactSet) (dag.ArtifactSet, error) {
	clf, err := dag.Read(in, portModel)
	if err != nil {
		return nil, err
	}
	x, err := dag.Read(in, portXTest)
	if err != nil {
		return nil, err
	}
	y, err := dag.Read(in, portYTest)
	if err != nil {
		return nil, err
	}
	predicted, err := clf.Predict(x.Rows)
	if err != nil {
		return nil, err
	}
	acc, err := model.Accuracy(y.Values, predicted)
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("classifier evaluated", logger.Fields("accuracy", acc))
	out := dag.ArtifactSet{}
	dag.Write(out, portAccuracy, acc)
	return out, nil
}

func (s *steps) trigger(ctx context.Context, in dag.ArtifactSet) (dag.ArtifactSet, error) {
	acc, err := dag.Read(in, portAccuracy)
	if err != nil {
		return nil, err
	}
	decision := acc >= s.cfg.Deployment.MinAccuracy
	s.log.WithContext(ctx).Info("deployment decision", logger.Fields(
		"accuracy", acc,
		"min_accuracy", s.cfg.Deployment.MinAccuracy,
		"deploy", decision,
	))
	out := dag.ArtifactSet{}
	dag.Write(out, portDecision, decision)
	return out, nil
}

func (s *steps) deploy(ctx context.Context, in dag.ArtifactSet) (dag.ArtifactSet, error) {
	decision, err := dag.Read(in, portDecision)
	if err != nil {
		return nil, err
	}
	if !decision {
		return nil, dag.ErrSkip
	}
	// The classifier trained earlier in this run, whose accuracy passed
	// the gate.
	info, _ := dag.RunFromContext(ctx)
	loc := dag.OutputLocation(info.Pipeline, info.RunID, StepTrain, outModel)

	d := s.cfg.Deployment
	rec, err := s.deployer.Deploy(ctx, serving.DeploymentConfig{
		PipelineName:   info.Pipeline,
		StepName:       StepDeploy,
		ModelName:      d.ModelName,
		RunID:          info.RunID,
		Replicas:       d.Replicas,
		Implementation: serving.ImplementationSKLearn,
		ModelURI:       string(loc),
		SecretName:     d.Secret,
	}, d.Timeout)
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("model deployed", logger.Fields("service", rec.UUID, "url", rec.PredictionURL))
	out := dag.ArtifactSet{}
	dag.Write(out, portService, rec)
	return out, nil
}

// importSample prepares the first SampleRows rows of the dataset the same
// way training does, without the target column.
func (s *steps) importSample(_ context.Context, _ dag.ArtifactSet) (dag.ArtifactSet, error) {
	t, err := s.readData()
	if err != nil {
		return nil, err
	}
	t, _, err = t.EncodeLabels(t.Categorical()...)
	if err != nil {
		return nil, err
	}
	drop := slices.Clone(s.cfg.Data.DropColumns)
	if t.Index(s.cfg.Data.Target) >= 0 {
		drop = append(drop, s.cfg.Data.Target)
	}
	if t, err = t.Drop(drop...); err != nil {
		return nil, err
	}
	X, _, names, err := t.Head(s.cfg.Data.SampleRows).Matrix("")
	if err != nil {
		return nil, err
	}
	out := dag.ArtifactSet{}
	dag.Write(out, portSample, &Features{Names: names, Rows: X})
	return out, nil
}

func (s *steps) loadService(ctx context.Context, _ dag.ArtifactSet) (dag.ArtifactSet, error) {
	q := s.serviceQuery()
	records, err := s.deployer.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].IsRunning() {
			out := dag.ArtifactSet{}
			dag.Write(out, portService, &records[i])
			return out, nil
		}
	}
	return nil, errors.NoDeployedService(q.PipelineName, q.StepName, q.ModelName)
}

func (s *steps) predict(ctx context.Context, in dag.ArtifactSet) (dag.ArtifactSet, error) {
	svc, err := dag.Read(in, portService)
	if err != nil {
		return nil, err
	}
	x, err := dag.Read(in, portSample)
	if err != nil {
		return nil, err
	}
	req, err := serving.NewPayload(x.Names, x.Rows)
	if err != nil {
		return nil, err
	}
	resp, err := s.predictor.Predict(ctx, svc.PredictionURL, req)
	if err != nil {
		return nil, err
	}
	labels := resp.Data.ArgMax()
	if len(labels) != len(x.Rows) {
		return nil, fmt.Errorf("prediction server returned %d rows for %d inputs", len(labels), len(x.Rows))
	}
	s.log.WithContext(ctx).Info("predictions received", logger.Fields("rows", len(labels)))
	out := dag.ArtifactSet{}
	dag.Write(out, portPredictions, model.NewSeries(outPredictions, labels))
	return out, nil
}

// serviceQuery is the lookup key shared by the loader step and the status
// report.
func (s *steps) serviceQuery() serving.Query {
	return serving.Query{
		PipelineName: DeploymentPipeline,
		StepName:     StepDeploy,
		ModelName:    s.cfg.Deployment.ModelName,
	}
}
