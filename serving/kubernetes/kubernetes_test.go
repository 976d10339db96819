package kubernetes

import (
	"context"
	"strings"
	"testing"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/serving"
)

func testConfig() serving.Config {
	return serving.Config{Namespace: "models", Port: 9000, PollInterval: 5 * time.Millisecond}
}

func deploymentConfig() serving.DeploymentConfig {
	return serving.DeploymentConfig{
		PipelineName:   "continuous_deployment_pipeline",
		StepName:       "seldon_model_deployer_step",
		ModelName:      "model",
		RunID:          "run-1",
		Replicas:       1,
		Implementation: serving.ImplementationSKLearn,
		ModelURI:       "continuous_deployment_pipeline/run-1/model_trainer/model",
		SecretName:     "seldon-init-container-secret",
	}
}

// readyOnCreate marks every created deployment as fully available.
func readyOnCreate(client *fake.Clientset) {
	client.PrependReactor("create", "deployments", func(action k8stesting.Action) (bool, runtime.Object, error) {
		d := action.(k8stesting.CreateAction).GetObject().(*appsv1.Deployment)
		d.Status.ReadyReplicas = *d.Spec.Replicas
		return false, nil, nil
	})
}

func TestDeploy_CreatesDeploymentAndService(t *testing.T) {
	client := fake.NewSimpleClientset()
	readyOnCreate(client)
	d := NewWithClient(client, testConfig(), logger.NewNop())
	ctx := context.Background()

	rec, err := d.Deploy(ctx, deploymentConfig(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.IsRunning() || rec.UUID == "" {
		t.Fatalf("expected running record, got %+v", rec)
	}
	name := objectName("model", rec.UUID)
	wantURL := "http://" + name + ".models.svc.cluster.local:9000/api/v1.0/predictions"
	if rec.PredictionURL != wantURL {
		t.Fatalf("expected %s, got %s", wantURL, rec.PredictionURL)
	}

	dep, err := client.AppsV1().Deployments("models").Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		t.Fatalf("deployment not created: %v", err)
	}
	if *dep.Spec.Replicas != 1 {
		t.Fatalf("expected 1 replica, got %d", *dep.Spec.Replicas)
	}
	c := dep.Spec.Template.Spec.Containers[0]
	if len(c.EnvFrom) != 1 || c.EnvFrom[0].SecretRef.Name != "seldon-init-container-secret" {
		t.Fatalf("secret not forwarded: %+v", c.EnvFrom)
	}
	if dep.Labels[LabelPipeline] != "continuous_deployment_pipeline" || dep.Labels[LabelUUID] != rec.UUID {
		t.Fatalf("unexpected labels %v", dep.Labels)
	}
	if dep.Annotations[AnnotationImplementation] != serving.ImplementationSKLearn {
		t.Fatalf("unexpected annotations %v", dep.Annotations)
	}

	svc, err := client.CoreV1().Services("models").Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		t.Fatalf("service not created: %v", err)
	}
	if svc.Spec.Ports[0].Port != 9000 || svc.Spec.Selector[LabelUUID] != rec.UUID {
		t.Fatalf("unexpected service %+v", svc.Spec)
	}
	if rec.Config.ModelURI != deploymentConfig().ModelURI || rec.Config.SecretName != "seldon-init-container-secret" {
		t.Fatalf("config not round-tripped: %+v", rec.Config)
	}
}

func TestDeploy_Timeout(t *testing.T) {
	client := fake.NewSimpleClientset()
	d := NewWithClient(client, testConfig(), logger.NewNop())

	rec, err := d.Deploy(context.Background(), deploymentConfig(), 30*time.Millisecond)
	if !errors.HasCode(err, errors.ErrCodeDeploymentTimeout) {
		t.Fatalf("expected DEPLOYMENT_TIMEOUT, got %v", err)
	}
	if rec == nil || rec.State != serving.StatePending {
		t.Fatalf("expected pending record, got %+v", rec)
	}
}

func TestDeploy_Failed(t *testing.T) {
	client := fake.NewSimpleClientset()
	client.PrependReactor("create", "deployments", func(action k8stesting.Action) (bool, runtime.Object, error) {
		d := action.(k8stesting.CreateAction).GetObject().(*appsv1.Deployment)
		d.Status.Conditions = []appsv1.DeploymentCondition{{
			Type:    appsv1.DeploymentReplicaFailure,
			Status:  corev1.ConditionTrue,
			Message: "secret \"missing\" not found",
		}}
		return false, nil, nil
	})
	d := NewWithClient(client, testConfig(), logger.NewNop())

	rec, err := d.Deploy(context.Background(), deploymentConfig(), time.Second)
	if err == nil || errors.HasCode(err, errors.ErrCodeDeploymentTimeout) {
		t.Fatalf("expected rollout failure, got %v", err)
	}
	if !rec.IsFailed() || !strings.Contains(rec.LastError, "not found") {
		t.Fatalf("expected failed record with last error, got %+v", rec)
	}
}

func TestDeploy_InvalidConfig(t *testing.T) {
	d := NewWithClient(fake.NewSimpleClientset(), testConfig(), logger.NewNop())
	dc := deploymentConfig()
	dc.Replicas = 0
	if _, err := d.Deploy(context.Background(), dc, time.Second); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestFind_And_Replace(t *testing.T) {
	client := fake.NewSimpleClientset()
	readyOnCreate(client)
	d := NewWithClient(client, testConfig(), logger.NewNop())
	ctx := context.Background()
	q := deploymentConfig().Query()

	none, err := d.Find(ctx, q)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no services, got %v (%v)", none, err)
	}

	first, err := d.Deploy(ctx, deploymentConfig(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	other := deploymentConfig()
	other.ModelName = "other"
	if _, err := d.Deploy(ctx, other, time.Second); err != nil {
		t.Fatal(err)
	}
	second, err := d.Deploy(ctx, deploymentConfig(), time.Second)
	if err != nil {
		t.Fatal(err)
	}

	found, err := d.Find(ctx, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 1 || found[0].UUID != second.UUID {
		t.Fatalf("expected only the replacement %s, got %+v", second.UUID, found)
	}
	if err := d.Delete(ctx, first.UUID); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("replaced server should be gone, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	client := fake.NewSimpleClientset()
	readyOnCreate(client)
	d := NewWithClient(client, testConfig(), logger.NewNop())
	ctx := context.Background()

	rec, err := d.Deploy(ctx, deploymentConfig(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Delete(ctx, rec.UUID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deps, _ := client.AppsV1().Deployments("models").List(ctx, metav1.ListOptions{})
	svcs, _ := client.CoreV1().Services("models").List(ctx, metav1.ListOptions{})
	if len(deps.Items) != 0 || len(svcs.Items) != 0 {
		t.Fatalf("expected everything removed, got %d deployments %d services", len(deps.Items), len(svcs.Items))
	}
	if err := d.Delete(ctx, "unknown"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeploymentState(t *testing.T) {
	one := int32(1)
	tests := []struct {
		name  string
		dep   appsv1.Deployment
		state serving.State
	}{
		{"pending", appsv1.Deployment{Spec: appsv1.DeploymentSpec{Replicas: &one}}, serving.StatePending},
		{"running", appsv1.Deployment{
			Spec:   appsv1.DeploymentSpec{Replicas: &one},
			Status: appsv1.DeploymentStatus{ReadyReplicas: 1},
		}, serving.StateRunning},
		{"stalled", appsv1.Deployment{
			Spec: appsv1.DeploymentSpec{Replicas: &one},
			Status: appsv1.DeploymentStatus{Conditions: []appsv1.DeploymentCondition{{
				Type: appsv1.DeploymentProgressing, Status: corev1.ConditionFalse, Reason: "ProgressDeadlineExceeded",
			}}},
		}, serving.StateFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := deploymentState(&tt.dep); got != tt.state {
				t.Fatalf("expected %s, got %s", tt.state, got)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	got := objectName("Customer_Churn Model", "0123456789abcdef")
	if got != "mlopskit-customer-churn-model-01234567" {
		t.Fatalf("unexpected name %q", got)
	}
}
