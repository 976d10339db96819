package kubernetes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/kbukum/mlopskit/serving"
)

// Labels identifying a prediction server.
const (
	LabelManagedBy = "app.kubernetes.io/managed-by"
	LabelPipeline  = "mlopskit.io/pipeline"
	LabelStep      = "mlopskit.io/step"
	LabelModel     = "mlopskit.io/model"
	LabelUUID      = "mlopskit.io/uuid"

	managedBy = "mlopskit"
)

// Annotations carrying the rest of the deployment config.
const (
	AnnotationRunID          = "mlopskit.io/run-id"
	AnnotationImplementation = "mlopskit.io/implementation"
	AnnotationModelURI       = "mlopskit.io/model-uri"
	AnnotationSecret         = "mlopskit.io/secret-name"
)

// Environment variables read by the model server.
const (
	EnvModelURI  = "MLOPSKIT_MODEL_URI"
	EnvModelName = "MLOPSKIT_MODEL_NAME"
	EnvPort      = "MLOPSKIT_SERVER_PORT"
)

const (
	containerName = "model-server"
	portName      = "http"
)

var invalidNameChars = regexp.MustCompile(`[^a-z0-9-]+`)

// objectName derives a DNS-1123 name shared by the Deployment and Service.
func objectName(model, id string) string {
	base := strings.Trim(invalidNameChars.ReplaceAllString(strings.ToLower(model), "-"), "-")
	if base == "" {
		base = "model"
	}
	if len(base) > 40 {
		base = strings.TrimRight(base[:40], "-")
	}
	return fmt.Sprintf("mlopskit-%s-%s", base, id[:8])
}

// selectorLabels returns the labels a query matches on.
func selectorLabels(q serving.Query) map[string]string {
	return map[string]string{
		LabelManagedBy: managedBy,
		LabelPipeline:  q.PipelineName,
		LabelStep:      q.StepName,
		LabelModel:     q.ModelName,
	}
}

// mergeLabels combines default labels with request labels (request wins).
func mergeLabels(defaults, request map[string]string) map[string]string {
	labels := make(map[string]string, len(defaults)+len(request))
	for k, v := range defaults {
		labels[k] = v
	}
	for k, v := range request {
		labels[k] = v
	}
	return labels
}

// buildDeployment creates the Deployment running the model server.
func buildDeployment(cfg serving.Config, dc serving.DeploymentConfig, id, name string) *appsv1.Deployment {
	labels := mergeLabels(cfg.DefaultLabels, selectorLabels(dc.Query()))
	labels[LabelUUID] = id
	replicas := int32(dc.Replicas)

	container := corev1.Container{
		Name:            containerName,
		Image:           cfg.Image,
		ImagePullPolicy: corev1.PullPolicy(cfg.ImagePullPolicy),
		Env: []corev1.EnvVar{
			{Name: EnvModelURI, Value: dc.ModelURI},
			{Name: EnvModelName, Value: dc.ModelName},
			{Name: EnvPort, Value: strconv.Itoa(cfg.Port)},
		},
		Ports: []corev1.ContainerPort{{
			Name:          portName,
			ContainerPort: int32(cfg.Port),
			Protocol:      corev1.ProtocolTCP,
		}},
		ReadinessProbe: &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				HTTPGet: &corev1.HTTPGetAction{
					Path: serving.HealthPath,
					Port: intstr.FromString(portName),
				},
			},
			PeriodSeconds: 5,
		},
	}
	if dc.SecretName != "" {
		container.EnvFrom = []corev1.EnvFromSource{{
			SecretRef: &corev1.SecretEnvSource{
				LocalObjectReference: corev1.LocalObjectReference{Name: dc.SecretName},
			},
		}}
	}

	spec := corev1.PodSpec{Containers: []corev1.Container{container}}
	if cfg.ServiceAccount != "" {
		spec.ServiceAccountName = cfg.ServiceAccount
	}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: cfg.Namespace,
			Labels:    labels,
			Annotations: map[string]string{
				AnnotationRunID:          dc.RunID,
				AnnotationImplementation: dc.Implementation,
				AnnotationModelURI:       dc.ModelURI,
				AnnotationSecret:         dc.SecretName,
			},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{LabelUUID: id}},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec:       spec,
			},
		},
	}
}

// buildService exposes the Deployment inside the cluster.
func buildService(cfg serving.Config, d *appsv1.Deployment, id string) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.Name,
			Namespace: d.Namespace,
			Labels:    d.Labels,
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: map[string]string{LabelUUID: id},
			Ports: []corev1.ServicePort{{
				Name:       portName,
				Port:       int32(cfg.Port),
				TargetPort: intstr.FromString(portName),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

// predictionURL is the in-cluster endpoint of a server.
func predictionURL(name, namespace string, port int) string {
	return fmt.Sprintf("http://%s.%s.svc.cluster.local:%d%s", name, namespace, port, serving.PredictionsPath)
}

// toRecord maps a Deployment to the platform-neutral record.
func toRecord(d *appsv1.Deployment, port int) serving.ServiceRecord {
	state, lastErr := deploymentState(d)
	replicas := 1
	if d.Spec.Replicas != nil {
		replicas = int(*d.Spec.Replicas)
	}
	return serving.ServiceRecord{
		UUID:          d.Labels[LabelUUID],
		State:         state,
		PredictionURL: predictionURL(d.Name, d.Namespace, port),
		LastError:     lastErr,
		CreatedAt:     d.CreationTimestamp.Time,
		Config: serving.DeploymentConfig{
			PipelineName:   d.Labels[LabelPipeline],
			StepName:       d.Labels[LabelStep],
			ModelName:      d.Labels[LabelModel],
			RunID:          d.Annotations[AnnotationRunID],
			Replicas:       replicas,
			Implementation: d.Annotations[AnnotationImplementation],
			ModelURI:       d.Annotations[AnnotationModelURI],
			SecretName:     d.Annotations[AnnotationSecret],
		},
	}
}

// deploymentState is running once every desired replica is ready and
// failed when the rollout stalled or pods cannot be created.
func deploymentState(d *appsv1.Deployment) (serving.State, string) {
	for _, c := range d.Status.Conditions {
		switch {
		case c.Type == appsv1.DeploymentReplicaFailure && c.Status == corev1.ConditionTrue:
			return serving.StateFailed, c.Message
		case c.Type == appsv1.DeploymentProgressing && c.Status == corev1.ConditionFalse:
			return serving.StateFailed, c.Message
		}
	}
	want := int32(1)
	if d.Spec.Replicas != nil {
		want = *d.Spec.Replicas
	}
	if want > 0 && d.Status.ReadyReplicas >= want {
		return serving.StateRunning, ""
	}
	return serving.StatePending, ""
}
