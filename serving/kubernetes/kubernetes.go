// Package kubernetes runs prediction servers as a Deployment plus a
// ClusterIP Service per model.
package kubernetes

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/observability"
	"github.com/kbukum/mlopskit/serving"
	"github.com/kbukum/mlopskit/validation"
)

func init() {
	serving.RegisterFactory(serving.ProviderKubernetes, func(cfg serving.Config, log *logger.Logger) (serving.Deployer, error) {
		return NewDeployer(cfg, log)
	})
}

// Deployer implements serving.Deployer using the Kubernetes API.
type Deployer struct {
	client kubernetes.Interface
	cfg    serving.Config
	log    *logger.Logger
}

// NewDeployer connects to the cluster named by cfg.
func NewDeployer(cfg serving.Config, log *logger.Logger) (*Deployer, error) {
	restCfg, err := buildRestConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("kubernetes: build config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("kubernetes: create clientset: %w", err)
	}
	return NewWithClient(clientset, cfg, log), nil
}

// NewWithClient wraps an existing clientset.
func NewWithClient(client kubernetes.Interface, cfg serving.Config, log *logger.Logger) *Deployer {
	cfg.ApplyDefaults()
	return &Deployer{client: client, cfg: cfg, log: log.WithComponent("serving.kubernetes")}
}

// Find lists the servers matching q, newest first.
func (d *Deployer) Find(ctx context.Context, q serving.Query) ([]serving.ServiceRecord, error) {
	return d.list(ctx, labels.SelectorFromSet(selectorLabels(q)).String())
}

func (d *Deployer) list(ctx context.Context, selector string) ([]serving.ServiceRecord, error) {
	deps, err := d.client.AppsV1().Deployments(d.cfg.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, errors.ExternalServiceError("kubernetes", fmt.Errorf("list deployments: %w", err))
	}

	records := make([]serving.ServiceRecord, 0, len(deps.Items))
	for i := range deps.Items {
		records = append(records, toRecord(&deps.Items[i], d.cfg.Port))
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Deploy creates the Deployment and Service, then polls until every replica
// is ready, the rollout fails, or timeout passes. Servers previously
// deployed for the same model are deleted once the new one runs.
func (d *Deployer) Deploy(ctx context.Context, dc serving.DeploymentConfig, timeout time.Duration) (*serving.ServiceRecord, error) {
	if err := validation.Validate(dc); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanDeploy)
	defer span.End()

	previous, err := d.Find(ctx, dc.Query())
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	id := uuid.NewString()
	name := objectName(dc.ModelName, id)
	observability.SetSpanAttribute(ctx, observability.AttrServiceUUID, id)
	log := d.log.WithFields(logger.Fields(logger.FieldServiceUUID, id, "name", name))
	log.Info("deploying model server", logger.Fields(
		"model", dc.ModelName,
		"implementation", dc.Implementation,
		"replicas", dc.Replicas,
		"timeout", timeout.String(),
	))

	dep := buildDeployment(d.cfg, dc, id, name)
	if _, err := d.client.AppsV1().Deployments(d.cfg.Namespace).Create(ctx, dep, metav1.CreateOptions{}); err != nil {
		err = errors.ExternalServiceError("kubernetes", fmt.Errorf("create deployment: %w", err))
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	if _, err := d.client.CoreV1().Services(d.cfg.Namespace).Create(ctx, buildService(d.cfg, dep, id), metav1.CreateOptions{}); err != nil {
		err = errors.ExternalServiceError("kubernetes", fmt.Errorf("create service: %w", err))
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	record, err := d.waitReady(ctx, name, timeout)
	if err != nil {
		observability.SetSpanError(ctx, err)
		log.Error("model server did not become ready", logger.ErrorFields("deploy", err))
		return record, err
	}

	for _, old := range previous {
		if err := d.Delete(ctx, old.UUID); err != nil {
			log.Warn("removing replaced model server failed", logger.Fields(
				logger.FieldServiceUUID, old.UUID,
				logger.FieldError, err.Error(),
			))
		}
	}

	log.Info("model server running", logger.Fields("url", record.PredictionURL))
	return record, nil
}

func (d *Deployer) waitReady(ctx context.Context, name string, timeout time.Duration) (*serving.ServiceRecord, error) {
	var last serving.ServiceRecord
	err := wait.PollUntilContextTimeout(ctx, d.cfg.PollInterval, timeout, true, func(ctx context.Context) (bool, error) {
		dep, err := d.client.AppsV1().Deployments(d.cfg.Namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, errors.ExternalServiceError("kubernetes", fmt.Errorf("get deployment: %w", err))
		}
		last = toRecord(dep, d.cfg.Port)
		switch last.State {
		case serving.StateRunning:
			return true, nil
		case serving.StateFailed:
			return false, errors.ExternalServiceError("kubernetes", fmt.Errorf("deployment %s failed: %s", name, last.LastError))
		}
		return false, nil
	})
	switch {
	case err == nil:
		return &last, nil
	case wait.Interrupted(err) && ctx.Err() == nil:
		return &last, errors.DeploymentTimeout(name, timeout)
	case wait.Interrupted(err):
		return &last, ctx.Err()
	default:
		return &last, err
	}
}

// Delete removes the Deployment and Service of the server with the given
// uuid. An unknown uuid is NOT_FOUND.
func (d *Deployer) Delete(ctx context.Context, id string) error {
	selector := labels.SelectorFromSet(map[string]string{
		LabelManagedBy: managedBy,
		LabelUUID:      id,
	}).String()
	deps, err := d.client.AppsV1().Deployments(d.cfg.Namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return errors.ExternalServiceError("kubernetes", fmt.Errorf("list deployments: %w", err))
	}
	if len(deps.Items) == 0 {
		return errors.NotFound("model server", id)
	}

	propagation := metav1.DeletePropagationForeground
	for _, dep := range deps.Items {
		err := d.client.AppsV1().Deployments(d.cfg.Namespace).Delete(ctx, dep.Name, metav1.DeleteOptions{
			PropagationPolicy: &propagation,
		})
		if err != nil && !k8serrors.IsNotFound(err) {
			return errors.ExternalServiceError("kubernetes", fmt.Errorf("delete deployment: %w", err))
		}
		err = d.client.CoreV1().Services(d.cfg.Namespace).Delete(ctx, dep.Name, metav1.DeleteOptions{})
		if err != nil && !k8serrors.IsNotFound(err) {
			return errors.ExternalServiceError("kubernetes", fmt.Errorf("delete service: %w", err))
		}
	}
	d.log.Info("model server deleted", logger.Fields(logger.FieldServiceUUID, id))
	return nil
}

// HealthCheck verifies the namespace is reachable.
func (d *Deployer) HealthCheck(ctx context.Context) error {
	_, err := d.client.CoreV1().Namespaces().Get(ctx, d.cfg.Namespace, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("kubernetes: health check failed: %w", err)
	}
	return nil
}

// buildRestConfig uses the explicit kubeconfig when set, the in-cluster
// config when running in a pod, and the default kubeconfig otherwise.
func buildRestConfig(cfg serving.Config) (*rest.Config, error) {
	rules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: cfg.Kubeconfig}
	if cfg.Kubeconfig == "" {
		restCfg, err := rest.InClusterConfig()
		if !stderrors.Is(err, rest.ErrNotInCluster) {
			return restCfg, err
		}
		rules = clientcmd.NewDefaultClientConfigLoadingRules()
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		rules,
		&clientcmd.ConfigOverrides{CurrentContext: cfg.Context},
	).ClientConfig()
}

// Compile-time interface checks.
var _ serving.Deployer = (*Deployer)(nil)
