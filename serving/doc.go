// Package serving defines the contract between pipelines and the platform
// that runs model prediction servers.
//
// A Deployer starts one prediction server per deployment request, finds the
// servers created by a given pipeline step for a given model, and deletes
// them by uuid. Backends register themselves with RegisterFactory; import
// serving/kubernetes for the Kubernetes backend.
package serving
