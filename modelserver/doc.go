// Package modelserver serves a persisted classifier over HTTP.
//
// It is the SKLEARN_SERVER implementation the serving backends deploy: on
// start it restores the classifier from the artifact store through the
// artifact materializer and answers
//
//	POST /api/v1.0/predictions   {"data":{"names":[...],"ndarray":[[...]]}}
//	GET  /health/ping
//
// Prediction responses carry one probability column per class, named
// "t:0" and "t:1".
package modelserver
