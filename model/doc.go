// Package model holds the two artifact payloads the churn pipelines pass
// around: a labeled numeric Series and a LogisticRegression classifier.
package model
