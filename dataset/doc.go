// Package dataset is a small in-memory table with the preprocessing the
// churn training pipeline needs: CSV ingest, label encoding, minority-class
// oversampling, column dropping, seeded splitting and conversion to a
// feature matrix.
package dataset
