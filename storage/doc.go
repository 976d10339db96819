// Package storage is the artifact store: a small object-store interface with
// pluggable backends selected by name.
//
// Backends register themselves from init, so binaries blank-import the ones
// they support:
//
//	import _ "github.com/kbukum/mlopskit/storage/local"
//	import _ "github.com/kbukum/mlopskit/storage/s3"
//
//	store, err := storage.New(cfg.Store, log)
//
// Supported providers: local filesystem, Amazon S3 (and S3-compatible
// services), and an in-process memory store for tests and dry runs.
package storage
