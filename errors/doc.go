// Package errors provides the structured error type shared by every package
// in this module. Each AppError carries a machine-readable code, an HTTP
// status hint for the model server, and an optional cause chain.
//
// Pipeline failures wrap the failing step's error, so callers should test
// for a code with HasCode rather than comparing the outermost error:
//
//	if errors.HasCode(err, errors.ErrCodeNoDeployedService) {
//	    // nothing to predict against
//	}
package errors
