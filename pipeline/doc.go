// Package pipeline provides composable, pull-based iterators for feeding
// rows to training loops.
//
// Pipelines are lazy: no work happens until values are pulled via Collect
// or Iter. Each call to Iter starts a fresh pass over the source, so one
// Pipeline value can be iterated once per epoch.
//
// # Operators
//
//   - Map: transform each value
//   - Batch: group values into slices of a fixed size, keeping the trailing
//     partial slice
//   - Prefetch: apply a function with up to n workers, preserving order
//
// # Usage
//
//	rows := pipeline.FromSlice([]int{0, 1, 2, 3, 4})
//	batches := pipeline.Batch(rows, 2)
//	loaded := pipeline.Prefetch(batches, 4, loadBatch)
//	all, _ := pipeline.Collect(ctx, loaded)
package pipeline
