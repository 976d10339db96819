// Package segmentation builds the train and validation batch loaders for one
// cross-validation fold of an image segmentation dataset.
//
// Rows whose fold equals the requested fold form the validation set; rows
// of every other fold form the training set. Rows with a blank fold belong
// to neither. The training loader reshuffles on every pass, the validation
// loader keeps table order, and both keep the trailing partial batch.
package segmentation
