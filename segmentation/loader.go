package segmentation

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/kbukum/mlopskit/dataset"
	"github.com/kbukum/mlopskit/errors"
	"github.com/kbukum/mlopskit/logger"
	"github.com/kbukum/mlopskit/pipeline"
)

// Batch is one group of rows handed to the training loop.
type Batch struct {
	// Epoch counts passes over the loader, starting at 1.
	Epoch int
	// Index is the position of the batch within its epoch.
	Index int
	Rows  *dataset.Table
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int { return b.Rows.Len() }

// Loader yields batches of a fixed table. Each call to Batches is one epoch.
type Loader struct {
	BatchSize int
	Shuffle   bool
	// Workers and PinMemory are transfer hints for the training loop.
	// Workers also bounds how many batches are prefetched.
	Workers   int
	PinMemory bool

	table *dataset.Table
	seed  int64

	mu    sync.Mutex
	epoch int
}

func newLoader(table *dataset.Table, batchSize, workers int, shuffle bool, seed int64) *Loader {
	return &Loader{
		BatchSize: batchSize,
		Shuffle:   shuffle,
		Workers:   workers,
		PinMemory: true,
		table:     table,
		seed:      seed,
	}
}

// Table returns the rows served by the loader, in table order.
func (l *Loader) Table() *dataset.Table { return l.table }

// Len returns the number of rows.
func (l *Loader) Len() int { return l.table.Len() }

// NumBatches returns the number of batches per epoch, counting the partial
// last one.
func (l *Loader) NumBatches() int {
	return (l.table.Len() + l.BatchSize - 1) / l.BatchSize
}

// Batches starts a new epoch and returns its batches lazily. A shuffling
// loader draws a fresh permutation for every epoch.
func (l *Loader) Batches(ctx context.Context) pipeline.Iterator[Batch] {
	l.mu.Lock()
	l.epoch++
	epoch := l.epoch
	l.mu.Unlock()

	order := make([]int, l.table.Len())
	for i := range order {
		order[i] = i
	}
	if l.Shuffle {
		rng := rand.New(rand.NewSource(l.seed + int64(epoch)))
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	index := 0
	groups := pipeline.Map(pipeline.Batch(pipeline.FromSlice(order), l.BatchSize),
		func(_ context.Context, rows []int) (indexed, error) {
			g := indexed{index: index, rows: rows}
			index++
			return g, nil
		})
	batches := pipeline.Prefetch(groups, l.Workers, func(_ context.Context, g indexed) (Batch, error) {
		return Batch{Epoch: epoch, Index: g.index, Rows: l.table.Select(g.rows)}, nil
	})
	return batches.Iter(ctx)
}

type indexed struct {
	index int
	rows  []int
}

// BuildLoaders splits table on fold and returns the train and validation
// loaders. A fold cell that is neither blank nor an integer is an error.
func BuildLoaders(fold int, table *dataset.Table, cfg Config) (train, valid *Loader, err error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log := logger.WithComponent("segmentation")

	folds, err := table.Column(cfg.FoldColumn)
	if err != nil {
		return nil, nil, errors.InvalidInput("fold_column", err.Error())
	}

	var trainRows, validRows []int
	for i, cell := range folds {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		f, err := parseFold(cell)
		if err != nil {
			return nil, nil, errors.InvalidInput("fold", err.Error()).WithDetail("row", i)
		}
		if f == fold {
			validRows = append(validRows, i)
		} else {
			trainRows = append(trainRows, i)
		}
	}
	trainTable := table.Select(trainRows)
	validTable := table.Select(validRows)

	trainBS, validBS := cfg.TrainBatchSize, cfg.ValidBatchSize
	if cfg.Debug {
		if trainTable, err = dropEmpty(trainTable.Head(cfg.DebugTrainRows), cfg.EmptyColumn); err != nil {
			return nil, nil, err
		}
		if validTable, err = dropEmpty(validTable.Head(cfg.DebugValidRows), cfg.EmptyColumn); err != nil {
			return nil, nil, err
		}
		trainBS, validBS = DebugBatchSize, DebugBatchSize
	}

	log.Info("loaders built", logger.Fields(
		"fold", fold,
		"train_rows", trainTable.Len(),
		"valid_rows", validTable.Len(),
		"debug", cfg.Debug,
	))
	return newLoader(trainTable, trainBS, cfg.Workers, true, cfg.Seed),
		newLoader(validTable, validBS, cfg.Workers, false, cfg.Seed),
		nil
}

// parseFold accepts integers written as "3" or "3.0".
func parseFold(cell string) (int, error) {
	if f, err := strconv.Atoi(cell); err == nil {
		return f, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || v != float64(int(v)) {
		return 0, strconv.ErrSyntax
	}
	return int(v), nil
}

// dropEmpty keeps rows whose empty flag is zero or blank.
func dropEmpty(t *dataset.Table, column string) (*dataset.Table, error) {
	j := t.Index(column)
	if j < 0 {
		return nil, errors.InvalidInput("empty_column", "column "+strconv.Quote(column)+" not found")
	}
	var bad error
	out := t.Filter(func(row []string) bool {
		cell := strings.TrimSpace(row[j])
		if cell == "" {
			return true
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			bad = errors.InvalidInput("empty", err.Error())
			return false
		}
		return v == 0
	})
	if bad != nil {
		return nil, bad
	}
	return out, nil
}
