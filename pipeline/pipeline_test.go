package pipeline

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestFromSlice_Collect(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{1, 2, 3}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("expected [1 2 3], got %v", got)
	}
}

func TestFromSlice_Empty(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestFromFunc_NewPassEachIter(t *testing.T) {
	var passes int
	p := FromFunc(func(context.Context) Iterator[int] {
		passes++
		return FromSlice([]int{passes}).Iter(context.Background())
	})

	first, _ := Collect(context.Background(), p)
	second, _ := Collect(context.Background(), p)
	if first[0] != 1 || second[0] != 2 {
		t.Fatalf("expected a fresh pass per iteration, got %v then %v", first, second)
	}
}

func TestMap(t *testing.T) {
	p := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (string, error) {
		return string(rune('a' + n - 1)), nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected %v", got)
	}
}

func TestMap_Error(t *testing.T) {
	boom := errors.New("boom")
	p := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	got, err := Collect(context.Background(), p)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("expected values before the error, got %v", got)
	}
}

func TestBatch(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{"partial tail kept", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"exact multiple", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"size larger than input", []int{1, 2}, 20, [][]int{{1, 2}}},
		{"zero size means one", []int{1, 2}, 0, [][]int{{1}, {2}}},
		{"empty", nil, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(context.Background(), Batch(FromSlice(tt.items), tt.size))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

type failingIter struct {
	n   int
	err error
}

func (it *failingIter) Next(context.Context) (int, bool, error) {
	if it.n == 0 {
		return 0, false, it.err
	}
	it.n--
	return it.n, true, nil
}

func (it *failingIter) Close() error { return nil }

func TestBatch_ErrorAfterPartial(t *testing.T) {
	boom := errors.New("boom")
	p := Batch(FromFunc(func(context.Context) Iterator[int] {
		return &failingIter{n: 3, err: boom}
	}), 2)

	iter := p.Iter(context.Background())
	defer iter.Close()
	ctx := context.Background()

	if b, ok, err := iter.Next(ctx); err != nil || !ok || len(b) != 2 {
		t.Fatalf("first batch: %v %v %v", b, ok, err)
	}
	if b, ok, err := iter.Next(ctx); err != nil || !ok || len(b) != 1 {
		t.Fatalf("partial batch before the error: %v %v %v", b, ok, err)
	}
	if _, _, err := iter.Next(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok, err := iter.Next(ctx); ok || err != nil {
		t.Fatalf("expected exhausted iterator, got %v %v", ok, err)
	}
}

func TestPrefetch_PreservesOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	var inFlight, peak int32
	p := Prefetch(FromSlice(items), 4, func(_ context.Context, n int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		// Later items finish first.
		time.Sleep(time.Duration(50-n) * 10 * time.Microsecond)
		atomic.AddInt32(&inFlight, -1)
		return n * 10, nil
	})

	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range got {
		if v != i*10 {
			t.Fatalf("out of order at %d: %v", i, got)
		}
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 values, got %d", len(got))
	}
	if peak > 6 {
		t.Fatalf("expected bounded concurrency, peak %d", peak)
	}
}

func TestPrefetch_Error(t *testing.T) {
	boom := errors.New("boom")
	p := Prefetch(FromSlice([]int{1, 2, 3}), 2, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	got, err := Collect(context.Background(), p)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("expected [1] before the error, got %v", got)
	}
}

func TestContext_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	blocking := FromFunc(func(context.Context) Iterator[int] {
		return blockingIter{}
	})
	if _, err := Collect(ctx, blocking); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// blockingIter never yields; Next returns when ctx is done.
type blockingIter struct{}

func (blockingIter) Next(ctx context.Context) (int, bool, error) {
	<-ctx.Done()
	return 0, false, ctx.Err()
}

func (blockingIter) Close() error { return nil }
