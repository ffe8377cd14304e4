package pdf2img

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func batchOpts(t *testing.T, size int, delay time.Duration) Options {
	t.Helper()
	opts, err := Options{BatchSize: size, BatchDelay: delay}.withDefaults()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	return opts
}

func pagesOf(outputs []PageOutput) []int {
	pages := make([]int, len(outputs))
	for i, out := range outputs {
		pages[i] = out.Page
	}
	return pages
}

func TestChunk(t *testing.T) {
	got := chunk([]int{1, 2, 3, 4, 5, 6, 7}, 3)
	want := [][]int{{1, 2, 3}, {4, 5, 6}, {7}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := chunk(nil, 3); len(got) != 0 {
		t.Fatalf("expected no batches, got %v", got)
	}
}

func TestRunBatchesProgressPerBatch(t *testing.T) {
	for _, tc := range []struct{ pages, size int }{{1, 1}, {5, 2}, {6, 3}, {7, 3}, {3, 10}, {10, 1}} {
		doc := &fakeDocument{pages: tc.pages}
		pages, _ := All().Resolve(tc.pages)

		var events []BatchProgress
		opts := batchOpts(t, tc.size, -1)
		opts.OnProgress = func(p BatchProgress) { events = append(events, p) }

		outputs, err := runBatches(context.Background(), doc, pages, opts)
		if err != nil {
			t.Fatalf("%d/%d: %v", tc.pages, tc.size, err)
		}

		wantEvents := (tc.pages + tc.size - 1) / tc.size
		if len(events) != wantEvents {
			t.Fatalf("%d pages, batch %d: got %d progress events, want %d", tc.pages, tc.size, len(events), wantEvents)
		}
		last := 0
		seen := 0
		for _, ev := range events {
			if ev.Completed < last || ev.Completed > ev.Total || ev.Total != tc.pages {
				t.Fatalf("bad progress event %+v after %d", ev, last)
			}
			seen += len(ev.Batch)
			if ev.Completed != seen {
				t.Fatalf("completed %d but %d pages delivered in batches", ev.Completed, seen)
			}
			last = ev.Completed
		}
		if last != tc.pages {
			t.Fatalf("final completed %d, want %d", last, tc.pages)
		}
		if !reflect.DeepEqual(pagesOf(outputs), pages) {
			t.Fatalf("output order %v, want %v", pagesOf(outputs), pages)
		}
	}
}

func TestRunBatchesEmpty(t *testing.T) {
	doc := &fakeDocument{pages: 4}
	calls := 0
	opts := batchOpts(t, 2, -1)
	opts.OnProgress = func(BatchProgress) { calls++ }

	outputs, err := runBatches(context.Background(), doc, []int{}, opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outputs) != 0 || calls != 0 {
		t.Fatalf("got %d outputs and %d progress calls, want none", len(outputs), calls)
	}
}

func TestRunBatchesKeepsLaunchOrder(t *testing.T) {
	// Earlier pages take longer, so completion order is reversed.
	doc := &fakeDocument{pages: 4, delay: func(index int) time.Duration {
		return time.Duration(5-index) * 10 * time.Millisecond
	}}
	pages := []int{4, 1, 3, 2}

	outputs, err := runBatches(context.Background(), doc, pages, batchOpts(t, 4, -1))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(pagesOf(outputs), pages) {
		t.Fatalf("output order %v, want %v", pagesOf(outputs), pages)
	}
}

func TestRunBatchesBoundsConcurrency(t *testing.T) {
	doc := &fakeDocument{pages: 9, delay: func(int) time.Duration { return 15 * time.Millisecond }}
	pages, _ := All().Resolve(9)

	if _, err := runBatches(context.Background(), doc, pages, batchOpts(t, 3, -1)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := doc.maxInflight.Load(); got != 3 {
		t.Fatalf("max concurrent renders %d, want 3", got)
	}
}

func TestRunBatchesFailFast(t *testing.T) {
	doc := &fakeDocument{pages: 9, failPage: 5}
	pages, _ := All().Resolve(9)

	var events []BatchProgress
	opts := batchOpts(t, 3, -1)
	opts.OnProgress = func(p BatchProgress) { events = append(events, p) }

	outputs, err := runBatches(context.Background(), doc, pages, opts)
	if !errors.Is(err, errRenderFailed) {
		t.Fatalf("expected render error, got %v", err)
	}
	if outputs != nil {
		t.Fatalf("expected no partial result, got %d outputs", len(outputs))
	}
	if len(events) != 1 {
		t.Fatalf("expected progress only for the first batch, got %d events", len(events))
	}
	for _, p := range doc.requestedPages() {
		if p > 6 {
			t.Fatalf("page %d of a later batch was started after a failure", p)
		}
	}
	if !doc.allReleased() {
		t.Fatalf("pages or targets left unreleased after failure")
	}
}

func TestRunBatchesPacesBetweenBatches(t *testing.T) {
	doc := &fakeDocument{pages: 6}
	pages, _ := All().Resolve(6)

	started := time.Now()
	if _, err := runBatches(context.Background(), doc, pages, batchOpts(t, 2, 25*time.Millisecond)); err != nil {
		t.Fatalf("run: %v", err)
	}
	// Three batches, two pauses.
	if elapsed := time.Since(started); elapsed < 50*time.Millisecond {
		t.Fatalf("finished in %s, expected at least two 25ms pauses", elapsed)
	}
}

func TestPaceHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := pace(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := pace(context.Background(), 0); err != nil {
		t.Fatalf("zero pace: %v", err)
	}
}
