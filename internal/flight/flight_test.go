package flight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDoRunsOnce(t *testing.T) {
	t.Parallel()

	group := NewGroup[string]()

	var executions atomic.Int64
	release := make(chan struct{})
	fn := func(context.Context) (string, error) {
		executions.Add(1)
		<-release
		return "outcome", nil
	}

	const callers = 8
	var attached sync.WaitGroup
	attached.Add(callers)
	results := make([]string, callers)
	shares := make([]bool, callers)
	errs := make([]error, callers)

	var finished sync.WaitGroup
	for i := 0; i < callers; i++ {
		finished.Add(1)
		go func(i int) {
			defer finished.Done()
			attached.Done()
			results[i], shares[i], errs[i] = group.Do(context.Background(), "key", fn)
		}(i)
	}

	attached.Wait()
	// Give every caller a moment to reach Do before the outcome settles.
	time.Sleep(50 * time.Millisecond)
	close(release)
	finished.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("executions = %d, want 1", got)
	}
	sharedCount := 0
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error: %v", i, errs[i])
		}
		if results[i] != "outcome" {
			t.Fatalf("caller %d result = %q, want outcome", i, results[i])
		}
		if shares[i] {
			sharedCount++
		}
	}
	if sharedCount != callers-1 {
		t.Fatalf("shared callers = %d, want %d", sharedCount, callers-1)
	}
}

func TestDoDeliversErrorToAllCallers(t *testing.T) {
	t.Parallel()

	group := NewGroup[int]()
	failure := errors.New("computation failed")

	release := make(chan struct{})
	fn := func(context.Context) (int, error) {
		<-release
		return 0, failure
	}

	const callers = 4
	errs := make([]error, callers)
	var finished sync.WaitGroup
	for i := 0; i < callers; i++ {
		finished.Add(1)
		go func(i int) {
			defer finished.Done()
			_, _, errs[i] = group.Do(context.Background(), "key", fn)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	finished.Wait()

	for i, err := range errs {
		if !errors.Is(err, failure) {
			t.Fatalf("caller %d error = %v, want %v", i, err, failure)
		}
	}
}

func TestDoDoesNotRetainOutcome(t *testing.T) {
	t.Parallel()

	group := NewGroup[int]()
	var executions atomic.Int64

	fn := func(context.Context) (int, error) {
		executions.Add(1)
		return 0, errors.New("transient")
	}

	if _, _, err := group.Do(context.Background(), "key", fn); err == nil {
		t.Fatal("expected first call to fail")
	}
	if _, _, err := group.Do(context.Background(), "key", fn); err == nil {
		t.Fatal("expected second call to fail")
	}

	if got := executions.Load(); got != 2 {
		t.Fatalf("executions = %d, want 2 (failures must not be cached)", got)
	}
	if group.InFlight("key") {
		t.Fatal("no call should remain in flight")
	}
}

func TestDoDetachesCancelledCallerWithoutStoppingComputation(t *testing.T) {
	t.Parallel()

	group := NewGroup[string]()

	started := make(chan struct{})
	release := make(chan struct{})
	sawCancellation := make(chan bool, 1)
	fn := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		sawCancellation <- ctx.Err() != nil
		return "outcome", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	detached := make(chan error, 1)
	go func() {
		_, _, err := group.Do(ctx, "key", fn)
		detached <- err
	}()

	<-started
	cancel()

	select {
	case err := <-detached:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("detached caller error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not detach")
	}

	// A late caller attaches to the still-running computation.
	lateResult := make(chan string, 1)
	go func() {
		value, shared, err := group.Do(context.Background(), "key", fn)
		if err != nil || !shared {
			lateResult <- ""
			return
		}
		lateResult <- value
	}()

	// Let the late caller attach before the outcome settles.
	time.Sleep(50 * time.Millisecond)
	close(release)

	if cancelled := <-sawCancellation; cancelled {
		t.Fatal("computation context must survive the initiating caller's cancellation")
	}
	if value := <-lateResult; value != "outcome" {
		t.Fatalf("late caller value = %q, want shared outcome", value)
	}
}

func TestDoRejectsDoneContext(t *testing.T) {
	t.Parallel()

	group := NewGroup[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := group.Do(ctx, "key", func(context.Context) (int, error) {
		t.Fatal("fn must not run for a done context")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
