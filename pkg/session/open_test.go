package session

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/graph"
	"github.com/matzehuels/dialoguegraph/pkg/observability"
)

type opRecorder struct {
	observability.NoopStoreHooks
	ops []string
}

func (r *opRecorder) OnStoreOp(_ context.Context, backend, op string, _ time.Duration, _ error) {
	r.ops = append(r.ops, backend+":"+op)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		cfg      Config
		wantCode errors.Code
	}{
		{name: "Memory", cfg: Config{Backend: BackendMemory}},
		{name: "File", cfg: Config{Backend: BackendFile, Dir: t.TempDir()}},
		{name: "DefaultsToFile", cfg: Config{Dir: t.TempDir()}},
		{name: "Unknown", cfg: Config{Backend: "etcd"}, wantCode: errors.ErrCodeUnsupported},
		{name: "MongoWithoutURI", cfg: Config{Backend: BackendMongo}, wantCode: errors.ErrCodeInvalidInput},
		{name: "PostgresWithoutDSN", cfg: Config{Backend: BackendPostgres}, wantCode: errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Errorf("Open err = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()
		})
	}
}

func TestOpenReportsOperations(t *testing.T) {
	rec := &opRecorder{}
	observability.SetStoreHooks(rec)
	defer observability.Reset()

	ctx := context.Background()
	s, err := Open(ctx, Config{Backend: BackendMemory})
	if err != nil {
		t.Fatal(err)
	}
	sess, _ := New("intro", graph.Document{})
	_ = s.Put(ctx, sess)
	_, _ = s.Get(ctx, sess.ID)
	_, _ = s.List(ctx)
	_ = s.Delete(ctx, sess.ID)

	want := []string{"memory:put", "memory:get", "memory:list", "memory:delete"}
	if len(rec.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", rec.ops, want)
	}
	for i := range want {
		if rec.ops[i] != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, rec.ops[i], want[i])
		}
	}
}

var errNetwork = stderrors.New("network error")

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(errNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(errNetwork) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("first try: err %v, calls %d", err, calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errNetwork
	})
	if err != errNetwork || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err %v, calls %d", err, calls)
	}

	// Exhausted retries return the underlying error
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(errNetwork)
	})
	if err != errNetwork || calls != 3 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
