package page_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-crudform/pkg/config"
	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/logger"
	"github.com/goliatone/go-crudform/pkg/page"
	"github.com/goliatone/go-crudform/pkg/render"
	"github.com/goliatone/go-crudform/pkg/schema"
)

const salesSchema = `{"general": {"title": "General", "fields": [
  {"key": "name", "label": "Name", "inTable": true, "isForm": true},
  {"key": "action", "label": "Action", "inTable": true}
]}}`

type stubFetcher struct {
	calls   atomic.Int32
	raw     schema.RawSchema
	err     error
	release chan struct{}
}

func (s *stubFetcher) Fetch(ctx context.Context, endpoint string) (schema.RawSchema, error) {
	s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return schema.RawSchema{}, ctx.Err()
		}
	}
	return s.raw, s.err
}

type renderFunc func(ctx context.Context, props render.Props, opts render.RenderOptions) ([]byte, error)

func (f renderFunc) Name() string        { return "func" }
func (f renderFunc) ContentType() string { return "text/plain" }
func (f renderFunc) Render(ctx context.Context, props render.Props, opts render.RenderOptions) ([]byte, error) {
	return f(ctx, props, opts)
}

func salesConfig() config.PageConfig {
	return config.PageConfig{
		Name:    "sales",
		Title:   "Sales",
		Schema:  "/api/schema/sales",
		FormAPI: crud.FormAPI{Read: "/api/sales"}.WithDefaults(),
	}
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.Wrap(zap.New(core)), logs
}

func TestLoad_ReadyPublishesResult(t *testing.T) {
	fetcher := &stubFetcher{raw: schema.MustDecode([]byte(salesSchema))}
	p := page.New(salesConfig(), fetcher, page.WithLogger(logger.Nop()))

	if p.State() != page.StateIdle {
		t.Fatalf("expected idle before load")
	}
	state, err := p.Load(context.Background())
	if err != nil || state != page.StateReady {
		t.Fatalf("expected ready, got %s %v", state, err)
	}
	props := p.Props()
	if !props.Ready() {
		t.Fatalf("props should be ready")
	}
	if props.FormName != "Sales" {
		t.Fatalf("form name should fall back to the title, got %q", props.FormName)
	}
	if props.FormAPI.Create != "/api/sales" {
		t.Fatalf("form api not carried: %+v", props.FormAPI)
	}
}

func TestLoad_RunsOnce(t *testing.T) {
	fetcher := &stubFetcher{raw: schema.MustDecode([]byte(salesSchema))}
	p := page.New(salesConfig(), fetcher, page.WithLogger(logger.Nop()))

	for i := 0; i < 3; i++ {
		if _, err := p.Load(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}

func TestLoad_ConcurrentCallersShareFetch(t *testing.T) {
	fetcher := &stubFetcher{raw: schema.MustDecode([]byte(salesSchema)), release: make(chan struct{})}
	p := page.New(salesConfig(), fetcher, page.WithLogger(logger.Nop()))

	var wg sync.WaitGroup
	states := make([]page.State, 4)
	for i := range states {
		wg.Add(1)
		go func() {
			defer wg.Done()
			states[i], _ = p.Load(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	for i, state := range states {
		if state != page.StateReady {
			t.Fatalf("caller %d saw %s", i, state)
		}
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}

func TestLoad_FetchErrorLogsAndEmpties(t *testing.T) {
	log, logs := observedLogger()
	fetcher := &stubFetcher{err: errors.New("fetch: boom")}
	p := page.New(salesConfig(), fetcher, page.WithLogger(log))

	state, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("fetch errors are recovered, got %v", err)
	}
	if state != page.StateEmpty {
		t.Fatalf("expected empty, got %s", state)
	}
	if p.Err() == nil {
		t.Fatalf("fetch error should be kept")
	}
	result := p.Result()
	if len(result.Columns) != 0 || len(result.GroupedFields) != 0 || len(result.PrintableFields) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}

	entries := logs.FilterMessage("schema fetch failed").All()
	if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected one error log, got %+v", logs.All())
	}
}

func TestLoad_EmptySchema(t *testing.T) {
	fetcher := &stubFetcher{raw: schema.RawSchema{}}
	p := page.New(salesConfig(), fetcher, page.WithLogger(logger.Nop()))

	state, err := p.Load(context.Background())
	if err != nil || state != page.StateEmpty {
		t.Fatalf("expected empty, got %s %v", state, err)
	}
}

func TestClose_DiscardsLateResult(t *testing.T) {
	fetcher := &stubFetcher{raw: schema.MustDecode([]byte(salesSchema)), release: make(chan struct{})}
	p := page.New(salesConfig(), fetcher, page.WithLogger(logger.Nop()))

	type outcome struct {
		state page.State
		err   error
	}
	result := make(chan outcome, 1)
	go func() {
		state, err := p.Load(context.Background())
		result <- outcome{state, err}
	}()

	for p.State() != page.StateFetching {
		time.Sleep(time.Millisecond)
	}
	p.Close()

	got := <-result
	if !errors.Is(got.err, page.ErrClosed) || got.state != page.StateClosed {
		t.Fatalf("expected closed, got %s %v", got.state, got.err)
	}
	if p.Props().Ready() {
		t.Fatalf("closed page must not publish props")
	}
	if _, err := p.Load(context.Background()); !errors.Is(err, page.ErrClosed) {
		t.Fatalf("load after close should fail, got %v", err)
	}
}

func TestRender_GatesBeforeLoad(t *testing.T) {
	fetcher := &stubFetcher{raw: schema.MustDecode([]byte(salesSchema))}
	p := page.New(salesConfig(), fetcher, page.WithLogger(logger.Nop()))

	calls := 0
	renderer := renderFunc(func(context.Context, render.Props, render.RenderOptions) ([]byte, error) {
		calls++
		return []byte("rendered"), nil
	})

	out, err := p.Render(context.Background(), renderer, render.RenderOptions{})
	if err != nil || len(out) != 0 || calls != 0 {
		t.Fatalf("expected gated render before load, got %q %v calls=%d", out, err, calls)
	}

	if _, err := p.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	out, err = p.Render(context.Background(), renderer, render.RenderOptions{})
	if err != nil || string(out) != "rendered" {
		t.Fatalf("expected render after load, got %q %v", out, err)
	}
}

func TestLoadAll_FailuresAreIndependent(t *testing.T) {
	good := page.New(salesConfig(), &stubFetcher{raw: schema.MustDecode([]byte(salesSchema))}, page.WithLogger(logger.Nop()))
	bad := page.New(salesConfig(), &stubFetcher{err: errors.New("boom")}, page.WithLogger(logger.Nop()))
	closed := page.New(salesConfig(), &stubFetcher{}, page.WithLogger(logger.Nop()))
	closed.Close()

	err := page.LoadAll(context.Background(), good, bad, closed)
	if !errors.Is(err, page.ErrClosed) {
		t.Fatalf("expected closed page to be reported, got %v", err)
	}
	if good.State() != page.StateReady {
		t.Fatalf("good page should be ready, got %s", good.State())
	}
	if bad.State() != page.StateEmpty {
		t.Fatalf("bad page should be empty, got %s", bad.State())
	}
}
