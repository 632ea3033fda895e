package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ripple-ui/ripple/pkg/oplog"
	"github.com/ripple-ui/ripple/pkg/reactive"
	"github.com/ripple-ui/ripple/pkg/vdom"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestSchedulerFlushObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	sched := reactive.NewScheduler(m.SchedulerOptions()...)
	obj := reactive.Instrument(map[string]any{"n": 0}).(*reactive.Object)

	runs := 0
	reactive.Watch(sched, func() any { return obj.Get("n") },
		func(_, _ any) { runs++ })

	obj.Set("n", 1) // SyncTicker: flushes immediately
	if runs != 1 {
		t.Fatalf("watcher runs = %d, want 1", runs)
	}

	if got := counterValue(t, m.flushesTotal); got != 1 {
		t.Errorf("flushes_total = %v, want 1", got)
	}
	if got := histogramCount(t, m.flushDuration); got != 1 {
		t.Errorf("flush_duration samples = %v, want 1", got)
	}
	if got := histogramCount(t, m.watcherRuns); got != 1 {
		t.Errorf("watcher_runs samples = %v, want 1", got)
	}
}

func TestCycleTripObservation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	var reported []error
	reactive.SetErrorHandler(func(err error, _ string) {
		reported = append(reported, err)
	})
	defer reactive.SetErrorHandler(nil)

	ticker := reactive.NewManualTicker()
	opts := append(m.SchedulerOptions(),
		reactive.WithTicker(ticker), reactive.WithMaxUpdates(3))
	sched := reactive.NewScheduler(opts...)

	obj := reactive.Instrument(map[string]any{"n": 0}).(*reactive.Object)
	reactive.Watch(sched, func() any { return obj.Get("n") },
		func(newVal, _ any) {
			obj.Set("n", newVal.(int)+1) // self-perpetuating
		})

	obj.Set("n", 1)
	ticker.Tick()

	if got := counterValue(t, m.cycleTrips); got != 1 {
		t.Errorf("update_cycles_tripped_total = %v, want 1", got)
	}
	if len(reported) == 0 {
		t.Error("cycle trip should also report through the error handler")
	}
}

func TestInstrumentNodeOpsCountsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	rec := oplog.NewRecorder()
	p := vdom.New(m.InstrumentNodeOps(rec), vdom.Modules{})

	old := vdom.NewElement("div", nil, vdom.NewText("a"))
	p.Patch(nil, old)
	p.Patch(old, vdom.NewElement("div", nil, vdom.NewText("b")))

	if got := counterValue(t, m.hostOps.WithLabelValues("create_element")); got != 1 {
		t.Errorf("create_element = %v, want 1", got)
	}
	if got := counterValue(t, m.hostOps.WithLabelValues("create_text")); got != 1 {
		t.Errorf("create_text = %v, want 1", got)
	}
	if got := counterValue(t, m.hostOps.WithLabelValues("set_text")); got != 1 {
		t.Errorf("set_text = %v, want 1", got)
	}
}

func TestSessionAccounting(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()
	if got := gaugeValue(t, m.activeSessions); got != 1 {
		t.Errorf("active_sessions = %v, want 1", got)
	}

	m.RecordFrame(512)
	m.RecordFrame(2048)
	if got := counterValue(t, m.framesSent); got != 2 {
		t.Errorf("frames_sent_total = %v, want 2", got)
	}
	if got := histogramCount(t, m.frameBytes); got != 2 {
		t.Errorf("frame_bytes samples = %v, want 2", got)
	}

	m.RecordSessionError("websocket")
	if got := counterValue(t, m.sessionErrors.WithLabelValues("websocket")); got != 1 {
		t.Errorf("session_errors_total = %v, want 1", got)
	}
}
