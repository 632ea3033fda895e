package live

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripple-ui/ripple/pkg/oplog"
	"github.com/ripple-ui/ripple/pkg/reactive"
	"github.com/ripple-ui/ripple/pkg/runtime"
	"github.com/ripple-ui/ripple/pkg/vdom"
)

// Program declares a component the server can run: how to build a fresh
// state root, how to render it, and which events it handles. One Program
// serves many sessions; State is called per session so sessions never
// share reactive state.
type Program struct {
	// State builds a fresh state root for one session.
	State func() any

	// Render produces the render tree from the instrumented state.
	Render runtime.RenderFunc

	// Events maps event names to handlers. Handlers run on the session
	// goroutine and mutate state; the re-render follows on the flush.
	Events map[string]func(state any, payload string)
}

// session is one live connection. All session work, event handling,
// flushing, writing, happens on the connection's read goroutine; the
// scheduler's cooperative single-goroutine model depends on that.
type session struct {
	id      string
	server  *Server
	conn    *websocket.Conn
	program *Program

	ticker   *reactive.ManualTicker
	sched    *reactive.Scheduler
	recorder *oplog.Recorder
	comp     *runtime.Component

	log *slog.Logger
}

func (s *Server) newSession(conn *websocket.Conn, name string, program *Program) (*session, error) {
	sess := &session{
		id:      fmt.Sprintf("%s-%d", name, time.Now().UnixNano()),
		server:  s,
		conn:    conn,
		program: program,
		log:     s.log.With("session", name),
	}

	sess.ticker = reactive.NewManualTicker()
	opts := []reactive.SchedulerOption{reactive.WithTicker(sess.ticker)}
	if s.metrics != nil {
		opts = append(opts, s.metrics.SchedulerOptions()...)
	}
	sess.sched = reactive.NewScheduler(opts...)

	sess.recorder = oplog.NewRecorder()
	var ops vdom.NodeOps = sess.recorder
	if s.metrics != nil {
		ops = s.metrics.InstrumentNodeOps(sess.recorder)
	}
	patcher := vdom.New(ops, vdom.Modules{}, vdom.WithLogger(sess.log))

	comp, err := runtime.Mount(sess.sched, patcher, program.State(), program.Render,
		runtime.WithName(name), runtime.WithLogger(sess.log))
	if err != nil {
		return nil, fmt.Errorf("live: mount %s: %w", name, err)
	}
	sess.comp = comp
	sess.recorder.MountRoot(comp.HostNode())
	return sess, nil
}

// run services the connection until it closes. The initial frame carries
// the whole mounted tree; every event that changes state is followed by
// one incremental frame.
func (sess *session) run(ctx context.Context) {
	defer sess.close()

	if err := sess.sendPending(); err != nil {
		sess.log.Error("initial frame write failed", "error", err)
		return
	}

	cfg := sess.server.config
	sess.conn.SetReadLimit(cfg.MaxMessageSize)
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	stopPing := sess.startPing(cfg.PingInterval)
	defer stopPing()

	for {
		sess.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		_, msg, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				sess.log.Error("read error", "error", err)
				sess.server.recordError("websocket")
			}
			return
		}

		ev, err := DecodeEvent(msg)
		if err != nil {
			sess.log.Error("event decode error", "error", err)
			sess.server.recordError("decode")
			continue
		}
		sess.handleEvent(ctx, ev)
	}
}

func (sess *session) handleEvent(ctx context.Context, ev *Event) {
	_, span := sess.server.tracer.Start(ctx, "live.event",
		trace.WithAttributes(
			attribute.String("event.name", ev.Name),
			attribute.String("component", sess.comp.Name()),
		))
	defer span.End()

	handler, ok := sess.program.Events[ev.Name]
	if !ok {
		sess.log.Warn("unhandled event", "event", ev.Name)
		span.SetStatus(codes.Error, "unhandled event")
		sess.server.recordError("unhandled_event")
		return
	}

	handler(sess.comp.State(), ev.Payload)
	sess.ticker.Tick()

	if err := sess.sendPending(); err != nil {
		sess.log.Error("frame write failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "frame write failed")
	}
}

// sendPending flushes the recorder and writes the frame, if any.
func (sess *session) sendPending() error {
	frame := sess.recorder.Flush()
	if frame == nil {
		return nil
	}
	data := oplog.EncodeFrame(frame)

	sess.conn.SetWriteDeadline(time.Now().Add(sess.server.config.WriteTimeout))
	if err := sess.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return err
	}
	if sess.server.metrics != nil {
		sess.server.metrics.RecordFrame(len(data))
	}
	return nil
}

func (sess *session) startPing(interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				deadline := time.Now().Add(sess.server.config.WriteTimeout)
				if err := sess.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

func (sess *session) close() {
	sess.comp.Unmount()
	sess.conn.Close()
	if sess.server.metrics != nil {
		sess.server.metrics.SessionEnded()
	}
	sess.log.Info("session closed")
}
