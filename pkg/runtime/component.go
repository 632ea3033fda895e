package runtime

import (
	"fmt"
	"log/slog"

	"github.com/ripple-ui/ripple/pkg/reactive"
	"github.com/ripple-ui/ripple/pkg/vdom"
)

// RenderFunc produces a render tree from the component's state root. It
// runs inside the render watcher, so every reactive read it performs
// becomes a re-render trigger.
type RenderFunc func(state any) *vdom.VNode

// Component is a mounted render function. It satisfies vdom.Instance so
// components can appear as placeholders inside other components' trees.
type Component struct {
	name    string
	state   any
	render  RenderFunc
	patcher *vdom.Patcher
	sched   *reactive.Scheduler
	scope   *reactive.Scope
	watcher *reactive.Watcher
	log     *slog.Logger

	tree      *vdom.VNode
	host      vdom.NodeRef
	mounted   bool
	destroyed bool

	hydrateHost vdom.NodeRef
	hydrateTag  string

	onMounted   []func()
	onUpdated   []func()
	onUnmounted []func()

	renderErr error
}

// Option configures a Component at mount.
type Option interface {
	applyComponent(c *Component)
}

type optionFunc func(*Component)

func (f optionFunc) applyComponent(c *Component) { f(c) }

// WithName sets the component name used in diagnostics.
func WithName(name string) Option {
	return optionFunc(func(c *Component) { c.name = name })
}

// WithLogger sets the diagnostics logger.
func WithLogger(log *slog.Logger) Option {
	return optionFunc(func(c *Component) { c.log = log })
}

// WithHydration makes the initial render adopt an existing host subtree
// instead of building a fresh one.
func WithHydration(host vdom.NodeRef, tag string) Option {
	return optionFunc(func(c *Component) {
		c.hydrateHost = host
		c.hydrateTag = tag
	})
}

// OnMounted registers a hook run once after the initial render.
func OnMounted(fn func()) Option {
	return optionFunc(func(c *Component) { c.onMounted = append(c.onMounted, fn) })
}

// OnUpdated registers a hook run after every re-render.
func OnUpdated(fn func()) Option {
	return optionFunc(func(c *Component) { c.onUpdated = append(c.onUpdated, fn) })
}

// OnUnmounted registers a hook run after teardown.
func OnUnmounted(fn func()) Option {
	return optionFunc(func(c *Component) { c.onUnmounted = append(c.onUnmounted, fn) })
}

// Mount instruments state, renders once, and installs the render watcher.
// The state root is pinned against unwrapping for the component lifetime.
// Mount fails if the initial render panics; re-render panics after that
// only log and keep the previous tree.
func Mount(sched *reactive.Scheduler, patcher *vdom.Patcher, state any, render RenderFunc, opts ...Option) (*Component, error) {
	c := &Component{
		name:    "anonymous",
		render:  render,
		patcher: patcher,
		sched:   sched,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt.applyComponent(c)
	}

	c.state = reactive.Instrument(state)
	addRootRef(c.state)
	c.scope = reactive.NewScope(nil)

	reactive.InScope(c.scope, func() {
		c.watcher = reactive.NewWatcher(sched, c.renderAndPatch, nil)
	})
	if c.renderErr != nil {
		err := c.renderErr
		c.watcher.Teardown()
		c.scope.Dispose()
		releaseRootRef(c.state)
		return nil, err
	}

	c.mounted = true
	for _, fn := range c.onMounted {
		fn()
	}
	return c, nil
}

// renderAndPatch is the render watcher's getter: it produces the next
// tree under dependency tracking and patches it against the retained one.
func (c *Component) renderAndPatch() any {
	next, err := c.safeRender()
	if err != nil {
		c.renderErr = err
		if c.tree != nil {
			c.log.Error("runtime: render failed, keeping previous tree",
				"component", c.name, "error", err)
		}
		return nil
	}
	c.renderErr = nil

	if next == nil {
		// An empty render still needs a node to hold the position.
		next = vdom.NewComment("")
	}

	switch {
	case c.tree == nil && c.hydrateHost != nil:
		c.host = c.patcher.Patch(vdom.Adopt(c.hydrateHost, c.hydrateTag), next,
			vdom.Hydrating())
	case c.tree == nil:
		c.host = c.patcher.Patch(nil, next)
	default:
		c.host = c.patcher.Patch(c.tree, next)
	}
	c.tree = next

	if c.mounted {
		for _, fn := range c.onUpdated {
			fn()
		}
	}
	return nil
}

func (c *Component) safeRender() (v *vdom.VNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("ripple: render panic: %w", e)
			} else {
				err = fmt.Errorf("ripple: render panic: %v", r)
			}
			v = nil
		}
	}()
	return c.render(c.state), nil
}

// State returns the instrumented state root.
func (c *Component) State() any {
	return c.state
}

// Name returns the component's diagnostic name.
func (c *Component) Name() string {
	return c.name
}

// RenderedTree implements vdom.Instance.
func (c *Component) RenderedTree() *vdom.VNode {
	return c.tree
}

// HostNode implements vdom.Instance.
func (c *Component) HostNode() vdom.NodeRef {
	return c.host
}

// Destroy implements vdom.Instance.
func (c *Component) Destroy() {
	c.Unmount()
}

// ForceUpdate schedules a re-render regardless of dependency changes.
func (c *Component) ForceUpdate() {
	c.watcher.Invalidate()
}

// NextTick runs fn after the current flush settles, or immediately when
// nothing is pending.
func (c *Component) NextTick(fn func()) {
	c.sched.NextTick(fn)
}

// Watch installs a component-scoped user watcher over getter; it is torn
// down with the component.
func (c *Component) Watch(getter func() any, cb func(newVal, oldVal any), opts ...reactive.WatcherOption) *reactive.Watcher {
	var w *reactive.Watcher
	reactive.InScope(c.scope, func() {
		w = reactive.Watch(c.sched, getter, cb, append(opts, reactive.User())...)
	})
	return w
}

// Unmount tears down the render watcher and every scoped watcher, runs
// the tree's destroy hooks, and releases the state root pin. Idempotent.
func (c *Component) Unmount() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.mounted = false

	c.watcher.Teardown()
	c.scope.Dispose()
	if c.tree != nil {
		c.patcher.Patch(c.tree, nil)
		c.tree = nil
	}
	releaseRootRef(c.state)

	for _, fn := range c.onUnmounted {
		fn()
	}
}

func addRootRef(state any) {
	switch s := state.(type) {
	case *reactive.Object:
		s.AddRootRef()
	case *reactive.Array:
		s.AddRootRef()
	}
}

func releaseRootRef(state any) {
	switch s := state.(type) {
	case *reactive.Object:
		s.ReleaseRootRef()
	case *reactive.Array:
		s.ReleaseRootRef()
	}
}
