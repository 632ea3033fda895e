package vdom

import (
	"log/slog"
	"strings"
)

// Patcher reconciles render trees against a host tree through a NodeOps
// implementation. A Patcher is safe to reuse across passes but not
// concurrently; one retained tree has exactly one patch pass in flight.
type Patcher struct {
	ops  NodeOps
	mods Modules
	log  *slog.Logger
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithLogger sets the diagnostics logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Patcher) { p.log = log }
}

// New creates a Patcher over the given host operations and modules.
func New(ops NodeOps, mods Modules, opts ...Option) *Patcher {
	p := &Patcher{ops: ops, mods: mods, log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PatchOption configures a single patch pass.
type PatchOption func(*pass)

// Hydrating makes the pass try to adopt an existing host subtree (built
// by server rendering) instead of recreating it. It only applies when
// the old tree is an adopted host element.
func Hydrating() PatchOption {
	return func(ps *pass) { ps.hydrating = true }
}

// RemoveOnly disables element moves during child reconciliation so that
// removal transitions keep their relative positions stable.
func RemoveOnly() PatchOption {
	return func(ps *pass) { ps.removeOnly = true }
}

// pass is the state of one reconciliation pass.
type pass struct {
	*Patcher
	insertQueue []*VNode
	removeOnly  bool
	hydrating   bool
}

// Patch reconciles new against old and returns the host node of the new
// root. A nil old mounts fresh; a nil new unmounts. Old trees are never
// reused after being patched away.
func (p *Patcher) Patch(old, new *VNode, opts ...PatchOption) NodeRef {
	ps := &pass{Patcher: p}
	for _, opt := range opts {
		opt(ps)
	}

	if new == nil {
		if old != nil {
			ps.invokeDestroyHook(old)
		}
		return nil
	}

	if old == nil {
		// Fresh mount with no attachment point; the caller places the
		// returned node.
		ps.createElm(new, nil, nil, nil, 0)
	} else if !old.adopted && sameVNode(old, new) {
		ps.patchVNode(old, new, nil, 0)
	} else {
		if old.adopted && ps.hydrating {
			if ps.hydrate(old.Host, new) {
				ps.invokeInsertHook()
				return new.Host
			}
			p.log.Warn("vdom: hydration mismatch, rebuilding subtree",
				"tag", new.Tag)
		}

		// Not the same node: build the new tree beside the old one,
		// then drop the old one.
		oldElm := hostOf(old)
		parentElm := NodeRef(nil)
		if oldElm != nil {
			parentElm = p.ops.Parent(oldElm)
		}
		var ref NodeRef
		if oldElm != nil && parentElm != nil {
			ref = p.ops.NextSibling(oldElm)
		}
		ps.createElm(new, parentElm, ref, nil, 0)

		if parentElm != nil {
			ps.removeVnodes([]*VNode{old}, 0, 0)
		} else {
			ps.invokeDestroyHook(old)
		}
	}

	ps.invokeInsertHook()
	return new.Host
}

// sameVNode decides whether two nodes occupy the same identity and can
// be patched in place. Keys must match; then either both sides are the
// same concrete kind of node, or both are placeholders of one async
// factory that has not failed.
func sameVNode(a, b *VNode) bool {
	if a.Key != b.Key {
		return false
	}
	if a.Kind == KindAsync || b.Kind == KindAsync {
		return a.AsyncFactory != nil && a.AsyncFactory == b.AsyncFactory &&
			!b.AsyncFactory.Failed()
	}
	return a.Kind == b.Kind &&
		a.Tag == b.Tag &&
		(a.Data == nil) == (b.Data == nil) &&
		sameInputType(a, b)
}

// sameInputType refuses in-place patching between input elements of
// different types; hosts do not reliably retype a live input.
func sameInputType(a, b *VNode) bool {
	if a.Tag != "input" {
		return true
	}
	ta, tb := a.inputType(), b.inputType()
	return ta == tb || (isTextInput(ta) && isTextInput(tb))
}

func isTextInput(t string) bool {
	switch t {
	case "text", "number", "password", "search", "email", "tel", "url":
		return true
	}
	return false
}

// hostOf resolves a node to its materialized host, descending through
// component placeholders to the concrete rendered root.
func hostOf(v *VNode) NodeRef {
	for v != nil {
		if v.Host != nil {
			return v.Host
		}
		if v.Instance == nil {
			return nil
		}
		v = v.Instance.RenderedTree()
	}
	return nil
}

// createElm materializes v and attaches it under parentElm before ref.
// ownerArray/index identify v's slot so a node already materialized
// elsewhere can be replaced by a clone instead of aliased.
func (ps *pass) createElm(v *VNode, parentElm, ref NodeRef, ownerArray []*VNode, index int) {
	if v.Host != nil && ownerArray != nil {
		// This node was rendered in a previous pass and is now reused in
		// a new position; aliasing its host reference would corrupt
		// later patches, so materialize a clone.
		v = v.Clone()
		ownerArray[index] = v
	}

	if ps.createComponent(v, parentElm, ref) {
		return
	}

	switch v.Kind {
	case KindElement:
		v.Host = ps.ops.CreateElement(v.Tag)
		ps.createChildren(v)
		ps.invokeCreateHooks(v)
		ps.insert(parentElm, v.Host, ref)
	case KindComment, KindAsync:
		v.Host = ps.ops.CreateComment(v.Text)
		ps.insert(parentElm, v.Host, ref)
	default:
		v.Host = ps.ops.CreateText(v.Text)
		ps.insert(parentElm, v.Host, ref)
	}
}

// createComponent mounts a component placeholder through its Init hook.
// It reports true when the node was handled as a component.
func (ps *pass) createComponent(v *VNode, parentElm, ref NodeRef) bool {
	if v.Kind != KindComponent {
		return false
	}
	if h := nodeHooks(v); h != nil && h.Init != nil {
		h.Init(v)
	}
	if v.Instance == nil {
		// Unresolved or aborted mount: hold the position with a comment
		// so siblings keep their anchors.
		v.Host = ps.ops.CreateComment("")
		ps.insert(parentElm, v.Host, ref)
		return true
	}
	v.Host = v.Instance.HostNode()
	ps.queueInsert(v)
	ps.insert(parentElm, v.Host, ref)
	return true
}

func (ps *pass) createChildren(v *VNode) {
	if v.Children != nil {
		ps.checkDuplicateKeys(v.Children)
		for i := range v.Children {
			ps.createElm(v.Children[i], v.Host, nil, v.Children, i)
		}
	} else if v.Text != "" {
		ps.ops.AppendChild(v.Host, ps.ops.CreateText(v.Text))
	}
}

func (ps *pass) invokeCreateHooks(v *VNode) {
	for _, cb := range ps.mods.Create {
		cb(emptyNode, v)
	}
	if h := nodeHooks(v); h != nil && h.Insert != nil {
		ps.queueInsert(v)
	}
}

func (ps *pass) insert(parent, child, ref NodeRef) {
	if parent == nil || child == nil {
		return
	}
	if ref != nil {
		if ps.ops.Parent(ref) == parent {
			ps.ops.InsertBefore(parent, child, ref)
		}
		return
	}
	ps.ops.AppendChild(parent, child)
}

func (ps *pass) queueInsert(v *VNode) {
	ps.insertQueue = append(ps.insertQueue, v)
}

func (ps *pass) invokeInsertHook() {
	for _, v := range ps.insertQueue {
		if h := nodeHooks(v); h != nil && h.Insert != nil {
			h.Insert(v)
		}
	}
	ps.insertQueue = ps.insertQueue[:0]
}

// patchVNode reconciles two nodes already known same and reuses the old
// host node in place. ownerArray/index identify new's slot so a node
// already materialized elsewhere is patched through a clone, mirroring
// the createElm guard.
func (ps *pass) patchVNode(old, new *VNode, ownerArray []*VNode, index int) {
	if old == new {
		return
	}

	if new.Host != nil && ownerArray != nil {
		new = new.Clone()
		ownerArray[index] = new
	}

	elm := old.Host

	if old.Kind == KindAsync {
		if new.Kind == KindAsync {
			// Both sides are the placeholder comment; nothing to patch
			// until the factory resolves and the owner re-renders.
			new.Host = elm
			return
		}
		// The factory resolved between renders: materialize the concrete
		// tree in the placeholder's position and drop the comment. The old
		// node adopts the new host so pending moves relocate the resolved
		// tree, not the detached comment.
		parent := ps.ops.Parent(elm)
		var ref NodeRef
		if parent != nil {
			ref = ps.ops.NextSibling(elm)
		}
		ps.createElm(new, parent, ref, nil, 0)
		ps.removeNode(elm)
		old.Host = new.Host
		return
	}

	new.Host = elm

	// Static trees are render-stable; a re-render hands back either the
	// very same node or a clone of it, and neither needs diffing.
	if new.IsStatic && old.IsStatic && new.Key == old.Key &&
		(new.isCloned || new.IsOnce) {
		new.Instance = old.Instance
		return
	}

	if h := nodeHooks(new); h != nil && h.Prepatch != nil {
		h.Prepatch(old, new)
	}

	if new.Data != nil {
		for _, cb := range ps.mods.Update {
			cb(old, new)
		}
		if h := nodeHooks(new); h != nil && h.Update != nil {
			h.Update(old, new)
		}
	}

	if new.Kind == KindElement && new.Text == "" {
		switch {
		case old.Children != nil && new.Children != nil:
			if !sameSlice(old.Children, new.Children) {
				ps.updateChildren(elm, old.Children, new.Children)
			}
		case new.Children != nil:
			ps.checkDuplicateKeys(new.Children)
			if old.Text != "" {
				ps.ops.SetText(elm, "")
			}
			ps.addVnodes(elm, nil, new.Children, 0, len(new.Children)-1)
		case old.Children != nil:
			ps.removeVnodes(old.Children, 0, len(old.Children)-1)
		case old.Text != "":
			ps.ops.SetText(elm, "")
		}
	} else if old.Text != new.Text {
		ps.ops.SetText(elm, new.Text)
	}
}

// updateChildren is the keyed two-ended child diff. Four probes run per
// step, old-start/new-start, old-end/new-end, old-start/new-end,
// old-end/new-start; only when all four miss does it fall back to a
// lazily built key index over the remaining old window. It favors cheap
// common cases (append, prepend, reverse, shift) over an optimal diff.
func (ps *pass) updateChildren(parentElm NodeRef, oldCh, newCh []*VNode) {
	oldStartIdx, newStartIdx := 0, 0
	oldEndIdx := len(oldCh) - 1
	newEndIdx := len(newCh) - 1
	var oldKeyToIdx map[string]int
	canMove := !ps.removeOnly

	ps.checkDuplicateKeys(newCh)

	for oldStartIdx <= oldEndIdx && newStartIdx <= newEndIdx {
		oldStart, oldEnd := oldCh[oldStartIdx], oldCh[oldEndIdx]
		newStart, newEnd := newCh[newStartIdx], newCh[newEndIdx]
		switch {
		case oldStart == nil:
			// Slot vacated by a keyed move.
			oldStartIdx++
		case oldEnd == nil:
			oldEndIdx--
		case sameVNode(oldStart, newStart):
			ps.patchVNode(oldStart, newStart, newCh, newStartIdx)
			oldStartIdx++
			newStartIdx++
		case sameVNode(oldEnd, newEnd):
			ps.patchVNode(oldEnd, newEnd, newCh, newEndIdx)
			oldEndIdx--
			newEndIdx--
		case sameVNode(oldStart, newEnd):
			// Old head moved to the tail.
			ps.patchVNode(oldStart, newEnd, newCh, newEndIdx)
			if canMove {
				ps.ops.InsertBefore(parentElm, oldStart.Host,
					ps.ops.NextSibling(oldEnd.Host))
			}
			oldStartIdx++
			newEndIdx--
		case sameVNode(oldEnd, newStart):
			// Old tail moved to the head.
			ps.patchVNode(oldEnd, newStart, newCh, newStartIdx)
			if canMove {
				ps.ops.InsertBefore(parentElm, oldEnd.Host, oldStart.Host)
			}
			oldEndIdx--
			newStartIdx++
		default:
			if oldKeyToIdx == nil {
				oldKeyToIdx = keyIndex(oldCh, oldStartIdx, oldEndIdx)
			}
			idxInOld := -1
			if newStart.Key != "" {
				if i, ok := oldKeyToIdx[newStart.Key]; ok {
					idxInOld = i
				}
			} else {
				idxInOld = findIdxInOld(newStart, oldCh, oldStartIdx, oldEndIdx)
			}
			if idxInOld < 0 {
				ps.createElm(newStart, parentElm, oldStart.Host, newCh, newStartIdx)
			} else {
				moved := oldCh[idxInOld]
				if sameVNode(moved, newStart) {
					ps.patchVNode(moved, newStart, newCh, newStartIdx)
					oldCh[idxInOld] = nil
					if canMove {
						ps.ops.InsertBefore(parentElm, moved.Host, oldStart.Host)
					}
				} else {
					// Same key, different element; treat as new.
					ps.createElm(newStart, parentElm, oldStart.Host, newCh, newStartIdx)
				}
			}
			newStartIdx++
		}
	}

	if oldStartIdx > oldEndIdx {
		var ref NodeRef
		if newEndIdx+1 < len(newCh) {
			ref = hostOf(newCh[newEndIdx+1])
		}
		ps.addVnodes(parentElm, ref, newCh, newStartIdx, newEndIdx)
	} else if newStartIdx > newEndIdx {
		ps.removeVnodes(oldCh, oldStartIdx, oldEndIdx)
	}
}

func keyIndex(children []*VNode, begin, end int) map[string]int {
	idx := make(map[string]int, end-begin+1)
	for i := begin; i <= end; i++ {
		if c := children[i]; c != nil && c.Key != "" {
			idx[c.Key] = i
		}
	}
	return idx
}

// findIdxInOld locates an unkeyed match in the remaining old window.
func findIdxInOld(node *VNode, oldCh []*VNode, begin, end int) int {
	for i := begin; i <= end; i++ {
		if c := oldCh[i]; c != nil && c.Key == "" && sameVNode(c, node) {
			return i
		}
	}
	return -1
}

func (ps *pass) addVnodes(parentElm, ref NodeRef, vnodes []*VNode, begin, end int) {
	for i := begin; i <= end; i++ {
		ps.createElm(vnodes[i], parentElm, ref, vnodes, i)
	}
}

func (ps *pass) removeVnodes(vnodes []*VNode, begin, end int) {
	for i := begin; i <= end; i++ {
		ch := vnodes[i]
		if ch == nil {
			continue
		}
		if ch.Kind == KindText || ch.isComment() {
			ps.removeNode(ch.Host)
			continue
		}
		ps.invokeDestroyHook(ch)
		ps.removeAndInvokeRemoveHook(ch)
	}
}

// sameSlice reports whether two child slices share a backing array, in
// which case they are the same list and need no diff.
func sameSlice(a, b []*VNode) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}

// removeAndInvokeRemoveHook keeps the host node attached until every
// remove module has reported done, so leave effects can run against a
// live node.
func (ps *pass) removeAndInvokeRemoveHook(v *VNode) {
	host := hostOf(v)
	if host == nil {
		return
	}
	if len(ps.mods.Remove) == 0 {
		ps.removeNode(host)
		return
	}
	pending := len(ps.mods.Remove)
	done := func() {
		pending--
		if pending == 0 {
			ps.removeNode(host)
		}
	}
	for _, cb := range ps.mods.Remove {
		cb(v, done)
	}
}

func (ps *pass) removeNode(host NodeRef) {
	if host == nil {
		return
	}
	if parent := ps.ops.Parent(host); parent != nil {
		ps.ops.RemoveChild(parent, host)
	}
}

func (ps *pass) invokeDestroyHook(v *VNode) {
	if h := nodeHooks(v); h != nil && h.Destroy != nil {
		h.Destroy(v)
	}
	for _, cb := range ps.mods.Destroy {
		cb(v, v)
	}
	if v.Instance != nil {
		v.Instance.Destroy()
	}
	for _, c := range v.Children {
		if c != nil {
			ps.invokeDestroyHook(c)
		}
	}
}

// checkDuplicateKeys is a diagnostic only; duplicate keys degrade the
// diff but must not crash it.
func (ps *pass) checkDuplicateKeys(children []*VNode) {
	var seen map[string]struct{}
	for _, c := range children {
		if c == nil || c.Key == "" {
			continue
		}
		if seen == nil {
			seen = make(map[string]struct{}, len(children))
		}
		if _, dup := seen[c.Key]; dup {
			ps.log.Warn("vdom: duplicate keys in children, diff may misbehave",
				"key", c.Key)
			continue
		}
		seen[c.Key] = struct{}{}
	}
}

// hydrate adopts an existing host subtree for v instead of creating
// nodes. It reports false on a structural mismatch, in which case the
// caller rebuilds from scratch.
func (ps *pass) hydrate(elm NodeRef, v *VNode) bool {
	v.Host = elm
	if v.Kind == KindAsync {
		return true
	}
	if v.Kind == KindComponent {
		if h := nodeHooks(v); h != nil && h.Init != nil {
			h.Init(v)
		}
		if v.Instance != nil {
			v.Host = v.Instance.HostNode()
			ps.queueInsert(v)
			return true
		}
		return false
	}
	if v.Kind != KindElement {
		ps.ops.SetText(elm, v.Text)
		return true
	}
	if !strings.EqualFold(ps.ops.TagName(elm), v.Tag) {
		return false
	}
	if v.Children != nil {
		child := ps.ops.FirstChild(elm)
		for _, c := range v.Children {
			if child == nil || !ps.hydrate(child, c) {
				return false
			}
			child = ps.ops.NextSibling(child)
		}
		if child != nil {
			return false
		}
	} else if v.Text != "" {
		ps.ops.SetText(elm, v.Text)
	}
	for _, cb := range ps.mods.Activate {
		cb(emptyNode, v)
	}
	if h := nodeHooks(v); h != nil && h.Insert != nil {
		ps.queueInsert(v)
	}
	return true
}

func nodeHooks(v *VNode) *Hooks {
	if v.Data == nil {
		return nil
	}
	return v.Data.Hooks
}
