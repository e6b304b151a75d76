package controller

import (
	"github.com/zero-day-ai/rlmemory/action"
	"github.com/zero-day-ai/rlmemory/buffer"
	"github.com/zero-day-ai/rlmemory/memory"
)

// Actions returns the legal actions in canonical order: the wrapped
// environment's native actions plus, while the internal action budget lasts,
// the internal memory actions. A terminal environment offers nothing.
func (c *Controller) Actions() []action.Action {
	native := c.env.Actions()
	if len(native) == 0 {
		return nil
	}

	seen := make(map[action.Action]struct{}, len(native))
	actions := make([]action.Action, 0, len(native))
	add := func(a action.Action) {
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		actions = append(actions, a)
	}

	for _, a := range native {
		add(a)
	}
	if c.internalAllowed() {
		c.copyActions(add)
		c.deleteActions(add)
		c.retrieveActions(add)
		c.cursorActions(add)
	}

	action.Sort(actions)
	return actions
}

func (c *Controller) internalAllowed() bool {
	return c.maxInternal < 0 || c.internalCount < c.maxInternal
}

func (c *Controller) copyActions(add func(action.Action)) {
	for _, src := range c.buffers.Live() {
		if props, _ := buffer.PropertiesOf(src); !props.Copyable {
			continue
		}
		for _, attr := range c.buffers.Attrs(src) {
			v, _ := c.buffers.Value(src, attr)
			for _, dst := range c.buffers.Live() {
				if !copyAllowed(src, dst) {
					continue
				}
				// a missing destination attribute counts as nil
				cur, _ := c.buffers.Value(dst, attr)
				if memory.EqualValues(v, cur) {
					continue
				}
				add(action.Copy(string(src), attr, string(dst), attr))
			}
		}
	}
}

// copyAllowed reports whether src may be copied into dst.
func copyAllowed(src, dst buffer.Name) bool {
	if src == dst {
		return false
	}
	if src == buffer.Perceptual && dst == buffer.Scratch {
		return false
	}
	props, _ := buffer.PropertiesOf(dst)
	return props.Writable
}

func (c *Controller) deleteActions(add func(action.Action)) {
	for _, buf := range c.buffers.Live() {
		if props, _ := buffer.PropertiesOf(buf); !props.Writable {
			continue
		}
		for _, attr := range c.buffers.Attrs(buf) {
			add(action.Delete(string(buf), attr))
		}
	}
}

func (c *Controller) retrieveActions(add func(action.Action)) {
	for _, buf := range c.buffers.Live() {
		if props, _ := buffer.PropertiesOf(buf); !props.Copyable {
			continue
		}
		for _, attr := range c.buffers.Attrs(buf) {
			v, _ := c.buffers.Value(buf, attr)
			if c.store.Retrievable(v) {
				add(action.Retrieve(string(buf), attr))
			}
		}
	}
}

func (c *Controller) cursorActions(add func(action.Action)) {
	if c.buffers.Empty(buffer.Retrieval) {
		return
	}
	if c.store.HasPrevResult() {
		add(action.PrevResult())
	}
	if c.store.HasNextResult() {
		add(action.NextResult())
	}
}
