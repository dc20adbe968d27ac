package logger

import (
	"strings"
	"sync"
)

// hierarchy owns every node below one root. Nodes refer to their parent by
// key: "" is the root, anything else is a key of children.
type hierarchy struct {
	reg *Registry

	mu       sync.RWMutex
	root     *Logger
	children map[string]*Logger
	released bool
}

func newHierarchy(reg *Registry, name string, level Level) *hierarchy {
	h := &hierarchy{reg: reg, children: make(map[string]*Logger)}
	root := &Logger{h: h, name: name, root: true}
	root.level.Store(int64(level))
	root.propagate.Store(false)
	h.root = root
	return h
}

// parentLocked returns the parent of l, or nil for the root and for nodes
// whose parent has been released. Callers hold h.mu.
func (h *hierarchy) parentLocked(l *Logger) *Logger {
	if l.root {
		return nil
	}
	if l.parentKey == "" {
		return h.root
	}
	return h.children[l.parentKey]
}

// getOrCreateLocked returns the child keyed by name, creating it under parent.
func (h *hierarchy) getOrCreateLocked(parent *Logger, name string) *Logger {
	if child, ok := h.children[name]; ok {
		return child
	}
	child := &Logger{h: h, name: name}
	if !parent.root {
		child.parentKey = parent.name
	}
	h.children[name] = child
	return child
}

// detach removes l and its descendants (every node for a root) and returns
// the removed nodes with their handlers.
func (h *hierarchy) detach(l *Logger) ([]*Logger, []Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var removed []*Logger
	if l.root {
		if h.released {
			return nil, nil
		}
		h.released = true
		removed = append(removed, h.root)
		for _, child := range h.children {
			removed = append(removed, child)
		}
		h.children = make(map[string]*Logger)
	} else {
		if h.children[l.name] != l {
			return nil, nil
		}
		prefix := l.name + "."
		for name, child := range h.children {
			if name == l.name || strings.HasPrefix(name, prefix) {
				removed = append(removed, child)
				delete(h.children, name)
			}
		}
	}

	var handlers []Handler
	for _, node := range removed {
		handlers = append(handlers, node.handlers...)
		node.handlers = nil
	}
	return removed, handlers
}
