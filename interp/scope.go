package interp

import "rungo.sh/ion/value"

// frameKind distinguishes an ordinary block frame (if/while/for bodies
// share the enclosing function's variables) from a namespace frame, which
// a function call pushes as a hard lookup boundary (spec.md §3,
// "Scope-stack model").
type frameKind uint8

const (
	frameBlock frameKind = iota
	frameNamespace
)

type scopeFrame struct {
	kind frameKind
	vars map[string]value.Value
}

func newFrame(kind frameKind) *scopeFrame {
	return &scopeFrame{kind: kind, vars: make(map[string]value.Value)}
}

// scopeStack is an ordered stack of frames; index 0 is the global frame,
// which is also a namespace frame and is never popped.
type scopeStack struct {
	frames []*scopeFrame
}

func newScopeStack() *scopeStack {
	return &scopeStack{frames: []*scopeFrame{newFrame(frameNamespace)}}
}

// PushBlock opens an ordinary nested block (if/while/for body); variables
// assigned inside it are visible to the block alone, but lookups still see
// through it to enclosing frames up to the nearest namespace boundary.
func (s *scopeStack) PushBlock() { s.frames = append(s.frames, newFrame(frameBlock)) }

// PushNamespace opens a function-call hard boundary: lookups starting
// inside it do not continue past it unless addressed with super:: or
// global::.
func (s *scopeStack) PushNamespace() { s.frames = append(s.frames, newFrame(frameNamespace)) }

// Pop closes the innermost frame.
func (s *scopeStack) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Get resolves name using ordinary scoping: walk inward-to-outward,
// stopping at the first namespace boundary crossed (the boundary frame
// itself is still searched; frames beyond it are not).
func (s *scopeStack) Get(name string) (value.Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if v, ok := f.vars[name]; ok {
			return v, true
		}
		if f.kind == frameNamespace {
			break
		}
	}
	return value.Value{}, false
}

// GetSuper resolves name starting hops namespace boundaries further out
// than the caller's current namespace (the repeatable `super::` prefix:
// `super::super::x` passes hops=2, spec.md §3).
func (s *scopeStack) GetSuper(name string, hops int) (value.Value, bool) {
	start := s.outerNamespaceIndex(hops)
	for i := start; i >= 0; i-- {
		f := s.frames[i]
		if v, ok := f.vars[name]; ok {
			return v, true
		}
		if f.kind == frameNamespace {
			break
		}
	}
	return value.Value{}, false
}

// GetGlobal resolves name in the outermost (frame 0) scope only.
func (s *scopeStack) GetGlobal(name string) (value.Value, bool) {
	v, ok := s.frames[0].vars[name]
	return v, ok
}

// outerNamespaceIndex returns the frame index hops namespace boundaries
// further out than the innermost one (used by super::, hops>=1). hops<=0
// is treated as 1, matching a bare `super::`.
func (s *scopeStack) outerNamespaceIndex(hops int) int {
	if hops <= 0 {
		hops = 1
	}
	crossed := 0
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].kind == frameNamespace {
			crossed++
			if crossed > hops {
				return i
			}
		}
	}
	return 0
}

// Set assigns name in place if it already exists anywhere visible,
// otherwise creates it in the innermost frame (spec.md §3,
// "assignment-creates-or-mutates-in-place").
func (s *scopeStack) Set(name string, v value.Value) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if _, ok := f.vars[name]; ok {
			f.vars[name] = v
			return
		}
		if f.kind == frameNamespace {
			break
		}
	}
	s.frames[len(s.frames)-1].vars[name] = v
}

// SetGlobal assigns name in the outermost frame unconditionally (the
// `global::` prefix, and `export`).
func (s *scopeStack) SetGlobal(name string, v value.Value) {
	s.frames[0].vars[name] = v
}

// SetSuper assigns name starting hops namespace boundaries out.
func (s *scopeStack) SetSuper(name string, v value.Value, hops int) {
	start := s.outerNamespaceIndex(hops)
	for i := start; i >= 0; i-- {
		f := s.frames[i]
		if _, ok := f.vars[name]; ok {
			f.vars[name] = v
			return
		}
		if f.kind == frameNamespace {
			break
		}
	}
	s.frames[start].vars[name] = v
}

// Each iterates every visible binding from innermost frame outward,
// stopping at the nearest namespace boundary, calling fn once per unique
// name (the innermost shadowing definition wins).
func (s *scopeStack) Each(fn func(name string, v value.Value)) {
	seen := make(map[string]bool)
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		for name, v := range f.vars {
			if seen[name] {
				continue
			}
			seen[name] = true
			fn(name, v)
		}
		if f.kind == frameNamespace {
			break
		}
	}
}
