// Package graphcycle walks "based on" references between taxonomy items and
// reports cycles or references to items that were never declared.
package graphcycle

import "fmt"

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// CycleError reports a cycle reached again at Key.
type CycleError[K comparable] struct {
	Key  K
	Path []K
}

// Error returns the error string.
func (e CycleError[K]) Error() string {
	return fmt.Sprintf("cycle detected at %v (path %v)", e.Key, e.Path)
}

// MissingError reports a reference from From to an undeclared Key.
type MissingError[K comparable] struct {
	From K
	Key  K
}

// Error returns the error string.
func (e MissingError[K]) Error() string {
	return fmt.Sprintf("%v refers to undeclared %v", e.From, e.Key)
}

// Graph describes the nodes and edges to walk.
// Parent returns the node a key is based on and false when it is a root.
type Graph[K comparable] struct {
	Exists func(K) bool
	Parent func(K) (K, bool)
}

// Lineage returns the chain from the root ancestor down to key.
func (g Graph[K]) Lineage(key K) ([]K, error) {
	if g.Parent == nil {
		return nil, fmt.Errorf("lineage: parent function is nil")
	}
	seen := make(map[K]struct{})
	chain := []K{key}
	seen[key] = struct{}{}
	cur := key
	for {
		next, ok := g.Parent(cur)
		if !ok || next == cur {
			break
		}
		if g.Exists != nil && !g.Exists(next) {
			return nil, MissingError[K]{From: cur, Key: next}
		}
		if _, dup := seen[next]; dup {
			return nil, CycleError[K]{Key: next, Path: reversed(chain)}
		}
		seen[next] = struct{}{}
		chain = append(chain, next)
		cur = next
	}
	return reversed(chain), nil
}

// Check walks every start key and returns the first cycle or missing reference.
func (g Graph[K]) Check(starts []K) error {
	if g.Parent == nil {
		return fmt.Errorf("cycle check: parent function is nil")
	}
	states := make(map[K]visitState, len(starts))
walk:
	for _, start := range starts {
		var path []K
		cur := start
		for {
			switch states[cur] {
			case stateDone:
				markDone(states, path)
				continue walk
			case stateVisiting:
				return CycleError[K]{Key: cur, Path: append(path, cur)}
			}
			states[cur] = stateVisiting
			path = append(path, cur)
			parent, ok := g.Parent(cur)
			if !ok || parent == cur {
				markDone(states, path)
				continue walk
			}
			if g.Exists != nil && !g.Exists(parent) {
				return MissingError[K]{From: cur, Key: parent}
			}
			cur = parent
		}
	}
	return nil
}

func markDone[K comparable](states map[K]visitState, path []K) {
	for _, k := range path {
		states[k] = stateDone
	}
}

func reversed[K any](in []K) []K {
	out := make([]K, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
