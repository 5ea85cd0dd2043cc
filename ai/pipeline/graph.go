// Package pipeline runs small linear node graphs over a shared string state.
package pipeline

import (
	"context"

	"github.com/pkg/errors"
)

// Well-known node names. Every graph starts at Start and finishes when a
// node routes to End.
const (
	Start = "start"
	End   = "end"
)

// State is the mutable bag of values threaded through a graph run.
type State map[string]string

// NodeFunc transforms the state. It may mutate the map in place.
type NodeFunc func(ctx context.Context, state State) error

// Graph is a named set of nodes with static edges.
type Graph struct {
	nodes map[string]NodeFunc
	edges map[string]string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: map[string]NodeFunc{},
		edges: map[string]string{},
	}
}

// AddNode registers a node under name.
func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	g.nodes[name] = fn
	return g
}

// AddEdge routes from node `from` to node `to` after `from` completes.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = to
	return g
}

// Compile validates the graph shape and returns a runnable.
func (g *Graph) Compile() (*Runnable, error) {
	if _, ok := g.edges[Start]; !ok {
		return nil, errors.New("pipeline: graph has no edge from start")
	}
	for from, to := range g.edges {
		if from != Start {
			if _, ok := g.nodes[from]; !ok {
				return nil, errors.Errorf("pipeline: edge from unknown node %q", from)
			}
		}
		if to != End {
			if _, ok := g.nodes[to]; !ok {
				return nil, errors.Errorf("pipeline: edge to unknown node %q", to)
			}
		}
	}
	return &Runnable{graph: g}, nil
}

// Runnable is a compiled graph.
type Runnable struct {
	graph *Graph
}

// Invoke runs the graph from Start to End and returns the final state.
func (r *Runnable) Invoke(ctx context.Context, state State) (State, error) {
	if state == nil {
		state = State{}
	}
	current := r.graph.edges[Start]
	// Bounded by node count; a cycle would otherwise run forever.
	for steps := 0; current != End; steps++ {
		if steps > len(r.graph.nodes) {
			return nil, errors.Errorf("pipeline: cycle detected at node %q", current)
		}
		fn, ok := r.graph.nodes[current]
		if !ok {
			return nil, errors.Errorf("pipeline: unknown node %q", current)
		}
		if err := fn(ctx, state); err != nil {
			return nil, errors.Wrapf(err, "node %q", current)
		}
		next, ok := r.graph.edges[current]
		if !ok {
			return nil, errors.Errorf("pipeline: node %q has no outgoing edge", current)
		}
		current = next
	}
	return state, nil
}
