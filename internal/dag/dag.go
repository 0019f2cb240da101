// SPDX-License-Identifier: MPL-2.0

// Package dag orders publish plug-ins. Each node carries an order weight;
// edges add explicit "runs after" constraints on top of the weights.
package dag

import (
	"container/heap"
	"strings"
)

// CycleError lists the nodes that could not be ordered because they
// depend on each other, in insertion order.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return "plug-in order cycle: " + strings.Join(e.Cycle, ", ")
}

type node struct {
	name   string
	weight float64
	seq    int
	next   []*node
}

// Graph is a weighted directed graph. The zero value is not usable; call
// New.
type Graph struct {
	byName map[string]*node
	nodes  []*node
}

func New() *Graph {
	return &Graph{byName: make(map[string]*node)}
}

// Add inserts name with an order weight. Adding a known name only changes
// its weight.
func (g *Graph) Add(name string, weight float64) {
	g.get(name).weight = weight
}

// Require makes first run before then. Unknown names are added with
// weight 0.
func (g *Graph) Require(first, then string) {
	a := g.get(first)
	a.next = append(a.next, g.get(then))
}

func (g *Graph) Len() int { return len(g.nodes) }

func (g *Graph) get(name string) *node {
	if n, ok := g.byName[name]; ok {
		return n
	}
	n := &node{name: name, seq: len(g.nodes)}
	g.byName[name] = n
	g.nodes = append(g.nodes, n)
	return n
}

// Order returns every node such that each Require constraint holds. Among
// the nodes free to run, the lowest weight goes first and ties keep
// insertion order.
func (g *Graph) Order() ([]string, error) {
	pending := make(map[*node]int, len(g.nodes))
	for _, n := range g.nodes {
		for _, m := range n.next {
			pending[m]++
		}
	}

	var q readyQueue
	for _, n := range g.nodes {
		if pending[n] == 0 {
			q = append(q, n)
		}
	}
	heap.Init(&q)

	out := make([]string, 0, len(g.nodes))
	for q.Len() > 0 {
		n := heap.Pop(&q).(*node)
		out = append(out, n.name)
		for _, m := range n.next {
			if pending[m]--; pending[m] == 0 {
				heap.Push(&q, m)
			}
		}
	}

	if len(out) < len(g.nodes) {
		cerr := &CycleError{}
		for _, n := range g.nodes {
			if pending[n] > 0 {
				cerr.Cycle = append(cerr.Cycle, n.name)
			}
		}
		return nil, cerr
	}
	return out, nil
}

type readyQueue []*node

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight < q[j].weight
	}
	return q[i].seq < q[j].seq
}

func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) { *q = append(*q, x.(*node)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}
