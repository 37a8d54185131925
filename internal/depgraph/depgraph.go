// Package depgraph is the directed producer -> consumer graph over cell
// keys: an edge A -> B means "B depends on A", so invalidating A schedules
// B. Grounded on the teacher's DependencyGraph (graph.go), which keeps dual
// adjacency maps and a three-state DFS for calculation ordering; this
// version generalizes both to the identifier-keyed cellstore.Key and adds
// wouldCreateCycle as a bounded reachability probe (spec.md §4.3) instead
// of running a full ordering pass per proposed edge the way the teacher's
// HasCycle does, since that would be too slow at the sheet sizes spec.md
// targets.
package depgraph

import "github.com/vogtb/sheetcore/internal/cellstore"

type node struct {
	out map[cellstore.Key]struct{} // this node produces for (dependents)
	in  map[cellstore.Key]struct{} // this node consumes from (producers)
}

func newNode() *node {
	return &node{out: make(map[cellstore.Key]struct{}), in: make(map[cellstore.Key]struct{})}
}

func (n *node) empty() bool { return len(n.out) == 0 && len(n.in) == 0 }

// Graph is the dependency graph for a single sheet.
type Graph struct {
	nodes map[cellstore.Key]*node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[cellstore.Key]*node)}
}

func (g *Graph) getOrCreate(k cellstore.Key) *node {
	n, ok := g.nodes[k]
	if !ok {
		n = newNode()
		g.nodes[k] = n
	}
	return n
}

func (g *Graph) cleanupIfEmpty(k cellstore.Key) {
	if n, ok := g.nodes[k]; ok && n.empty() {
		delete(g.nodes, k)
	}
}

// AddEdge installs a producer -> consumer edge: to depends on from.
func (g *Graph) AddEdge(from, to cellstore.Key) {
	g.getOrCreate(from).out[to] = struct{}{}
	g.getOrCreate(to).in[from] = struct{}{}
}

// RemoveEdge retracts the from -> to edge, if present.
func (g *Graph) RemoveEdge(from, to cellstore.Key) {
	if n, ok := g.nodes[from]; ok {
		delete(n.out, to)
	}
	if n, ok := g.nodes[to]; ok {
		delete(n.in, from)
	}
	g.cleanupIfEmpty(from)
	g.cleanupIfEmpty(to)
}

// RemoveAll retracts every edge touching node (both directions).
func (g *Graph) RemoveAll(k cellstore.Key) {
	n, ok := g.nodes[k]
	if !ok {
		return
	}
	for producer := range n.in {
		if pn, ok := g.nodes[producer]; ok {
			delete(pn.out, k)
			g.cleanupIfEmpty(producer)
		}
	}
	for consumer := range n.out {
		if cn, ok := g.nodes[consumer]; ok {
			delete(cn.in, k)
			g.cleanupIfEmpty(consumer)
		}
	}
	delete(g.nodes, k)
}

// ReplaceAllInbound atomically retracts every existing producer edge into
// node and installs edges from each entry of producers, with no
// observable intermediate state (spec.md §4.3). Duplicate producers are
// deduplicated.
func (g *Graph) ReplaceAllInbound(k cellstore.Key, producers []cellstore.Key) {
	if n, ok := g.nodes[k]; ok {
		for producer := range n.in {
			if pn, ok := g.nodes[producer]; ok {
				delete(pn.out, k)
				g.cleanupIfEmpty(producer)
			}
		}
		n.in = make(map[cellstore.Key]struct{})
	}
	if len(producers) == 0 {
		g.cleanupIfEmpty(k)
		return
	}
	target := g.getOrCreate(k)
	for _, producer := range producers {
		target.in[producer] = struct{}{}
		g.getOrCreate(producer).out[k] = struct{}{}
	}
}

// WouldCreateCycle reports whether adding the edge from -> to would close
// a loop, i.e. whether to can already reach from in the forward graph.
func (g *Graph) WouldCreateCycle(from, to cellstore.Key) bool {
	if from == to {
		return true
	}
	if _, ok := g.nodes[to]; !ok {
		return false
	}
	visited := map[cellstore.Key]struct{}{to: {}}
	stack := []cellstore.Key{to}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == from {
			return true
		}
		n, ok := g.nodes[cur]
		if !ok {
			continue
		}
		for next := range n.out {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	return false
}

// GetDependencies returns the direct producers of node.
func (g *Graph) GetDependencies(k cellstore.Key) []cellstore.Key {
	n, ok := g.nodes[k]
	if !ok {
		return nil
	}
	out := make([]cellstore.Key, 0, len(n.in))
	for p := range n.in {
		out = append(out, p)
	}
	return out
}

// GetDependents returns the direct consumers of node.
func (g *Graph) GetDependents(k cellstore.Key) []cellstore.Key {
	n, ok := g.nodes[k]
	if !ok {
		return nil
	}
	out := make([]cellstore.Key, 0, len(n.out))
	for c := range n.out {
		out = append(out, c)
	}
	return out
}

// AffectedFrom computes the forward transitive closure of changed over
// outgoing edges, including the input keys themselves (spec.md §4.3).
func (g *Graph) AffectedFrom(changed map[cellstore.Key]struct{}) map[cellstore.Key]struct{} {
	affected := make(map[cellstore.Key]struct{}, len(changed))
	queue := make([]cellstore.Key, 0, len(changed))
	for k := range changed {
		affected[k] = struct{}{}
		queue = append(queue, k)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n, ok := g.nodes[cur]
		if !ok {
			continue
		}
		for next := range n.out {
			if _, seen := affected[next]; seen {
				continue
			}
			affected[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return affected
}

// TopoOrder computes a post-order DFS numbering of subset restricted to
// edges whose both endpoints lie in subset (edges escaping subset are
// treated as absent, per spec.md §4.3). cycles is the set of keys
// encountered while already on the DFS stack (members of a cycle within
// subset); no ordering guarantee is made among them.
func (g *Graph) TopoOrder(subset map[cellstore.Key]struct{}) (order []cellstore.Key, cycles map[cellstore.Key]struct{}) {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[cellstore.Key]int, len(subset))
	cycles = make(map[cellstore.Key]struct{})
	order = make([]cellstore.Key, 0, len(subset))

	var visit func(k cellstore.Key)
	visit = func(k cellstore.Key) {
		switch state[k] {
		case visiting:
			cycles[k] = struct{}{}
			return
		case visited:
			return
		}
		state[k] = visiting
		if n, ok := g.nodes[k]; ok {
			for producer := range n.in {
				if _, inSubset := subset[producer]; !inSubset {
					continue
				}
				visit(producer)
			}
		}
		state[k] = visited
		order = append(order, k)
	}

	for k := range subset {
		if state[k] == unvisited {
			visit(k)
		}
	}
	return order, cycles
}

// Contains reports whether k has any node bookkeeping at all (producers or
// consumers). Formula-less, edge-less cells never appear here.
func (g *Graph) Contains(k cellstore.Key) bool {
	_, ok := g.nodes[k]
	return ok
}
