package types

import (
	set "github.com/hashicorp/go-set/v3"
)

// ConstraintGraph indexes constraints by the type variables they mention, so
// that binding one variable only re-examines the constraints actually
// touching it.
type ConstraintGraph struct {
	cs    *ConstraintSystem
	nodes map[uint64]*graphNode
}

// graphNode is the adjacency record of one equivalence class, keyed by the
// class representative.
type graphNode struct {
	// present provides O(1) membership, ordered preserves insertion order so
	// re-activation is deterministic.
	present *set.HashSet[*Constraint, uint64]
	ordered []*Constraint
	// members holds every variable id merged into this class, the
	// representative included.
	members []uint64
	// memberVars memoizes dependent-member type variables by member name.
	memberVars map[string]*TypeVar
}

func newConstraintGraph(cs *ConstraintSystem) *ConstraintGraph {
	return &ConstraintGraph{cs: cs, nodes: make(map[uint64]*graphNode)}
}

func (g *ConstraintGraph) nodeFor(v *TypeVar) *graphNode {
	rep := g.cs.GetRepresentative(v)
	node, ok := g.nodes[rep.id]
	if !ok {
		node = &graphNode{
			present: set.NewHashSet[*Constraint, uint64](4),
			members: []uint64{rep.id},
		}
		g.nodes[rep.id] = node
	}
	return node
}

func (n *graphNode) insertConstraint(c *Constraint) {
	if n.present.Contains(c) {
		return
	}
	n.present.Insert(c)
	n.ordered = append(n.ordered, c)
}

func (n *graphNode) removeConstraint(c *Constraint) {
	if !n.present.Contains(c) {
		return
	}
	n.present.Remove(c)
	for i, existing := range n.ordered {
		if existing == c {
			n.ordered = append(n.ordered[:i], n.ordered[i+1:]...)
			break
		}
	}
}

// addConstraint registers one edge per type variable the constraint mentions.
func (g *ConstraintGraph) addConstraint(c *Constraint) {
	for _, v := range c.typeVars {
		g.nodeFor(v).insertConstraint(c)
	}
	g.cs.trail.Push(graphAdd{c: c})
}

// removeConstraint drops the constraint's edges. The removal is trailed so a
// later backtrack past this point restores them.
func (g *ConstraintGraph) removeConstraint(c *Constraint) {
	for _, v := range c.typeVars {
		g.nodeFor(v).removeConstraint(c)
	}
	g.cs.trail.Push(graphRemove{c: c})
}

// gatherConstraints returns the constraints touching v's equivalence class.
func (g *ConstraintGraph) gatherConstraints(v *TypeVar) []*Constraint {
	return g.nodeFor(v).ordered
}

// mergeNodes unions b's adjacency record into a's when their classes merge.
// Only the additions are recorded; b's own node is left intact so undoing the
// merge restores both.
func (g *ConstraintGraph) mergeNodes(a, b *TypeVar) {
	nodeA := g.nodes[a.id]
	nodeB := g.nodes[b.id]
	if nodeA == nil || nodeB == nil {
		panic("merging graph nodes that were never created")
	}
	var added []*Constraint
	for _, c := range nodeB.ordered {
		if !nodeA.present.Contains(c) {
			nodeA.insertConstraint(c)
			added = append(added, c)
		}
	}
	// dependent-member memos follow the surviving representative; existing
	// entries win so both classes keep projecting to one variable
	var addedMemberVars []string
	for name, tv := range nodeB.memberVars {
		if _, ok := nodeA.memberVars[name]; ok {
			continue
		}
		if nodeA.memberVars == nil {
			nodeA.memberVars = make(map[string]*TypeVar)
		}
		nodeA.memberVars[name] = tv
		addedMemberVars = append(addedMemberVars, name)
	}
	nodeA.members = append(nodeA.members, nodeB.members...)
	g.cs.trail.Push(graphMerge{
		into:             nodeA,
		addedConstraints: added,
		addedMembers:     nodeB.members,
		addedMemberVars:  addedMemberVars,
	})
}

// bindTypeVariable is the notification hook for a new fixed binding. The
// graph does not re-simplify anything itself; the solver loop drains the
// re-activated constraints.
func (g *ConstraintGraph) bindTypeVariable(v *TypeVar, t Type) {
	g.cs.stats.Bindings++
	logger.Debug("graph: bound type variable", "var", v, "type", t, "adjacent", len(g.nodeFor(v).ordered))
}

// memberTypeVar returns the memoized dependent-member variable for
// (class of base, name), if any.
func (g *ConstraintGraph) memberTypeVar(base *TypeVar, name string) (*TypeVar, bool) {
	node := g.nodeFor(base)
	tv, ok := node.memberVars[name]
	return tv, ok
}

func (g *ConstraintGraph) setMemberTypeVar(base *TypeVar, name string, tv *TypeVar) {
	node := g.nodeFor(base)
	if node.memberVars == nil {
		node.memberVars = make(map[string]*TypeVar)
	}
	node.memberVars[name] = tv
	// memoization must not outlive the TypeMember constraint emitted with it
	g.cs.trail.Push(memberVarSet{node: node, name: name})
}

type memberVarSet struct {
	node *graphNode
	name string
}

func (e memberVarSet) undo(*ConstraintSystem) {
	delete(e.node.memberVars, e.name)
}

type graphAdd struct {
	c *Constraint
}

func (e graphAdd) undo(cs *ConstraintSystem) {
	for _, v := range e.c.typeVars {
		cs.graph.nodeFor(v).removeConstraint(e.c)
	}
}

type graphRemove struct {
	c *Constraint
}

func (e graphRemove) undo(cs *ConstraintSystem) {
	for _, v := range e.c.typeVars {
		cs.graph.nodeFor(v).insertConstraint(e.c)
	}
}
