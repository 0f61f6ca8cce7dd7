package chain

import (
	"fmt"
	"sort"

	"github.com/desertthunder/edbx/internal/shared"
)

const (
	// End is the next id of a chain tail.
	End int64 = 0
	// DetachSentinel is the first of the reserved values written while a row is detached.
	// Later rows in the same plan get DetachSentinel-1, DetachSentinel-2, ...
	DetachSentinel int64 = -999
)

// Node is the linking part of a row.
type Node struct {
	ID    int64 `json:"id"`
	Group int64 `json:"group"`
	Next  int64 `json:"next"`
}

// FindTail returns the tail of a group given all of its members.
//
// The tail is the first member whose Next is End, negative, or not the id of another
// member. A dangling pointer is treated as the end of the chain rather than an error.
func FindTail(nodes []Node) (Node, bool) {
	ids := make(map[int64]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	for _, n := range nodes {
		if n.Next <= End || !ids[n.Next] {
			return n, true
		}
	}
	return Node{}, false
}

// Collection is an id-indexed set of nodes from one table.
// It is not safe for concurrent use.
type Collection struct {
	nodes    map[int64]*Node
	original map[int64]Node
}

// New builds a collection from the current rows of a table.
func New(nodes []Node) *Collection {
	c := &Collection{
		nodes:    make(map[int64]*Node, len(nodes)),
		original: make(map[int64]Node, len(nodes)),
	}
	for _, n := range nodes {
		cp := n
		c.nodes[n.ID] = &cp
		c.original[n.ID] = n
	}
	return c
}

// Len returns the number of nodes.
func (c *Collection) Len() int { return len(c.nodes) }

// Get returns the node with id.
func (c *Collection) Get(id int64) (Node, bool) {
	n, ok := c.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Has reports whether id is in the collection.
func (c *Collection) Has(id int64) bool {
	_, ok := c.nodes[id]
	return ok
}

// MaxID returns the largest id, or 0 when empty.
func (c *Collection) MaxID() int64 {
	var max int64
	for id := range c.nodes {
		if id > max {
			max = id
		}
	}
	return max
}

// Groups returns every group key in ascending order.
func (c *Collection) Groups() []int64 {
	seen := make(map[int64]bool)
	for _, n := range c.nodes {
		seen[n.Group] = true
	}
	groups := make([]int64, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// Members returns the nodes of group sorted by id.
func (c *Collection) Members(group int64) []Node {
	var out []Node
	for _, n := range c.nodes {
		if n.Group == group {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tail returns the tail of group, see [FindTail].
func (c *Collection) Tail(group int64) (Node, bool) {
	return FindTail(c.Members(group))
}

// Predecessor returns the member of id's group whose Next is id.
func (c *Collection) Predecessor(id int64) (Node, bool) {
	n, ok := c.nodes[id]
	if !ok {
		return Node{}, false
	}
	for _, m := range c.Members(n.Group) {
		if m.Next == id && m.ID != id {
			return m, true
		}
	}
	return Node{}, false
}

// Order returns the ids of group in chain order.
//
// The walk starts at each head (a member no other member points at) in id order and
// stops after visiting every member once, so cycles and dangling pointers terminate.
// Members the walk cannot reach are appended in id order.
func (c *Collection) Order(group int64) []int64 {
	members := c.Members(group)
	if len(members) == 0 {
		return nil
	}

	byID := make(map[int64]Node, len(members))
	pointed := make(map[int64]bool, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	for _, m := range members {
		if _, ok := byID[m.Next]; ok && m.Next != m.ID {
			pointed[m.Next] = true
		}
	}

	order := make([]int64, 0, len(members))
	visited := make(map[int64]bool, len(members))
	walk := func(start int64) {
		for id := start; !visited[id]; {
			m, ok := byID[id]
			if !ok {
				return
			}
			visited[id] = true
			order = append(order, id)
			id = m.Next
		}
	}

	for _, m := range members {
		if !pointed[m.ID] {
			walk(m.ID)
		}
	}
	for _, m := range members {
		if !visited[m.ID] {
			walk(m.ID)
		}
	}
	return order
}

// Append inserts n at the tail of n.Group. n.Next is ignored; the new node becomes the tail.
func (c *Collection) Append(n Node) error {
	if _, exists := c.nodes[n.ID]; exists {
		return fmt.Errorf("%w: node %d", shared.ErrAlreadyExists, n.ID)
	}
	if n.ID <= 0 {
		return fmt.Errorf("%w: node id must be positive, got %d", shared.ErrInvalidArgument, n.ID)
	}

	tail, hasTail := c.Tail(n.Group)
	n.Next = End
	c.nodes[n.ID] = &n
	if hasTail {
		c.nodes[tail.ID].Next = n.ID
	}
	return nil
}

// unlink splices id out of its chain. The predecessor takes over id's successor when
// that successor is a member of the group, otherwise it becomes the tail.
func (c *Collection) unlink(id int64) {
	n := c.nodes[id]
	pred, ok := c.Predecessor(id)
	if !ok {
		return
	}
	next := End
	if succ, exists := c.nodes[n.Next]; exists && succ.Group == n.Group && succ.ID != id {
		next = succ.ID
	}
	c.nodes[pred.ID].Next = next
}

// Remove splices id out of its chain and deletes it.
func (c *Collection) Remove(id int64) error {
	if _, ok := c.nodes[id]; !ok {
		return fmt.Errorf("%w: node %d", shared.ErrNotFound, id)
	}
	c.unlink(id)
	delete(c.nodes, id)
	return nil
}

// RemoveAll deletes every id of group in one pass and returns the ids removed.
// Ids that are not members of group are ignored.
//
// Surviving predecessors are linked to the first surviving successor before anything is
// deleted, so runs of adjacent removed nodes collapse correctly.
func (c *Collection) RemoveAll(group int64, ids []int64) []int64 {
	doomed := make(map[int64]bool, len(ids))
	var removed []int64
	for _, id := range ids {
		if n, ok := c.nodes[id]; ok && n.Group == group && !doomed[id] {
			doomed[id] = true
			removed = append(removed, id)
		}
	}

	for _, id := range removed {
		succ := c.nodes[id].Next
		for steps := 0; doomed[succ] && steps <= len(removed); steps++ {
			succ = c.nodes[succ].Next
		}
		if s, ok := c.nodes[succ]; !ok || s.Group != group || doomed[succ] {
			succ = End
		}

		pred, ok := c.Predecessor(id)
		if ok && !doomed[pred.ID] {
			c.nodes[pred.ID].Next = succ
		}
	}

	for _, id := range removed {
		delete(c.nodes, id)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed
}

// Reorder relinks group to follow ids, which must name every member exactly once.
func (c *Collection) Reorder(group int64, ids []int64) error {
	members := c.Members(group)
	if len(ids) != len(members) {
		return fmt.Errorf("%w: order names %d of %d members", shared.ErrInvalidOperation, len(ids), len(members))
	}

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		n, ok := c.nodes[id]
		if !ok || n.Group != group {
			return fmt.Errorf("%w: %d is not a member of %d", shared.ErrInvalidOperation, id, group)
		}
		if seen[id] {
			return fmt.Errorf("%w: %d appears more than once", shared.ErrInvalidOperation, id)
		}
		seen[id] = true
	}

	for i, id := range ids {
		next := End
		if i < len(ids)-1 {
			next = ids[i+1]
		}
		c.nodes[id].Next = next
	}
	return nil
}

// MoveTo splices id out of its chain and appends it to the tail of group.
// Moving a node to the group it already belongs to changes nothing.
func (c *Collection) MoveTo(id, group int64) error {
	n, ok := c.nodes[id]
	if !ok {
		return fmt.Errorf("%w: node %d", shared.ErrNotFound, id)
	}
	if n.Group == group {
		return nil
	}

	c.unlink(id)
	tail, hasTail := c.Tail(group)
	n.Group = group
	n.Next = End
	if hasTail {
		c.nodes[tail.ID].Next = id
	}
	return nil
}

// IsDescendant reports whether id lies in the subtree below ancestor, for collections
// whose group key is the parent node's id.
func (c *Collection) IsDescendant(id, ancestor int64) bool {
	children := make(map[int64][]int64)
	for _, n := range c.nodes {
		children[n.Group] = append(children[n.Group], n.ID)
	}

	visited := map[int64]bool{ancestor: true}
	queue := append([]int64(nil), children[ancestor]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == id {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		queue = append(queue, children[cur]...)
	}
	return false
}

// Dissolve deletes the tree node id and hands its children to its parent.
//
// The children keep their relative order and take the removed node's place in the
// parent's chain: its predecessor points at the first child and the last child points
// at its former successor.
func (c *Collection) Dissolve(id int64) error {
	n, ok := c.nodes[id]
	if !ok {
		return fmt.Errorf("%w: node %d", shared.ErrNotFound, id)
	}

	children := c.Order(id)
	if len(children) == 0 {
		return c.Remove(id)
	}

	next := End
	if succ, exists := c.nodes[n.Next]; exists && succ.Group == n.Group && succ.ID != id {
		next = succ.ID
	}
	pred, hasPred := c.Predecessor(id)

	for i, child := range children {
		cn := c.nodes[child]
		cn.Group = n.Group
		if i < len(children)-1 {
			cn.Next = children[i+1]
		} else {
			cn.Next = next
		}
	}
	if hasPred {
		c.nodes[pred.ID].Next = children[0]
	}
	delete(c.nodes, id)
	return nil
}
