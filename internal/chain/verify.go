package chain

import (
	"fmt"
	"sort"
)

// Fault classifies an integrity problem.
type Fault string

const (
	FaultDangling    Fault = "dangling"    // next points outside the group
	FaultSharedNext  Fault = "shared-next" // two members point at the same successor
	FaultTailCount   Fault = "tail-count"  // the group does not have exactly one tail
	FaultCycle       Fault = "cycle"       // following next revisits a member
	FaultUnreachable Fault = "unreachable" // the member is not on the chain from the head
	FaultHeadCount   Fault = "head-count"  // the group does not have exactly one head
	FaultOrphan      Fault = "orphan"      // the parent node does not exist
	FaultAncestry    Fault = "ancestry"    // the node is its own ancestor
)

// Problem is one integrity violation found by [Collection.Verify].
type Problem struct {
	Group  int64  `json:"group"`
	ID     int64  `json:"id"`
	Fault  Fault  `json:"fault"`
	Detail string `json:"detail"`
}

func (p Problem) String() string {
	return fmt.Sprintf("group %d, node %d: %s (%s)", p.Group, p.ID, p.Fault, p.Detail)
}

// Verify checks every group and reports each problem found. It never modifies the collection.
func (c *Collection) Verify() []Problem {
	var problems []Problem
	for _, g := range c.Groups() {
		problems = append(problems, c.VerifyGroup(g)...)
	}
	return problems
}

// VerifyGroup checks that the members of group form exactly one acyclic chain ending at [End].
func (c *Collection) VerifyGroup(group int64) []Problem {
	members := c.Members(group)
	if len(members) == 0 {
		return nil
	}

	var problems []Problem
	report := func(id int64, f Fault, format string, args ...any) {
		problems = append(problems, Problem{Group: group, ID: id, Fault: f, Detail: fmt.Sprintf(format, args...)})
	}

	byID := make(map[int64]Node, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	pointers := make(map[int64]int64, len(members))
	var heads, tails []int64
	for _, m := range members {
		switch {
		case m.Next == End:
			tails = append(tails, m.ID)
		case m.Next == m.ID:
			report(m.ID, FaultCycle, "points at itself")
		default:
			if _, ok := byID[m.Next]; !ok {
				report(m.ID, FaultDangling, "next %d is not a member", m.Next)
			}
		}
		if m.Next != End {
			if prev, dup := pointers[m.Next]; dup {
				report(m.ID, FaultSharedNext, "shares next %d with %d", m.Next, prev)
			} else {
				pointers[m.Next] = m.ID
			}
		}
	}
	for _, m := range members {
		if _, pointed := pointers[m.ID]; !pointed {
			heads = append(heads, m.ID)
		}
	}

	if len(tails) != 1 {
		report(0, FaultTailCount, "%d tails %v", len(tails), tails)
	}
	if len(heads) != 1 {
		report(0, FaultHeadCount, "%d heads %v", len(heads), heads)
	}
	if len(heads) == 0 {
		return problems
	}

	visited := make(map[int64]bool, len(members))
	for id := heads[0]; ; {
		m, ok := byID[id]
		if !ok {
			break
		}
		if visited[id] {
			report(id, FaultCycle, "revisited while walking from head %d", heads[0])
			break
		}
		visited[id] = true
		id = m.Next
	}
	for _, m := range members {
		if !visited[m.ID] {
			report(m.ID, FaultUnreachable, "not reachable from head %d", heads[0])
		}
	}
	return problems
}

// VerifyTree checks the parent links of a collection whose group key is the parent node's
// id, with root the group of top-level nodes. Each orphan group and each node that is its
// own ancestor is reported once.
func (c *Collection) VerifyTree(root int64) []Problem {
	var problems []Problem
	for _, g := range c.Groups() {
		if g != root && !c.Has(g) {
			problems = append(problems, Problem{Group: g, Fault: FaultOrphan, Detail: fmt.Sprintf("parent %d does not exist", g)})
		}
	}

	ids := make([]int64, 0, len(c.nodes))
	for id := range c.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		seen := map[int64]bool{id: true}
		for cur := c.nodes[id].Group; cur != root; {
			if seen[cur] {
				if cur == id {
					problems = append(problems, Problem{Group: c.nodes[id].Group, ID: id, Fault: FaultAncestry, Detail: "parent links loop back to this node"})
				}
				break
			}
			seen[cur] = true
			parent, ok := c.nodes[cur]
			if !ok {
				break
			}
			cur = parent.Group
		}
	}
	return problems
}
