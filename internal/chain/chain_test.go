package chain

import (
	"errors"
	"reflect"
	"testing"

	"github.com/desertthunder/edbx/internal/shared"
)

// linked builds a valid chain of ids under group.
func linked(group int64, ids ...int64) []Node {
	nodes := make([]Node, len(ids))
	for i, id := range ids {
		next := End
		if i < len(ids)-1 {
			next = ids[i+1]
		}
		nodes[i] = Node{ID: id, Group: group, Next: next}
	}
	return nodes
}

func join(groups ...[]Node) []Node {
	var out []Node
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func assertOrder(t *testing.T, c *Collection, group int64, want ...int64) {
	t.Helper()
	got := c.Order(group)
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order of group %d = %v, want %v", group, got, want)
	}
	if problems := c.VerifyGroup(group); len(problems) > 0 {
		t.Errorf("group %d has integrity problems: %v", group, problems)
	}
}

func TestFindTail(t *testing.T) {
	tc := []struct {
		name   string
		nodes  []Node
		want   int64
		wantOK bool
	}{
		{name: "valid chain", nodes: linked(0, 1, 2, 3), want: 3, wantOK: true},
		{name: "single node", nodes: linked(0, 7), want: 7, wantOK: true},
		{name: "empty group", nodes: nil, wantOK: false},
		{
			name:   "dangling pointer counts as end",
			nodes:  []Node{{ID: 1, Next: 2}, {ID: 2, Next: 99}, {ID: 3, Next: 1}},
			want:   2,
			wantOK: true,
		},
		{
			name:   "leftover sentinel counts as end",
			nodes:  []Node{{ID: 4, Next: 5}, {ID: 5, Next: DetachSentinel}},
			want:   5,
			wantOK: true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindTail(tt.nodes)
			if ok != tt.wantOK {
				t.Fatalf("FindTail() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.ID != tt.want {
				t.Errorf("FindTail() = %d, want %d", got.ID, tt.want)
			}
		})
	}

	t.Run("idempotent on a valid chain", func(t *testing.T) {
		nodes := linked(0, 5, 3, 9, 1)
		first, _ := FindTail(nodes)
		second, _ := FindTail(nodes)
		if first != second || first.Next != End || first.ID != 1 {
			t.Errorf("expected stable tail 1, got %v then %v", first, second)
		}
	})
}

func TestCollection(t *testing.T) {
	t.Run("Order follows next pointers", func(t *testing.T) {
		c := New(linked(0, 3, 1, 2))
		assertOrder(t, c, 0, 3, 1, 2)
	})

	t.Run("Order terminates on a cycle", func(t *testing.T) {
		c := New([]Node{{ID: 1, Next: 2}, {ID: 2, Next: 3}, {ID: 3, Next: 1}})
		if got := c.Order(0); len(got) != 3 {
			t.Errorf("expected every member once, got %v", got)
		}
	})

	t.Run("Append", func(t *testing.T) {
		c := New(linked(0, 1, 2))
		if err := c.Append(Node{ID: 3}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		assertOrder(t, c, 0, 1, 2, 3)

		if err := c.Append(Node{ID: 4, Group: 3, Next: 42}); err != nil {
			t.Fatalf("Append to empty group failed: %v", err)
		}
		if n, _ := c.Get(4); n.Next != End {
			t.Errorf("appended node should be the tail, got next %d", n.Next)
		}

		if err := c.Append(Node{ID: 2}); !errors.Is(err, shared.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		tc := []struct {
			name   string
			remove int64
			want   []int64
		}{
			{name: "head", remove: 1, want: []int64{2, 3, 4}},
			{name: "middle", remove: 3, want: []int64{1, 2, 4}},
			{name: "tail", remove: 4, want: []int64{1, 2, 3}},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				c := New(linked(0, 1, 2, 3, 4))
				if err := c.Remove(tt.remove); err != nil {
					t.Fatalf("Remove failed: %v", err)
				}
				assertOrder(t, c, 0, tt.want...)
			})
		}

		c := New(linked(0, 1))
		if err := c.Remove(9); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Remove with dangling successor makes predecessor the tail", func(t *testing.T) {
		c := New([]Node{{ID: 1, Next: 2}, {ID: 2, Next: 77}})
		if err := c.Remove(2); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if n, _ := c.Get(1); n.Next != End {
			t.Errorf("expected predecessor to become tail, got next %d", n.Next)
		}
	})

	t.Run("RemoveAll", func(t *testing.T) {
		const A, B, C, D = 1, 2, 3, 4
		tc := []struct {
			name   string
			remove []int64
			want   []int64
		}{
			{name: "contiguous run", remove: []int64{B, C}, want: []int64{A, D}},
			{name: "contiguous run reversed", remove: []int64{C, B}, want: []int64{A, D}},
			{name: "head and tail", remove: []int64{A, D}, want: []int64{B, C}},
			{name: "alternating", remove: []int64{A, C}, want: []int64{B, D}},
			{name: "tail run", remove: []int64{C, D}, want: []int64{A, B}},
			{name: "everything", remove: []int64{D, B, A, C}, want: nil},
			{name: "duplicates and strangers", remove: []int64{B, B, 99}, want: []int64{A, C, D}},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				c := New(join(linked(1, A, B, C, D), linked(2, 10, 11)))
				c.RemoveAll(1, tt.remove)
				assertOrder(t, c, 1, tt.want...)
				assertOrder(t, c, 2, 10, 11)
			})
		}

		c := New(join(linked(1, A, B), linked(2, 10, 11)))
		removed := c.RemoveAll(1, []int64{B, 10})
		if !reflect.DeepEqual(removed, []int64{B}) {
			t.Errorf("expected only members of the group to be removed, got %v", removed)
		}
	})

	t.Run("Reorder", func(t *testing.T) {
		c := New(linked(0, 1, 2, 3))
		if err := c.Reorder(0, []int64{3, 1, 2}); err != nil {
			t.Fatalf("Reorder failed: %v", err)
		}
		assertOrder(t, c, 0, 3, 1, 2)
		if tail, _ := c.Tail(0); tail.ID != 2 {
			t.Errorf("expected tail 2, got %d", tail.ID)
		}

		bad := [][]int64{
			{3, 1},
			{3, 1, 1},
			{3, 1, 2, 4},
			{3, 1, 9},
		}
		for _, order := range bad {
			if err := c.Reorder(0, order); !errors.Is(err, shared.ErrInvalidOperation) {
				t.Errorf("Reorder(%v) expected ErrInvalidOperation, got %v", order, err)
			}
		}
		assertOrder(t, c, 0, 3, 1, 2)
	})

	t.Run("MoveTo", func(t *testing.T) {
		c := New(join(linked(0, 1, 2, 3), linked(1, 4, 5)))
		if err := c.MoveTo(2, 1); err != nil {
			t.Fatalf("MoveTo failed: %v", err)
		}
		assertOrder(t, c, 0, 1, 3)
		assertOrder(t, c, 1, 4, 5, 2)

		if err := c.MoveTo(2, 1); err != nil {
			t.Errorf("moving within the same group should be a no-op, got %v", err)
		}
		assertOrder(t, c, 1, 4, 5, 2)

		if err := c.MoveTo(42, 0); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("IsDescendant", func(t *testing.T) {
		// 1 ─ 2 ─ 4
		//   └ 3
		c := New(join(linked(0, 1), linked(1, 2, 3), linked(2, 4)))
		tc := []struct {
			id, ancestor int64
			want         bool
		}{
			{id: 4, ancestor: 1, want: true},
			{id: 2, ancestor: 1, want: true},
			{id: 1, ancestor: 4, want: false},
			{id: 3, ancestor: 2, want: false},
			{id: 1, ancestor: 1, want: false},
		}
		for _, tt := range tc {
			if got := c.IsDescendant(tt.id, tt.ancestor); got != tt.want {
				t.Errorf("IsDescendant(%d, %d) = %v, want %v", tt.id, tt.ancestor, got, tt.want)
			}
		}
	})

	t.Run("Dissolve hands children to the parent in order", func(t *testing.T) {
		c := New(join(linked(0, 1, 2, 3), linked(2, 20, 21, 22)))
		if err := c.Dissolve(2); err != nil {
			t.Fatalf("Dissolve failed: %v", err)
		}
		assertOrder(t, c, 0, 1, 20, 21, 22, 3)
		if c.Has(2) {
			t.Error("dissolved node should be gone")
		}
	})

	t.Run("Dissolve head and tail", func(t *testing.T) {
		c := New(join(linked(0, 1, 2), linked(1, 10, 11), linked(2, 12)))
		if err := c.Dissolve(1); err != nil {
			t.Fatalf("Dissolve failed: %v", err)
		}
		assertOrder(t, c, 0, 10, 11, 2)
		if err := c.Dissolve(2); err != nil {
			t.Fatalf("Dissolve failed: %v", err)
		}
		assertOrder(t, c, 0, 10, 11, 12)
	})

	t.Run("Dissolve leaf", func(t *testing.T) {
		c := New(linked(0, 1, 2, 3))
		if err := c.Dissolve(2); err != nil {
			t.Fatalf("Dissolve failed: %v", err)
		}
		assertOrder(t, c, 0, 1, 3)
		if err := c.Dissolve(2); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestVerify(t *testing.T) {
	tc := []struct {
		name  string
		nodes []Node
		want  []Fault
	}{
		{name: "valid", nodes: join(linked(0, 1, 2), linked(1, 3)), want: nil},
		{name: "dangling", nodes: []Node{{ID: 1, Next: 9}}, want: []Fault{FaultDangling, FaultTailCount}},
		{
			name:  "two chains",
			nodes: []Node{{ID: 1, Next: 0}, {ID: 2, Next: 0}},
			want:  []Fault{FaultTailCount, FaultHeadCount, FaultUnreachable},
		},
		{
			name:  "shared next",
			nodes: []Node{{ID: 1, Next: 3}, {ID: 2, Next: 3}, {ID: 3, Next: 0}},
			want:  []Fault{FaultSharedNext, FaultHeadCount, FaultUnreachable},
		},
		{
			name:  "cycle",
			nodes: []Node{{ID: 1, Next: 2}, {ID: 2, Next: 1}},
			want:  []Fault{FaultTailCount, FaultHeadCount},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var got []Fault
			for _, p := range New(tt.nodes).Verify() {
				got = append(got, p.Fault)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Verify() faults = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyTree(t *testing.T) {
	t.Run("well formed tree", func(t *testing.T) {
		c := New(join(linked(0, 1, 2), linked(1, 3, 4), linked(3, 5)))
		if problems := c.VerifyTree(0); len(problems) != 0 {
			t.Errorf("expected no problems, got %v", problems)
		}
	})

	t.Run("orphan group", func(t *testing.T) {
		c := New(join(linked(0, 1), linked(42, 2, 3)))
		problems := c.VerifyTree(0)
		if len(problems) != 1 || problems[0].Fault != FaultOrphan || problems[0].Group != 42 {
			t.Errorf("expected one orphan problem for group 42, got %v", problems)
		}
	})

	t.Run("ancestry loop", func(t *testing.T) {
		c := New([]Node{{ID: 1, Group: 2}, {ID: 2, Group: 1}, {ID: 3, Group: 0}})
		problems := c.VerifyTree(0)
		if len(problems) != 2 {
			t.Fatalf("expected both loop members reported, got %v", problems)
		}
		for _, p := range problems {
			if p.Fault != FaultAncestry {
				t.Errorf("expected ancestry fault, got %v", p)
			}
		}
	})
}
