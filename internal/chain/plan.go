package chain

import (
	"context"
	"fmt"
	"sort"
)

// Writer persists the steps of a [Plan] for one table.
type Writer interface {
	// Detach moves an existing row out of every uniqueness-constrained position.
	Detach(ctx context.Context, id, sentinel int64) error
	// Delete removes a row.
	Delete(ctx context.Context, id int64) error
	// Insert creates a row already carrying its final links.
	Insert(ctx context.Context, n Node) error
	// Link writes the final group and next of a detached row.
	Link(ctx context.Context, n Node) error
}

// Plan is the difference between a collection's loaded and current state.
type Plan struct {
	Detach []int64
	Delete []int64
	Insert []Node
	Link   []Node
}

// Plan computes the writes that turn the loaded rows into the current ones.
// Ids within each step are in ascending order.
func (c *Collection) Plan() Plan {
	var p Plan
	for id, orig := range c.original {
		cur, ok := c.nodes[id]
		switch {
		case !ok:
			p.Delete = append(p.Delete, id)
		case cur.Group != orig.Group || cur.Next != orig.Next:
			p.Detach = append(p.Detach, id)
			p.Link = append(p.Link, *cur)
		}
	}
	for id, cur := range c.nodes {
		if _, ok := c.original[id]; !ok {
			p.Insert = append(p.Insert, *cur)
		}
	}

	sort.Slice(p.Detach, func(i, j int) bool { return p.Detach[i] < p.Detach[j] })
	sort.Slice(p.Delete, func(i, j int) bool { return p.Delete[i] < p.Delete[j] })
	sort.Slice(p.Insert, func(i, j int) bool { return p.Insert[i].ID < p.Insert[j].ID })
	sort.Slice(p.Link, func(i, j int) bool { return p.Link[i].ID < p.Link[j].ID })
	return p
}

// Empty reports whether the plan has no writes.
func (p Plan) Empty() bool {
	return len(p.Detach) == 0 && len(p.Delete) == 0 && len(p.Insert) == 0 && len(p.Link) == 0
}

// Writes returns the number of statements Apply issues.
func (p Plan) Writes() int {
	return len(p.Detach) + len(p.Delete) + len(p.Insert) + len(p.Link)
}

// Apply issues the plan through w: detach, delete, insert, then link.
//
// Detached rows get distinct sentinels starting at [DetachSentinel] and counting down.
// Apply stops at the first error; the caller's transaction is expected to roll back.
func (p Plan) Apply(ctx context.Context, w Writer) error {
	for i, id := range p.Detach {
		if err := w.Detach(ctx, id, DetachSentinel-int64(i)); err != nil {
			return fmt.Errorf("failed to detach %d: %w", id, err)
		}
	}
	for _, id := range p.Delete {
		if err := w.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete %d: %w", id, err)
		}
	}
	for _, n := range p.Insert {
		if err := w.Insert(ctx, n); err != nil {
			return fmt.Errorf("failed to insert %d: %w", n.ID, err)
		}
	}
	for _, n := range p.Link {
		if err := w.Link(ctx, n); err != nil {
			return fmt.Errorf("failed to link %d: %w", n.ID, err)
		}
	}
	return nil
}
