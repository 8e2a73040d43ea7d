// Package interval implements an augmented red-black interval tree over
// half-open [start, end) byte ranges. Each tree node carries a maxEnd
// augmentation (the maximum end across its subtree) so that overlap
// queries prune whole subtrees instead of scanning.
package interval

import (
	"errors"
	"sort"
)

// ErrRangeViolation reports an interval whose end precedes its start.
var ErrRangeViolation = errors.New("range violation: interval end precedes start")

// Interval is a half-open highlight span with a token-classification
// payload. Intervals sharing the same (Start, End) key coexist at one
// tree node as a small payload set.
type Interval struct {
	Start   int64
	End     int64
	Payload uint64
}

type color bool

const (
	red   color = true
	black color = false
)

type node struct {
	start, end int64
	payloads   []uint64
	maxEnd     int64
	color      color
	left       *node
	right      *node
	parent     *node
}

// Tree is a red-black interval tree. The zero value is not usable; use
// New. A Tree is not internally synchronized.
type Tree struct {
	root *node
	nil_ *node // sentinel leaf, always black
	size int
}

// New creates an empty tree.
func New() *Tree {
	s := &node{color: black}
	s.left, s.right, s.parent = s, s, s
	return &Tree{root: s, nil_: s}
}

// Len returns the number of stored intervals, counting each payload on a
// shared key separately.
func (t *Tree) Len() int { return t.size }

// Clear removes everything.
func (t *Tree) Clear() {
	t.root = t.nil_
	t.size = 0
}

func keyLess(aStart, aEnd, bStart, bEnd int64) bool {
	if aStart != bStart {
		return aStart < bStart
	}
	return aEnd < bEnd
}

func (t *Tree) findNode(start, end int64) *node {
	x := t.root
	for x != t.nil_ {
		if start == x.start && end == x.end {
			return x
		}
		if keyLess(start, end, x.start, x.end) {
			x = x.left
		} else {
			x = x.right
		}
	}
	return nil
}

func (t *Tree) recomputeMaxEnd(x *node) {
	m := x.end
	if x.left != t.nil_ && x.left.maxEnd > m {
		m = x.left.maxEnd
	}
	if x.right != t.nil_ && x.right.maxEnd > m {
		m = x.right.maxEnd
	}
	x.maxEnd = m
}

// pullUpMaxEnd recomputes maxEnd for x and every ancestor. Must run after
// any change to a node's subtree contents.
func (t *Tree) pullUpMaxEnd(x *node) {
	for x != t.nil_ {
		t.recomputeMaxEnd(x)
		x = x.parent
	}
}

func (t *Tree) rotateLeft(x *node) {
	y := x.right
	x.right = y.left
	if y.left != t.nil_ {
		y.left.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == t.nil_:
		t.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}
	y.left = x
	x.parent = y
	t.recomputeMaxEnd(x)
	t.recomputeMaxEnd(y)
}

func (t *Tree) rotateRight(x *node) {
	y := x.left
	x.left = y.right
	if y.right != t.nil_ {
		y.right.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == t.nil_:
		t.root = y
	case x == x.parent.right:
		x.parent.right = y
	default:
		x.parent.left = y
	}
	y.right = x
	x.parent = y
	t.recomputeMaxEnd(x)
	t.recomputeMaxEnd(y)
}

// Insert adds an interval. It reports false, without modifying the tree,
// when an identical (Start, End, Payload) triple is already present.
// Intervals with End < Start are rejected with ErrRangeViolation.
func (t *Tree) Insert(iv Interval) (bool, error) {
	if iv.End < iv.Start {
		return false, ErrRangeViolation
	}

	if x := t.findNode(iv.Start, iv.End); x != nil {
		for _, p := range x.payloads {
			if p == iv.Payload {
				return false, nil
			}
		}
		x.payloads = insertPayload(x.payloads, iv.Payload)
		t.size++
		return true, nil
	}

	z := &node{
		start:    iv.Start,
		end:      iv.End,
		payloads: []uint64{iv.Payload},
		maxEnd:   iv.End,
		color:    red,
		left:     t.nil_,
		right:    t.nil_,
		parent:   t.nil_,
	}

	y := t.nil_
	x := t.root
	for x != t.nil_ {
		y = x
		if keyLess(z.start, z.end, x.start, x.end) {
			x = x.left
		} else {
			x = x.right
		}
	}
	z.parent = y
	switch {
	case y == t.nil_:
		t.root = z
	case keyLess(z.start, z.end, y.start, y.end):
		y.left = z
	default:
		y.right = z
	}
	t.pullUpMaxEnd(z.parent)
	t.insertFixup(z)
	t.size++
	return true, nil
}

func insertPayload(ps []uint64, p uint64) []uint64 {
	i := sort.Search(len(ps), func(i int) bool { return ps[i] >= p })
	ps = append(ps, 0)
	copy(ps[i+1:], ps[i:])
	ps[i] = p
	return ps
}

func (t *Tree) insertFixup(z *node) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.rotateLeft(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rotateRight(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rotateRight(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rotateLeft(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

// Delete removes one interval. It reports false when no identical
// (Start, End, Payload) triple is stored.
func (t *Tree) Delete(iv Interval) bool {
	z := t.findNode(iv.Start, iv.End)
	if z == nil {
		return false
	}
	i := -1
	for j, p := range z.payloads {
		if p == iv.Payload {
			i = j
			break
		}
	}
	if i < 0 {
		return false
	}
	if len(z.payloads) > 1 {
		z.payloads = append(z.payloads[:i], z.payloads[i+1:]...)
		t.size--
		return true
	}
	t.deleteNode(z)
	t.size--
	return true
}

func (t *Tree) transplant(u, v *node) {
	switch {
	case u.parent == t.nil_:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *Tree) minimum(x *node) *node {
	for x.left != t.nil_ {
		x = x.left
	}
	return x
}

func (t *Tree) deleteNode(z *node) {
	y := z
	yOriginal := y.color
	var x *node
	switch {
	case z.left == t.nil_:
		x = z.right
		t.transplant(z, z.right)
	case z.right == t.nil_:
		x = z.left
		t.transplant(z, z.left)
	default:
		y = t.minimum(z.right)
		yOriginal = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}
	// Splicing moved subtrees around; every ancestor of the splice point
	// needs its maxEnd recomputed before the fixup rotates anything.
	t.pullUpMaxEnd(x.parent)
	if y != z {
		t.pullUpMaxEnd(y)
	}
	if yOriginal == black {
		t.deleteFixup(x)
	}
	t.nil_.parent = t.nil_
}

func (t *Tree) deleteFixup(x *node) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rotateLeft(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rotateRight(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.rotateLeft(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rotateRight(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.rotateLeft(w)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rotateRight(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}

// QueryOverlapping returns every stored interval satisfying
// start <= qEnd && end >= qStart, sorted by (Start, End, Payload).
// The traversal uses an explicit stack so degenerate inputs cannot blow
// the goroutine stack, pruning subtrees via maxEnd.
func (t *Tree) QueryOverlapping(qStart, qEnd int64) []Interval {
	var out []Interval
	if t.root == t.nil_ {
		return out
	}
	stack := []*node{t.root}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if x.left != t.nil_ && x.left.maxEnd >= qStart {
			stack = append(stack, x.left)
		}
		if x.start <= qEnd {
			if x.end >= qStart {
				for _, p := range x.payloads {
					out = append(out, Interval{Start: x.start, End: x.end, Payload: p})
				}
			}
			if x.right != t.nil_ && x.right.maxEnd >= qStart {
				stack = append(stack, x.right)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Payload < b.Payload
	})
	return out
}

// ClosestBefore returns the intervals at the greatest key whose Start is
// strictly before pos, or nil when there is none.
func (t *Tree) ClosestBefore(pos int64) []Interval {
	var best *node
	x := t.root
	for x != t.nil_ {
		if x.start < pos {
			best = x
			x = x.right
		} else {
			x = x.left
		}
	}
	return nodeIntervals(best)
}

// ClosestAfter returns the intervals at the smallest key whose Start is
// strictly after pos, or nil when there is none.
func (t *Tree) ClosestAfter(pos int64) []Interval {
	var best *node
	x := t.root
	for x != t.nil_ {
		if x.start > pos {
			best = x
			x = x.left
		} else {
			x = x.right
		}
	}
	return nodeIntervals(best)
}

func nodeIntervals(x *node) []Interval {
	if x == nil {
		return nil
	}
	out := make([]Interval, 0, len(x.payloads))
	for _, p := range x.payloads {
		out = append(out, Interval{Start: x.start, End: x.end, Payload: p})
	}
	return out
}

// Ascend walks all intervals in key order, stopping when fn returns
// false.
func (t *Tree) Ascend(fn func(Interval) bool) {
	// Iterative in-order walk.
	var stack []*node
	x := t.root
	for x != t.nil_ || len(stack) > 0 {
		for x != t.nil_ {
			stack = append(stack, x)
			x = x.left
		}
		x = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range x.payloads {
			if !fn(Interval{Start: x.start, End: x.end, Payload: p}) {
				return
			}
		}
		x = x.right
	}
}

// ShiftAfter adds delta to the start and end of every interval whose
// Start is at or past pos. Relative key order is preserved, so the tree
// shape stays valid; maxEnd is rebuilt in one post-order pass.
func (t *Tree) ShiftAfter(pos, delta int64) {
	if delta == 0 || t.root == t.nil_ {
		return
	}
	t.shiftWalk(t.root, pos, delta)
}

func (t *Tree) shiftWalk(x *node, pos, delta int64) {
	if x == t.nil_ {
		return
	}
	if x.start >= pos || x.maxEnd >= pos {
		t.shiftWalk(x.left, pos, delta)
		t.shiftWalk(x.right, pos, delta)
		if x.start >= pos {
			x.start += delta
			x.end += delta
		}
		t.recomputeMaxEnd(x)
	}
}
