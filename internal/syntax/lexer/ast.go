package lexer

// NodeKind distinguishes fragment node shapes.
type NodeKind uint8

const (
	// NodeLeaf wraps a single token.
	NodeLeaf NodeKind = iota
	// NodeBlock is a bracket-delimited span containing child nodes.
	NodeBlock
)

// Node is one node of a row's syntax fragment: a token leaf, or a block
// opened by a bracket on this row. A block whose closing bracket lies on
// a later row has Closed == false.
type Node struct {
	Kind     NodeKind
	Token    Token // the leaf token, or the opening bracket of a block
	Close    Token // closing bracket; valid only when Closed
	Closed   bool
	Children []*Node
}

// Fragment is the per-row parse result: the top-level nodes of the row
// in source order.
type Fragment struct {
	Nodes []*Node
}

// fragmentBuilder assembles a Fragment while the lexer emits tokens.
// Blocks nest only within the row; a bracket opened on an earlier row
// contributes leaves, not blocks.
type fragmentBuilder struct {
	root Fragment
	open []*Node
}

func (b *fragmentBuilder) container() *[]*Node {
	if n := len(b.open); n > 0 {
		return &b.open[n-1].Children
	}
	return &b.root.Nodes
}

func (b *fragmentBuilder) leaf(t Token) {
	c := b.container()
	*c = append(*c, &Node{Kind: NodeLeaf, Token: t})
}

func (b *fragmentBuilder) openBlock(t Token) {
	blk := &Node{Kind: NodeBlock, Token: t}
	c := b.container()
	*c = append(*c, blk)
	b.open = append(b.open, blk)
}

// closeBlock closes the innermost row-local block. It reports false when
// the matched opener lives on an earlier row, in which case the caller
// records the closer as a leaf.
func (b *fragmentBuilder) closeBlock(t Token) bool {
	if len(b.open) == 0 {
		return false
	}
	blk := b.open[len(b.open)-1]
	b.open = b.open[:len(b.open)-1]
	blk.Close = t
	blk.Closed = true
	return true
}

func (b *fragmentBuilder) fragment() *Fragment {
	return &b.root
}
