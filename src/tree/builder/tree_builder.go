package builder

import (
	"context"
	"errors"

	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/tree/node"
)

// BlockFetcher returns one page of children of a block (or a page, whose ID
// doubles as the root block ID). An empty cursor in the result means there
// are no more children.
type BlockFetcher interface {
	GetBlockChildren(ctx context.Context, blockID string, cursor string) ([]*model.Block, string, error)
}

type TreeBuilder interface {
	BuildTree(context.Context) error
	GetRootNode() (*node.Node, error)
}

var ErrStackEmpty = errors.New("no more items in stack")

type stack []*node.Node

// IsEmpty: check if stack is empty
func (s *stack) IsEmpty() bool {
	return len(*s) == 0
}

// Push a new value onto the stack
func (s *stack) Push(object *node.Node) {
	*s = append(*s, object)
}

// Remove and return top element of stack. Return ErrStackEmpty if stack is
// empty.
func (s *stack) Pop() (*node.Node, error) {
	if s.IsEmpty() {
		return nil, ErrStackEmpty
	}

	index := len(*s) - 1
	object := (*s)[index]
	*s = (*s)[:index]
	return object, nil
}
