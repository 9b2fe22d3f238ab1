package builder

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/tree/iterator"
	"github.com/sawantshivaji1997/notionsync/src/tree/node"
)

const (
	// Default nesting limit when none is configured
	DEFAULT_MAX_DEPTH = 25
)

var errTreeNotBuilt = errors.New("tree was never built")

// BlockTreeBuilder fetches the whole block tree of one page. Blocks waiting
// for their children to be fetched are kept on an explicit stack, so the
// depth of the tree never turns into call depth.
type BlockTreeBuilder struct {
	fetcher   BlockFetcher
	pageID    string
	maxDepth  int
	err       error
	rootNode  *node.Node
	nodeStack stack
}

// Get BlockTreeBuilder for the given page. A maxDepth of 0 or less selects
// DEFAULT_MAX_DEPTH.
func GetBlockTreeBuilder(fetcher BlockFetcher, pageID string,
	maxDepth int) TreeBuilder {
	if maxDepth <= 0 {
		maxDepth = DEFAULT_MAX_DEPTH
	}

	return &BlockTreeBuilder{
		fetcher:   fetcher,
		pageID:    pageID,
		maxDepth:  maxDepth,
		err:       errTreeNotBuilt,
		nodeStack: make(stack, 0),
	}
}

// Children of linked pages and databases belong to other pages and are never
// fetched as part of this page
func isExpandable(block *model.Block) bool {
	if !block.HasChildren {
		return false
	}

	switch block.Type {
	case model.BlockChildPage, model.BlockChildDatabase:
		return false
	}
	return true
}

// Create node object for given block and add it to parentNode. Blocks with
// children are pushed onto the stack unless the depth limit is reached.
func (builderObj *BlockTreeBuilder) addBlock(ctx context.Context,
	parentNode *node.Node, block *model.Block) error {
	blockNode, err := node.CreateBlockNode(block)
	if err != nil {
		return err
	}
	parentNode.AddChild(blockNode)

	if !isExpandable(block) {
		return nil
	}

	if iterator.Depth(blockNode) >= builderObj.maxDepth {
		blockNode.MarkTruncated()
		zerolog.Ctx(ctx).Debug().
			Str(logging.BlockID, block.ID).
			Int(logging.MaxDepth, builderObj.maxDepth).
			Msg(logging.MaxDepthReached)
		return nil
	}

	builderObj.nodeStack.Push(blockNode)
	return nil
}

// Query all the child blocks of the given node and add them to it
func (builderObj *BlockTreeBuilder) queryAndAddChildren(ctx context.Context,
	parentNode *node.Node) error {
	cursor := ""
	for {
		var blocks []*model.Block
		var err error
		blocks, cursor, err = builderObj.fetcher.GetBlockChildren(ctx,
			string(parentNode.GetID()), cursor)

		if err != nil {
			return errors.Wrapf(err, "fetch children of %s", parentNode.GetID())
		}

		for _, block := range blocks {
			err = builderObj.addBlock(ctx, parentNode, block)
			if err != nil {
				return err
			}
		}

		if cursor == "" {
			break
		}
	}

	return nil
}

// Takes node out of stack, query it's children and add them to tree
// This continues until stack gets empty
func (builderObj *BlockTreeBuilder) buildTreeUntilStackEmpty(
	ctx context.Context) error {
	for {
		object, err := builderObj.nodeStack.Pop()
		if err == ErrStackEmpty {
			break
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		err = builderObj.queryAndAddChildren(ctx, object)
		if err != nil {
			return err
		}
	}

	return nil
}

// Build the block tree of the page
func (builderObj *BlockTreeBuilder) BuildTree(ctx context.Context) error {
	if builderObj.rootNode != nil {
		return nil
	}

	rootNode := node.CreateRootNode(builderObj.pageID)
	builderObj.nodeStack.Push(rootNode)

	builderObj.err = builderObj.buildTreeUntilStackEmpty(ctx)
	if builderObj.err != nil {
		builderObj.nodeStack = builderObj.nodeStack[:0]
		return builderObj.err
	}

	builderObj.rootNode = rootNode
	return nil
}

// Get the root node of the tree
func (builderObj *BlockTreeBuilder) GetRootNode() (*node.Node, error) {
	return builderObj.rootNode, builderObj.err
}
