package node

import (
	"errors"

	"github.com/google/uuid"
	"github.com/sawantshivaji1997/notionsync/src/model"
)

type NodeID string
type NodeType int

const (
	UNKNOWN NodeType = 0
	ROOT             = 1
	BLOCK            = 2
)

var errNilBlock = errors.New("cannot create node for nil block")

type Node struct {
	id       NodeID
	nodeType NodeType
	block    *model.Block

	// truncated is set when the block has children that were not fetched
	// because the depth limit was reached
	truncated bool

	// Using N-ary tree implementation
	// https://www.interviewbit.com/blog/n-ary-tree/
	parent  *Node
	sibling *Node
	child   *Node
}

// Create block node
func CreateBlockNode(block *model.Block) (*Node, error) {
	if block == nil {
		return nil, errNilBlock
	}

	return &Node{
		id:       NodeID(block.ID),
		nodeType: BLOCK,
		block:    block,
	}, nil
}

// Special node which will act as a root node for a page's block tree.
// Root node carries the page ID, or Nil UUID i.e.
// 00000000-0000-0000-0000-000000000000 when none is given
func CreateRootNode(pageID string) *Node {
	if pageID == "" {
		pageID = uuid.Nil.String()
	}

	return &Node{
		id:       NodeID(pageID),
		nodeType: ROOT,
	}
}

// Various getter function for getting various properties of Node object
func (nodeObj *Node) GetID() NodeID {
	return nodeObj.id
}

func (nodeObj *Node) GetNodeType() NodeType {
	return nodeObj.nodeType
}

func (nodeObj *Node) GetBlock() *model.Block {
	return nodeObj.block
}

func (nodeObj *Node) HasChildNode() bool {
	return nodeObj.child != nil
}

func (nodeObj *Node) HasSibling() bool {
	return nodeObj.sibling != nil
}

func (nodeObj *Node) GetChildNode() *Node {
	return nodeObj.child
}

func (nodeObj *Node) GetSiblingNode() *Node {
	return nodeObj.sibling
}

func (nodeObj *Node) GetParentNode() *Node {
	return nodeObj.parent
}

// Mark the node as having unfetched children
func (nodeObj *Node) MarkTruncated() {
	nodeObj.truncated = true
}

func (nodeObj *Node) IsTruncated() bool {
	return nodeObj.truncated
}

// Adding a child to current node. Children keep the order in which they were
// added.
func (nodeObj *Node) AddChild(childNode *Node) {
	childNode.parent = nodeObj

	if nodeObj.child == nil {
		nodeObj.child = childNode
	} else {
		tempNode := nodeObj.child

		for {
			if tempNode.sibling != nil {
				tempNode = tempNode.sibling
			} else {
				break
			}
		}

		tempNode.sibling = childNode
	}
}
