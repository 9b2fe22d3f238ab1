package iterator

import "github.com/sawantshivaji1997/notionsync/src/tree/node"

// ParentIterator walks from a node up to the root, starting with the node
// itself
type ParentIterator struct {
	currentNode *node.Node
}

func GetParentIterator(nodeObj *node.Node) Iterator {
	return &ParentIterator{
		currentNode: nodeObj,
	}
}

func (iter *ParentIterator) Next() (*node.Node, error) {
	if iter.currentNode == nil {
		return nil, ErrDone
	}

	temp := iter.currentNode
	iter.currentNode = iter.currentNode.GetParentNode()
	return temp, nil
}

// Depth returns the number of block ancestors of nodeObj including itself.
// Top level blocks have depth 1, the root has depth 0.
func Depth(nodeObj *node.Node) int {
	depth := 0
	iter := GetParentIterator(nodeObj)
	for {
		current, err := iter.Next()
		if err == ErrDone {
			break
		}
		if current.GetNodeType() == node.BLOCK {
			depth++
		}
	}
	return depth
}
