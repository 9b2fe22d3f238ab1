package iterator

import "github.com/sawantshivaji1997/notionsync/src/tree/node"

type EventType int

const (
	ENTER EventType = iota + 1
	EXIT
)

// Event is emitted twice per node: once before its children are visited and
// once after.
type Event struct {
	Type  EventType
	Node  *node.Node
	Depth int
}

type frameState int

const (
	frameNew frameState = iota
	frameEntered
	frameExpanded
)

type frame struct {
	nodeObj *node.Node
	depth   int
	state   frameState
	skip    bool
}

// Walker does a depth first walk of the subtree below a node in document
// order, using an explicit stack instead of recursion. The node passed to
// GetWalker is not reported itself, its children are at depth 0.
type Walker struct {
	stack []*frame
	last  *frame
}

func GetWalker(nodeObj *node.Node) *Walker {
	walker := &Walker{}
	if nodeObj != nil {
		walker.pushChildren(nodeObj, 0)
	}
	return walker
}

// Push children in reverse so the first child is on top
func (walker *Walker) pushChildren(nodeObj *node.Node, depth int) {
	children := []*node.Node{}
	iter := GetChildIterator(nodeObj)
	for {
		child, err := iter.Next()
		if err == ErrDone {
			break
		}
		children = append(children, child)
	}

	for i := len(children) - 1; i >= 0; i-- {
		walker.stack = append(walker.stack, &frame{
			nodeObj: children[i],
			depth:   depth,
		})
	}
}

// SkipChildren stops the walker from descending into the node of the most
// recent ENTER event. Its EXIT event is still emitted.
func (walker *Walker) SkipChildren() {
	if walker.last != nil && walker.last.state == frameEntered {
		walker.last.skip = true
	}
}

func (walker *Walker) Next() (Event, error) {
	for len(walker.stack) > 0 {
		top := walker.stack[len(walker.stack)-1]

		switch top.state {
		case frameNew:
			top.state = frameEntered
			walker.last = top
			return Event{Type: ENTER, Node: top.nodeObj, Depth: top.depth}, nil
		case frameEntered:
			top.state = frameExpanded
			if !top.skip {
				walker.pushChildren(top.nodeObj, top.depth+1)
			}
		case frameExpanded:
			walker.stack = walker.stack[:len(walker.stack)-1]
			walker.last = nil
			return Event{Type: EXIT, Node: top.nodeObj, Depth: top.depth}, nil
		}
	}

	return Event{}, ErrDone
}
