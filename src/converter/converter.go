package converter

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
	"github.com/sawantshivaji1997/notionsync/src/tree/iterator"
	"github.com/sawantshivaji1997/notionsync/src/tree/node"
)

// Warning is a non fatal note about a block that was approximated or
// dropped.
type Warning struct {
	BlockID   string
	BlockType string
	Message   string
}

// Stats counts blocks by how faithfully they were rendered.
type Stats struct {
	Total        int
	Supported    int
	Approximated int
	Unsupported  int
	Malformed    int
}

type Result struct {
	Body     string
	Warnings []Warning
	Stats    Stats
}

type chunk struct {
	text     string
	list     bool
	numbered bool
}

// frame collects the rendered children of one block until the block is
// exited and rendered itself.
type frame struct {
	nodeObj   *node.Node
	block     *model.Block
	chunks    []chunk
	numberRun int
	// rendered is set for blocks fully rendered on enter
	rendered  *chunk
	dropped   bool
}

func (f *frame) add(c chunk) {
	if strings.TrimSpace(c.text) == "" {
		return
	}
	if c.numbered {
		f.numberRun++
	} else {
		f.numberRun = 0
	}
	f.chunks = append(f.chunks, c)
}

type converter struct {
	ctx    context.Context
	opts   Options
	result Result
	walker *iterator.Walker
	stack  []*frame
}

// Convert renders the block tree below root as a Markdown body. The tree is
// walked depth first in document order without recursion. The only error
// returned is a conversion error under the strict quality level.
func Convert(ctx context.Context, root *node.Node, opts Options) (Result, error) {
	c := &converter{
		ctx:    ctx,
		opts:   opts,
		walker: iterator.GetWalker(root),
		stack:  []*frame{{nodeObj: root}},
	}

	for {
		event, err := c.walker.Next()
		if err == iterator.ErrDone {
			break
		}
		if err != nil {
			return Result{}, err
		}

		if event.Type == iterator.ENTER {
			err = c.enter(event.Node)
		} else {
			c.exit(event.Node)
		}
		if err != nil {
			return Result{}, err
		}
	}

	rootFrame := c.stack[0]
	if root != nil && root.IsTruncated() {
		rootFrame.add(chunk{text: MARKER_MAX_DEPTH})
	}
	c.result.Body = joinChunks(rootFrame.chunks)
	return c.result, nil
}

func (c *converter) top() *frame {
	return c.stack[len(c.stack)-1]
}

func (c *converter) warn(block *model.Block, msg string) {
	c.result.Warnings = append(c.result.Warnings, Warning{
		BlockID:   block.ID,
		BlockType: block.TypeName(),
		Message:   msg,
	})
	zerolog.Ctx(c.ctx).Warn().
		Str(logging.BlockID, block.ID).
		Str(logging.BlockType, block.TypeName()).
		Msg(msg)
}

func (c *converter) enter(nodeObj *node.Node) error {
	block := nodeObj.GetBlock()
	f := &frame{nodeObj: nodeObj, block: block}
	c.stack = append(c.stack, f)
	c.result.Stats.Total++

	if block == nil {
		f.dropped = true
		c.walker.SkipChildren()
		return nil
	}

	if block.DecodeErr != nil {
		c.result.Stats.Malformed++
		return c.enterMalformed(f)
	}

	switch block.Type {
	case model.BlockTable:
		c.result.Stats.Supported++
		f.rendered = &chunk{text: renderTable(nodeObj)}
		c.walker.SkipChildren()
	case model.BlockColumnList:
		c.result.Stats.Approximated++
		if c.opts.Columns == ColumnWarning {
			c.warn(block, logging.ColumnLayoutSkipped)
			f.rendered = &chunk{text: MARKER_COLUMNS}
			c.walker.SkipChildren()
		}
	case model.BlockColumn, model.BlockSyncedBlock:
		c.result.Stats.Approximated++
	default:
		if !isSupported(block.Type) {
			c.result.Stats.Unsupported++
			return c.enterUnsupported(f)
		}
		c.result.Stats.Supported++
	}
	return nil
}

// Apply the unsupported policy to a block that has no rendering
func (c *converter) enterUnsupported(f *frame) error {
	block := f.block
	if c.opts.Quality == QualityStrict {
		return syncerr.Conversion(block.TypeName(), block.ID)
	}

	c.walker.SkipChildren()
	switch c.opts.Unsupported {
	case UnsupportedSkip:
		f.dropped = true
	case UnsupportedWarning:
		c.warn(block, logging.UnsupportedBlock)
		f.rendered = &chunk{text: UnsupportedMarker(block.TypeName())}
	default:
		f.rendered = &chunk{text: UnsupportedMarker(block.TypeName())}
	}
	return nil
}

// A block whose payload could not be decoded. Lenient conversion keeps
// whatever text can be salvaged from the raw payload.
func (c *converter) enterMalformed(f *frame) error {
	block := f.block
	if c.opts.Quality == QualityStrict {
		return syncerr.Conversion(block.TypeName(), block.ID)
	}

	if c.opts.Quality == QualityLenient {
		if text := model.SalvageText(block.Payload); strings.TrimSpace(text) != "" {
			c.warn(block, logging.MalformedBlock)
			f.rendered = &chunk{text: escapeMarkdown(text, true)}
			c.walker.SkipChildren()
			return nil
		}
	}

	return c.enterUnsupported(f)
}

func (c *converter) exit(nodeObj *node.Node) {
	f := c.top()
	c.stack = c.stack[:len(c.stack)-1]
	parent := c.top()

	if f.dropped {
		return
	}
	if f.rendered != nil {
		parent.add(*f.rendered)
		return
	}

	if nodeObj.IsTruncated() {
		f.add(chunk{text: MARKER_MAX_DEPTH})
	}

	ordinal := parent.numberRun + 1
	parent.add(c.render(f, ordinal))
}

// Join sibling chunks, list items stay on consecutive lines
func joinChunks(chunks []chunk) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i > 0 {
			if chunks[i-1].list && c.list {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(c.text)
	}
	return sb.String()
}

// Prefix every non empty line
func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// Prefix every line with a quote marker
func quote(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}
