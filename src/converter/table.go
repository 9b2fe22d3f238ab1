package converter

import (
	"strings"

	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/tree/iterator"
	"github.com/sawantshivaji1997/notionsync/src/tree/node"
)

// renderTable renders the table_row children of a table node as a pipe
// table of the table's width, or of the first row's when the width is
// unset. Without a column header the header row is left empty, Markdown has
// no headerless tables.
func renderTable(tableNode *node.Node) string {
	rows := [][][]model.RichText{}

	iter := iterator.GetChildIterator(tableNode)
	for {
		child, err := iter.Next()
		if err == iterator.ErrDone {
			break
		}
		block := child.GetBlock()
		if block == nil || block.Type != model.BlockTableRow || block.DecodeErr != nil {
			continue
		}
		rows = append(rows, block.Cells)
	}

	if len(rows) == 0 {
		return ""
	}

	width := len(rows[0])
	hasHeader := true
	if table := tableNode.GetBlock(); table != nil {
		if table.TableWidth > 0 {
			width = table.TableWidth
		}
		hasHeader = table.HasColumnHeader
	}
	if width == 0 {
		return ""
	}

	lines := make([]string, 0, len(rows)+2)
	if !hasHeader {
		lines = append(lines, renderRow(nil, width), separatorRow(width))
	}
	for i, cells := range rows {
		lines = append(lines, renderRow(cells, width))
		if i == 0 && hasHeader {
			lines = append(lines, separatorRow(width))
		}
	}
	return strings.Join(lines, "\n")
}

// renderRow pads or cuts cells to width
func renderRow(cells [][]model.RichText, width int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		text := ""
		if i < len(cells) {
			text = strings.TrimSpace(escapeCell(RenderRichText(cells[i])))
		}
		sb.WriteString(" " + text + " |")
	}
	return sb.String()
}

func separatorRow(width int) string {
	return "|" + strings.Repeat(" --- |", width)
}
