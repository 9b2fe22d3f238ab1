package converter

import (
	"fmt"
	"path"
	"strings"

	"github.com/sawantshivaji1997/notionsync/src/model"
)

var supportedTypes = map[model.BlockType]struct{}{
	model.BlockParagraph: {}, model.BlockHeading1: {}, model.BlockHeading2: {},
	model.BlockHeading3: {}, model.BlockBulletedListItem: {},
	model.BlockNumberedListItem: {}, model.BlockToDo: {}, model.BlockToggle: {},
	model.BlockQuote: {}, model.BlockCallout: {}, model.BlockDivider: {},
	model.BlockCode: {}, model.BlockEquation: {}, model.BlockImage: {},
	model.BlockVideo: {}, model.BlockAudio: {}, model.BlockFile: {},
	model.BlockPdf: {}, model.BlockBookmark: {}, model.BlockEmbed: {},
	model.BlockLinkPreview: {}, model.BlockTable: {}, model.BlockTableRow: {},
	model.BlockColumnList: {}, model.BlockColumn: {}, model.BlockSyncedBlock: {},
}

func isSupported(t model.BlockType) bool {
	_, found := supportedTypes[t]
	return found
}

// Remote language names that differ from common fence tags
var codeLanguages = map[string]string{
	"plain text":    "",
	"c++":           "cpp",
	"c#":            "csharp",
	"f#":            "fsharp",
	"shell":         "bash",
	"objective-c":   "objectivec",
	"visual basic":  "vb",
	"java/c/c++/c#": "",
	"markup":        "html",
	"docker":        "dockerfile",
	"vb.net":        "vbnet",
}

func CodeLanguage(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if mapped, found := codeLanguages[lang]; found {
		return mapped
	}
	return strings.ReplaceAll(lang, " ", "-")
}

// render turns a block and its rendered children into one chunk
func (c *converter) render(f *frame, ordinal int) chunk {
	block := f.block
	children := joinChunks(f.chunks)
	text := RenderRichText(block.RichText)

	switch block.Type {
	case model.BlockParagraph:
		return chunk{text: appendBlocks(text, children)}

	case model.BlockHeading1, model.BlockHeading2, model.BlockHeading3:
		level := strings.TrimPrefix(string(block.Type), "heading_")
		hashes := strings.Repeat("#", int(level[0]-'0'))
		heading := hashes + " " + strings.ReplaceAll(text, "\n", " ")
		return chunk{text: appendBlocks(heading, children)}

	case model.BlockBulletedListItem:
		return chunk{text: listItem("- ", text, children), list: true}

	case model.BlockNumberedListItem:
		marker := fmt.Sprintf("%d. ", ordinal)
		return chunk{text: listItem(marker, text, children), list: true, numbered: true}

	case model.BlockToDo:
		marker := "- [ ] "
		if block.Checked {
			marker = "- [x] "
		}
		return chunk{text: listItem(marker, text, children), list: true}

	case model.BlockToggle:
		summary := strings.ReplaceAll(text, "\n", " ")
		body := "<details>\n<summary>" + summary + "</summary>\n\n"
		if children != "" {
			body += children + "\n\n"
		}
		return chunk{text: body + "</details>"}

	case model.BlockQuote:
		return chunk{text: quote(appendBlocks(text, children))}

	case model.BlockCallout:
		if block.Icon != "" && !strings.Contains(block.Icon, "://") {
			text = block.Icon + " " + text
		}
		return chunk{text: quote(appendBlocks(text, children))}

	case model.BlockDivider:
		return chunk{text: "---"}

	case model.BlockCode:
		return chunk{text: codeBlock(block)}

	case model.BlockEquation:
		return chunk{text: "$$\n" + strings.TrimSpace(block.Expression) + "\n$$"}

	case model.BlockImage:
		alt := strings.ReplaceAll(model.PlainText(block.Caption), "\n", " ")
		if alt == "" {
			alt = "image"
		}
		return chunk{text: "![" + escapeMarkdown(alt, false) + "](" + linkTarget(block.URL) + ")"}

	case model.BlockFile, model.BlockPdf:
		return chunk{text: "📎 " + mediaLink(block)}

	case model.BlockVideo, model.BlockAudio, model.BlockBookmark,
		model.BlockEmbed, model.BlockLinkPreview:
		return chunk{text: mediaLink(block)}

	case model.BlockTableRow:
		return chunk{text: renderRow(block.Cells, len(block.Cells))}

	case model.BlockColumnList:
		if c.opts.Columns == ColumnSeparator {
			return chunk{text: joinColumns(f.chunks, "\n\n"+COLUMN_SEPARATOR+"\n\n")}
		}
		return chunk{text: joinColumns(f.chunks, "\n\n")}

	case model.BlockColumn, model.BlockSyncedBlock:
		return chunk{text: children}
	}

	return chunk{text: appendBlocks(text, children)}
}

func appendBlocks(text, children string) string {
	switch {
	case children == "":
		return text
	case strings.TrimSpace(text) == "":
		return children
	}
	return text + "\n\n" + children
}

func listItem(marker, text, children string) string {
	lines := strings.Split(text, "\n")
	item := marker + lines[0]
	if len(lines) > 1 {
		item += "\n" + indent(strings.Join(lines[1:], "\n"), INDENT)
	}
	if children != "" {
		item += "\n" + indent(children, INDENT)
	}
	return item
}

func joinColumns(columns []chunk, sep string) string {
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, column.text)
	}
	return strings.Join(parts, sep)
}

func codeBlock(block *model.Block) string {
	content := model.PlainText(block.RichText)
	fence := "```"
	for strings.Contains(content, fence) {
		fence += "`"
	}

	code := fence + CodeLanguage(block.Language) + "\n" + content + "\n" + fence
	if caption := RenderRichText(block.Caption); caption != "" {
		code += "\n\n*" + strings.TrimSpace(caption) + "*"
	}
	return code
}

// Link to a remote file or page, labelled by caption, name or URL
func mediaLink(block *model.Block) string {
	label := strings.TrimSpace(model.PlainText(block.Caption))
	if label == "" {
		label = block.Name
	}
	if label == "" && block.URL != "" {
		label = path.Base(strings.SplitN(block.URL, "?", 2)[0])
		if block.Type == model.BlockBookmark || block.Type == model.BlockEmbed ||
			block.Type == model.BlockLinkPreview || label == "." || label == "/" {
			label = block.URL
		}
	}
	if label == "" {
		label = string(block.Type)
	}
	if block.URL == "" {
		return escapeMarkdown(label, true)
	}
	return "[" + escapeMarkdown(label, false) + "](" + linkTarget(block.URL) + ")"
}
