package model

import (
	"encoding/json"
)

type BlockType string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockToDo             BlockType = "to_do"
	BlockToggle           BlockType = "toggle"
	BlockQuote            BlockType = "quote"
	BlockCallout          BlockType = "callout"
	BlockDivider          BlockType = "divider"
	BlockCode             BlockType = "code"
	BlockEquation         BlockType = "equation"
	BlockImage            BlockType = "image"
	BlockVideo            BlockType = "video"
	BlockAudio            BlockType = "audio"
	BlockFile             BlockType = "file"
	BlockPdf              BlockType = "pdf"
	BlockBookmark         BlockType = "bookmark"
	BlockEmbed            BlockType = "embed"
	BlockLinkPreview      BlockType = "link_preview"
	BlockTable            BlockType = "table"
	BlockTableRow         BlockType = "table_row"
	BlockColumnList       BlockType = "column_list"
	BlockColumn           BlockType = "column"
	BlockSyncedBlock      BlockType = "synced_block"
	BlockChildDatabase    BlockType = "child_database"
	BlockChildPage        BlockType = "child_page"
	BlockLinkToPage       BlockType = "link_to_page"
	BlockTableOfContents  BlockType = "table_of_contents"
	BlockBreadcrumb       BlockType = "breadcrumb"
	BlockTemplate         BlockType = "template"
	BlockUnsupported      BlockType = "unsupported"

	// BlockUnknown is any tag this package does not know. The original tag
	// is kept in Block.RawType.
	BlockUnknown BlockType = "unknown"
)

var knownBlockTypes = map[BlockType]struct{}{
	BlockParagraph: {}, BlockHeading1: {}, BlockHeading2: {}, BlockHeading3: {},
	BlockBulletedListItem: {}, BlockNumberedListItem: {}, BlockToDo: {},
	BlockToggle: {}, BlockQuote: {}, BlockCallout: {}, BlockDivider: {},
	BlockCode: {}, BlockEquation: {}, BlockImage: {}, BlockVideo: {},
	BlockAudio: {}, BlockFile: {}, BlockPdf: {}, BlockBookmark: {},
	BlockEmbed: {}, BlockLinkPreview: {}, BlockTable: {}, BlockTableRow: {},
	BlockColumnList: {}, BlockColumn: {}, BlockSyncedBlock: {},
	BlockChildDatabase: {}, BlockChildPage: {}, BlockLinkToPage: {},
	BlockTableOfContents: {}, BlockBreadcrumb: {}, BlockTemplate: {},
	BlockUnsupported: {},
}

// ParseBlockType maps a remote type tag onto the closed set of block types.
// Tags outside the set become BlockUnknown.
func ParseBlockType(tag string) BlockType {
	t := BlockType(tag)
	if _, found := knownBlockTypes[t]; found {
		return t
	}
	return BlockUnknown
}

// Block is a single content unit of a page. Only the payload fields relevant
// to Type are populated.
type Block struct {
	ID          string
	Type        BlockType
	RawType     string
	HasChildren bool

	RichText        []RichText
	Checked         bool
	Icon            string
	Language        string
	Caption         []RichText
	URL             string
	Name            string
	Expression      string
	Title           string
	Cells           [][]RichText
	TableWidth      int
	HasColumnHeader bool

	// DecodeErr is set when the payload could not be decoded. The block is
	// still returned so the converter can decide what to do with it.
	DecodeErr error
	Payload   json.RawMessage
}

// TypeName returns the remote tag, which differs from Type for unknown blocks.
func (b *Block) TypeName() string {
	if b.RawType != "" {
		return b.RawType
	}
	return string(b.Type)
}
