package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrMissingPayload = errors.New("block payload missing")

type pageEnvelope struct {
	ID             string                     `json:"id"`
	CreatedTime    time.Time                  `json:"created_time"`
	LastEditedTime time.Time                  `json:"last_edited_time"`
	Archived       bool                       `json:"archived"`
	URL            string                     `json:"url"`
	Properties     map[string]json.RawMessage `json:"properties"`
}

type propertyHead struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// DecodePage builds a Page from the JSON form of a remote page object.
// Properties come out sorted by name.
func DecodePage(data []byte) (Page, error) {
	env := pageEnvelope{}
	if err := json.Unmarshal(data, &env); err != nil {
		return Page{}, fmt.Errorf("decode page: %w", err)
	}
	if env.ID == "" {
		return Page{}, errors.New("decode page: missing id")
	}

	page := Page{
		ID:             env.ID,
		URL:            env.URL,
		Archived:       env.Archived,
		CreatedTime:    env.CreatedTime,
		LastEditedTime: env.LastEditedTime,
	}

	names := make([]string, 0, len(env.Properties))
	for name := range env.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := env.Properties[name]
		head := propertyHead{}
		if err := json.Unmarshal(raw, &head); err != nil {
			return Page{}, fmt.Errorf("decode property %q: %w", name, err)
		}

		prop := Property{
			Name: name,
			ID:   head.ID,
			Type: ParsePropertyType(head.Type),
			Raw:  raw,
		}
		if prop.Type == PropertyUnknown {
			prop.RawType = head.Type
		}
		page.Properties = append(page.Properties, prop)

		if prop.Type == PropertyTitle && page.Title == "" {
			page.Title = strings.TrimSpace(titleOf(raw))
		}
	}

	return page, nil
}

// ObjectID returns the id of a remote object, "" when data has none.
func ObjectID(data []byte) string {
	head := struct {
		ID string `json:"id"`
	}{}
	if err := json.Unmarshal(data, &head); err != nil {
		return ""
	}
	return head.ID
}

func titleOf(raw json.RawMessage) string {
	value := struct {
		Title []RichText `json:"title"`
	}{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return PlainText(value.Title)
}

type blockEnvelope struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
}

type fileSource struct {
	URL string `json:"url"`
}

type blockIcon struct {
	Type     string      `json:"type"`
	Emoji    string      `json:"emoji"`
	External *fileSource `json:"external"`
}

// blockPayload is the union of the payload shapes of every supported type.
type blockPayload struct {
	RichText        []RichText   `json:"rich_text"`
	Checked         bool         `json:"checked"`
	Icon            *blockIcon   `json:"icon"`
	Language        string       `json:"language"`
	Caption         []RichText   `json:"caption"`
	External        *fileSource  `json:"external"`
	File            *fileSource  `json:"file"`
	URL             string       `json:"url"`
	Name            string       `json:"name"`
	Expression      string       `json:"expression"`
	Title           string       `json:"title"`
	Cells           [][]RichText `json:"cells"`
	TableWidth      int          `json:"table_width"`
	HasColumnHeader bool         `json:"has_column_header"`
}

// Types with no payload worth reading. A missing payload is not an error for
// them.
var emptyPayloadTypes = map[BlockType]struct{}{
	BlockDivider: {}, BlockBreadcrumb: {}, BlockTableOfContents: {},
	BlockColumnList: {}, BlockColumn: {}, BlockSyncedBlock: {},
	BlockUnsupported: {}, BlockUnknown: {}, BlockLinkToPage: {},
	BlockTemplate: {},
}

// DecodeBlock builds a Block from the JSON form of a remote block object. An
// error is returned only when data is not a JSON object. A missing or
// unknown type gives BlockUnknown, a malformed payload is reported through
// Block.DecodeErr. The ID may be empty.
func DecodeBlock(data []byte) (*Block, error) {
	env := blockEnvelope{}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	block := &Block{
		ID:          env.ID,
		Type:        ParseBlockType(env.Type),
		HasChildren: env.HasChildren,
	}
	if block.Type == BlockUnknown {
		block.RawType = env.Type
	}
	if env.Type == "" {
		return block, nil
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	block.Payload = fields[env.Type]

	if len(block.Payload) == 0 || string(block.Payload) == "null" {
		if _, optional := emptyPayloadTypes[block.Type]; !optional {
			block.DecodeErr = ErrMissingPayload
		}
		return block, nil
	}

	payload := blockPayload{}
	if err := json.Unmarshal(block.Payload, &payload); err != nil {
		block.DecodeErr = err
		return block, nil
	}

	block.RichText = payload.RichText
	block.Checked = payload.Checked
	block.Language = payload.Language
	block.Caption = payload.Caption
	block.Name = payload.Name
	block.Expression = payload.Expression
	block.Title = payload.Title
	block.Cells = payload.Cells
	block.TableWidth = payload.TableWidth
	block.HasColumnHeader = payload.HasColumnHeader
	block.URL = payload.URL

	switch {
	case payload.External != nil:
		block.URL = payload.External.URL
	case payload.File != nil:
		block.URL = payload.File.URL
	}

	if payload.Icon != nil {
		switch {
		case payload.Icon.Emoji != "":
			block.Icon = payload.Icon.Emoji
		case payload.Icon.External != nil:
			block.Icon = payload.Icon.External.URL
		}
	}

	return block, nil
}

// SalvageText pulls every plain_text or content string out of a raw payload,
// in document order. It is used to render blocks whose payload failed to
// decode. Invalid JSON yields "".
func SalvageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}

	parts := []string{}
	stack := []interface{}{value}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := top.(type) {
		case map[string]interface{}:
			if text, ok := v["plain_text"].(string); ok {
				parts = append(parts, text)
				continue
			}
			if text, ok := v["content"].(string); ok {
				parts = append(parts, text)
				continue
			}
			keys := make([]string, 0, len(v))
			for key := range v {
				keys = append(keys, key)
			}
			sort.Sort(sort.Reverse(sort.StringSlice(keys)))
			for _, key := range keys {
				stack = append(stack, v[key])
			}
		case []interface{}:
			for i := len(v) - 1; i >= 0; i-- {
				stack = append(stack, v[i])
			}
		}
	}

	return strings.Join(parts, "")
}
