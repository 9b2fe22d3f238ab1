package model

import "strings"

type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Equation struct {
	Expression string `json:"expression"`
}

// RichText is one styled span of text.
type RichText struct {
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Equation    *Equation    `json:"equation,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text"`
	Href        string       `json:"href,omitempty"`
}

// Content returns the raw text of the span, falling back to the text object
// when plain_text is missing.
func (r RichText) Content() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	if r.Text != nil {
		return r.Text.Content
	}
	if r.Equation != nil {
		return r.Equation.Expression
	}
	return ""
}

// LinkURL returns the span's link target, if any.
func (r RichText) LinkURL() string {
	if r.Href != "" {
		return r.Href
	}
	if r.Text != nil && r.Text.Link != nil {
		return r.Text.Link.URL
	}
	return ""
}

// PlainText concatenates the unstyled text of all spans.
func PlainText(spans []RichText) string {
	var sb strings.Builder
	for _, span := range spans {
		sb.WriteString(span.Content())
	}
	return sb.String()
}
