package properties

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/sawantshivaji1997/notionsync/src/markdown"
	"github.com/sawantshivaji1997/notionsync/src/model"
)

// Header keys written for every page, before the page's own properties
const (
	KEY_NOTION_ID        = "notion_id"
	KEY_TITLE            = "title"
	KEY_CREATED_TIME     = "created_time"
	KEY_LAST_EDITED_TIME = "last_edited_time"
	KEY_NOTION_URL       = "notion_url"
	KEY_ARCHIVED         = "archived"
	DATE_LAYOUT          = "2006-01-02"
)

type option struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end"`
}

type fileRef struct {
	URL string `json:"url"`
}

type fileValue struct {
	Name     string   `json:"name"`
	File     *fileRef `json:"file"`
	External *fileRef `json:"external"`
}

type formulaValue struct {
	Type    string     `json:"type"`
	String  *string    `json:"string"`
	Number  *float64   `json:"number"`
	Boolean *bool      `json:"boolean"`
	Date    *dateValue `json:"date"`
}

type rollupValue struct {
	Type   string            `json:"type"`
	Number *float64          `json:"number"`
	Date   *dateValue        `json:"date"`
	Array  []json.RawMessage `json:"array"`
}

type uniqueIDValue struct {
	Prefix *string `json:"prefix"`
	Number *int64  `json:"number"`
}

// rawValue is the union of the value shapes of all property types
type rawValue struct {
	Type           string           `json:"type"`
	Title          []model.RichText `json:"title"`
	RichText       []model.RichText `json:"rich_text"`
	Number         *float64         `json:"number"`
	Select         *option          `json:"select"`
	Status         *option          `json:"status"`
	MultiSelect    []option         `json:"multi_select"`
	Date           *dateValue       `json:"date"`
	Checkbox       *bool            `json:"checkbox"`
	Relation       []struct {
		ID string `json:"id"`
	} `json:"relation"`
	URL         *string `json:"url"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	People      []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"people"`
	Files          []fileValue    `json:"files"`
	Formula        *formulaValue  `json:"formula"`
	Rollup         *rollupValue   `json:"rollup"`
	CreatedTime    *string        `json:"created_time"`
	LastEditedTime *string        `json:"last_edited_time"`
	UniqueID       *uniqueIDValue `json:"unique_id"`
}

// Extract returns the header value of a property. The second result is
// false when the property is null, empty, malformed or of an unknown type;
// such properties are left out of the header.
func Extract(prop model.Property) (interface{}, bool) {
	raw := rawValue{}
	if err := json.Unmarshal(prop.Raw, &raw); err != nil {
		return nil, false
	}
	return extractValue(prop.Type, &raw)
}

func extractValue(propType model.PropertyType, raw *rawValue) (interface{}, bool) {
	switch propType {
	case model.PropertyTitle:
		return nonEmpty(model.PlainText(raw.Title))
	case model.PropertyRichText:
		return nonEmpty(model.PlainText(raw.RichText))
	case model.PropertyNumber:
		return number(raw.Number)
	case model.PropertySelect:
		return optionName(raw.Select)
	case model.PropertyStatus:
		return optionName(raw.Status)
	case model.PropertyMultiSelect:
		names := []string{}
		for _, opt := range raw.MultiSelect {
			if opt.Name != "" {
				names = append(names, opt.Name)
			}
		}
		return nonEmptyList(names)
	case model.PropertyDate:
		return date(raw.Date)
	case model.PropertyCheckbox:
		if raw.Checkbox == nil {
			return nil, false
		}
		return *raw.Checkbox, true
	case model.PropertyRelation:
		ids := []string{}
		for _, relation := range raw.Relation {
			if relation.ID != "" {
				ids = append(ids, relation.ID)
			}
		}
		return nonEmptyList(ids)
	case model.PropertyURL:
		return stringValue(raw.URL)
	case model.PropertyEmail:
		return stringValue(raw.Email)
	case model.PropertyPhoneNumber:
		return stringValue(raw.PhoneNumber)
	case model.PropertyPeople:
		names := []string{}
		for _, person := range raw.People {
			switch {
			case person.Name != "":
				names = append(names, person.Name)
			case person.ID != "":
				names = append(names, person.ID)
			}
		}
		return nonEmptyList(names)
	case model.PropertyFiles:
		urls := []string{}
		for _, file := range raw.Files {
			switch {
			case file.External != nil && file.External.URL != "":
				urls = append(urls, file.External.URL)
			case file.File != nil && file.File.URL != "":
				urls = append(urls, file.File.URL)
			case file.Name != "":
				urls = append(urls, file.Name)
			}
		}
		return nonEmptyList(urls)
	case model.PropertyFormula:
		return formula(raw.Formula)
	case model.PropertyRollup:
		return rollup(raw.Rollup)
	case model.PropertyCreatedTime:
		return timestamp(raw.CreatedTime)
	case model.PropertyLastEditedTime:
		return timestamp(raw.LastEditedTime)
	case model.PropertyUniqueID:
		if raw.UniqueID == nil || raw.UniqueID.Number == nil {
			return nil, false
		}
		id := strconv.FormatInt(*raw.UniqueID.Number, 10)
		if raw.UniqueID.Prefix != nil && *raw.UniqueID.Prefix != "" {
			id = *raw.UniqueID.Prefix + "-" + id
		}
		return id, true
	}
	return nil, false
}

func nonEmpty(s string) (interface{}, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	return s, true
}

func nonEmptyList(values []string) (interface{}, bool) {
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

func stringValue(s *string) (interface{}, bool) {
	if s == nil {
		return nil, false
	}
	return nonEmpty(*s)
}

func optionName(opt *option) (interface{}, bool) {
	if opt == nil {
		return nil, false
	}
	return nonEmpty(opt.Name)
}

// Whole numbers are written without a fractional part
func number(n *float64) (interface{}, bool) {
	if n == nil {
		return nil, false
	}
	if *n == float64(int64(*n)) {
		return int64(*n), true
	}
	return *n, true
}

func date(d *dateValue) (interface{}, bool) {
	if d == nil || d.Start == "" {
		return nil, false
	}
	start := NormalizeDate(d.Start)
	if d.End != nil && *d.End != "" {
		return start + "/" + NormalizeDate(*d.End), true
	}
	return start, true
}

// NormalizeDate returns an ISO-8601 form of a remote date. Values at
// midnight UTC are date-only values that picked up a time of day on the way
// through the client library, they are written back as plain dates.
func NormalizeDate(value string) string {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	_, offset := t.Zone()
	if offset == 0 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(DATE_LAYOUT)
	}
	return t.Format(time.RFC3339)
}

func timestamp(value *string) (interface{}, bool) {
	if value == nil || *value == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339Nano, *value)
	if err != nil {
		return nonEmpty(*value)
	}
	if t.IsZero() {
		return nil, false
	}
	return t.UTC().Format(time.RFC3339), true
}

func formula(f *formulaValue) (interface{}, bool) {
	if f == nil {
		return nil, false
	}
	switch f.Type {
	case "string":
		return stringValue(f.String)
	case "number":
		return number(f.Number)
	case "boolean":
		if f.Boolean == nil {
			return nil, false
		}
		return *f.Boolean, true
	case "date":
		return date(f.Date)
	}
	return nil, false
}

func rollup(r *rollupValue) (interface{}, bool) {
	if r == nil {
		return nil, false
	}
	switch r.Type {
	case "number":
		return number(r.Number)
	case "date":
		return date(r.Date)
	case "array":
		values := []interface{}{}
		for _, item := range r.Array {
			raw := rawValue{}
			if err := json.Unmarshal(item, &raw); err != nil {
				continue
			}
			value, ok := extractValue(model.ParsePropertyType(raw.Type), &raw)
			if !ok {
				continue
			}
			// Nested lists are flattened
			if list, isList := value.([]string); isList {
				for _, v := range list {
					values = append(values, v)
				}
				continue
			}
			values = append(values, value)
		}
		if len(values) == 0 {
			return nil, false
		}
		return values, true
	}
	return nil, false
}

type Options struct {
	IncludeProperties bool
	Order             []string
}

// Header builds the ordered metadata header of a page. The page title is
// its own key, so title properties are not repeated. A property whose name
// collides with a fixed key is left out.
func Header(page *model.Page, opts Options) []markdown.Field {
	fields := []markdown.Field{
		{Key: KEY_NOTION_ID, Value: page.ID},
		{Key: KEY_TITLE, Value: page.Title},
	}
	if !page.CreatedTime.IsZero() {
		fields = append(fields, markdown.Field{
			Key: KEY_CREATED_TIME, Value: page.CreatedTime.UTC().Format(time.RFC3339)})
	}
	if !page.LastEditedTime.IsZero() {
		fields = append(fields, markdown.Field{
			Key: KEY_LAST_EDITED_TIME, Value: page.LastEditedTime.UTC().Format(time.RFC3339)})
	}
	if page.URL != "" {
		fields = append(fields, markdown.Field{Key: KEY_NOTION_URL, Value: page.URL})
	}
	if page.Archived {
		fields = append(fields, markdown.Field{Key: KEY_ARCHIVED, Value: true})
	}

	if !opts.IncludeProperties {
		return fields
	}

	used := map[string]struct{}{}
	for _, field := range fields {
		used[field.Key] = struct{}{}
	}
	for _, prop := range model.OrderProperties(page.Properties, opts.Order) {
		if prop.Type == model.PropertyTitle {
			continue
		}
		if _, collides := used[prop.Name]; collides {
			continue
		}
		value, ok := Extract(prop)
		if !ok {
			continue
		}
		used[prop.Name] = struct{}{}
		fields = append(fields, markdown.Field{Key: prop.Name, Value: value})
	}
	return fields
}
