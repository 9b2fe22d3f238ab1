package model

import (
	"encoding/json"
	"sort"
	"time"
)

type PropertyType string

const (
	PropertyTitle          PropertyType = "title"
	PropertyRichText       PropertyType = "rich_text"
	PropertyNumber         PropertyType = "number"
	PropertySelect         PropertyType = "select"
	PropertyMultiSelect    PropertyType = "multi_select"
	PropertyStatus         PropertyType = "status"
	PropertyDate           PropertyType = "date"
	PropertyCheckbox       PropertyType = "checkbox"
	PropertyRelation       PropertyType = "relation"
	PropertyURL            PropertyType = "url"
	PropertyEmail          PropertyType = "email"
	PropertyPhoneNumber    PropertyType = "phone_number"
	PropertyPeople         PropertyType = "people"
	PropertyFiles          PropertyType = "files"
	PropertyFormula        PropertyType = "formula"
	PropertyRollup         PropertyType = "rollup"
	PropertyCreatedTime    PropertyType = "created_time"
	PropertyLastEditedTime PropertyType = "last_edited_time"
	PropertyUniqueID       PropertyType = "unique_id"
	PropertyUnknown        PropertyType = "unknown"
)

var knownPropertyTypes = map[PropertyType]struct{}{
	PropertyTitle: {}, PropertyRichText: {}, PropertyNumber: {},
	PropertySelect: {}, PropertyMultiSelect: {}, PropertyStatus: {},
	PropertyDate: {}, PropertyCheckbox: {}, PropertyRelation: {},
	PropertyURL: {}, PropertyEmail: {}, PropertyPhoneNumber: {},
	PropertyPeople: {}, PropertyFiles: {}, PropertyFormula: {},
	PropertyRollup: {}, PropertyCreatedTime: {}, PropertyLastEditedTime: {},
	PropertyUniqueID: {},
}

func ParsePropertyType(tag string) PropertyType {
	t := PropertyType(tag)
	if _, found := knownPropertyTypes[t]; found {
		return t
	}
	return PropertyUnknown
}

// Property is one typed value of a page. Raw holds the whole property object
// as delivered by the remote, the value is decoded on demand.
type Property struct {
	Name    string
	ID      string
	Type    PropertyType
	RawType string
	Raw     json.RawMessage
}

// Page is the snapshot of a remote page taken during one sync pass.
type Page struct {
	ID             string
	Title          string
	URL            string
	Archived       bool
	CreatedTime    time.Time
	LastEditedTime time.Time
	Properties     []Property
}

// Property returns the property with the given name.
func (p *Page) Property(name string) (Property, bool) {
	for _, prop := range p.Properties {
		if prop.Name == name {
			return prop, true
		}
	}
	return Property{}, false
}

// OrderProperties returns props with the names in order first, in that order,
// followed by the rest sorted by name. The input is not modified.
func OrderProperties(props []Property, order []string) []Property {
	rank := make(map[string]int, len(order))
	for i, name := range order {
		if _, dup := rank[name]; !dup {
			rank[name] = i
		}
	}

	out := make([]Property, len(props))
	copy(out, props)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iRanked := rank[out[i].Name]
		rj, jRanked := rank[out[j].Name]
		switch {
		case iRanked && jRanked:
			return ri < rj
		case iRanked:
			return true
		case jRanked:
			return false
		}
		return out[i].Name < out[j].Name
	})
	return out
}
