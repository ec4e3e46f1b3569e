package notion

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// wireProperty carries every payload key this package understands.
// UnmarshalJSON keeps only the one named by the type discriminator.
type wireProperty struct {
	ID          string       `json:"id"`
	Type        PropertyType `json:"type"`
	Title       []RichText   `json:"title"`
	RichText    []RichText   `json:"rich_text"`
	Number      *float64     `json:"number"`
	Select      *Option      `json:"select"`
	MultiSelect []Option     `json:"multi_select"`
	Date        *DateValue   `json:"date"`
	Relation    []Reference  `json:"relation"`
	Files       []FileRef    `json:"files"`
}

// UnmarshalJSON decodes a property value as a tagged union
func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	var w wireProperty
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*v = PropertyValue{Name: v.Name, ID: w.ID, Type: w.Type}
	switch w.Type {
	case PropertyTitle:
		v.Title = w.Title
	case PropertyRichText:
		v.RichText = w.RichText
	case PropertyNumber:
		v.Number = w.Number
	case PropertySelect:
		v.Select = w.Select
	case PropertyMultiSelect:
		v.MultiSelect = w.MultiSelect
	case PropertyDate:
		v.Date = w.Date
	case PropertyRelation:
		v.Relation = w.Relation
	case PropertyFiles:
		v.Files = w.Files
	}
	return nil
}

type wireDatabase struct {
	ID         string          `json:"id"`
	Properties json.RawMessage `json:"properties"`
}

// UnmarshalJSON decodes a database keeping the provider's property order
func (d *Database) UnmarshalJSON(data []byte) error {
	var w wireDatabase
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	props := orderedmap.New[string, PropertySchema]()
	if len(w.Properties) > 0 {
		if err := json.Unmarshal(w.Properties, props); err != nil {
			return fmt.Errorf("decode database properties: %w", err)
		}
	}

	d.ID = w.ID
	d.Properties = make([]PropertySchema, 0, props.Len())
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		schema := pair.Value
		if schema.Name == "" {
			schema.Name = pair.Key
		}
		d.Properties = append(d.Properties, schema)
	}
	return nil
}

type wirePage struct {
	ID          string          `json:"id"`
	CreatedTime time.Time       `json:"created_time"`
	Properties  json.RawMessage `json:"properties"`
}

// UnmarshalJSON decodes a page keeping the provider's property order
func (p *Page) UnmarshalJSON(data []byte) error {
	var w wirePage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	props := orderedmap.New[string, json.RawMessage]()
	if len(w.Properties) > 0 {
		if err := json.Unmarshal(w.Properties, props); err != nil {
			return fmt.Errorf("decode page properties: %w", err)
		}
	}

	p.ID = w.ID
	p.CreatedTime = w.CreatedTime
	p.Properties = make([]PropertyValue, 0, props.Len())
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		value := PropertyValue{Name: pair.Key}
		if err := value.UnmarshalJSON(pair.Value); err != nil {
			return fmt.Errorf("decode property %q: %w", pair.Key, err)
		}
		p.Properties = append(p.Properties, value)
	}
	return nil
}

type wireBlockHeader struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
}

// UnmarshalJSON decodes a block header plus its type payload and root-level file metadata.
// Payloads that are not media-shaped are dropped rather than failing the listing.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var h wireBlockHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}

	*b = Block{ID: h.ID, Type: h.Type, HasChildren: h.HasChildren}
	if body, ok := raw[h.Type]; ok {
		b.Payload = decodePayload(body)
	}
	if body, ok := raw["file"]; ok {
		b.Attachment = decodePayload(body)
	}
	return nil
}

func decodePayload(body json.RawMessage) *BlockPayload {
	var payload BlockPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return &payload
}

type wireList struct {
	Results    json.RawMessage `json:"results"`
	NextCursor *string         `json:"next_cursor"`
	HasMore    bool            `json:"has_more"`
}

func decodePageList(data []byte) (*PageList, error) {
	var w wireList
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	list := &PageList{HasMore: w.HasMore}
	if w.NextCursor != nil {
		list.NextCursor = *w.NextCursor
	}
	if len(w.Results) > 0 {
		if err := json.Unmarshal(w.Results, &list.Results); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func decodeBlockList(data []byte) (*BlockList, error) {
	var w wireList
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	list := &BlockList{HasMore: w.HasMore}
	if w.NextCursor != nil {
		list.NextCursor = *w.NextCursor
	}
	if len(w.Results) > 0 {
		if err := json.Unmarshal(w.Results, &list.Results); err != nil {
			return nil, err
		}
	}
	return list, nil
}
