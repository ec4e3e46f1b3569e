package notion

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// PropertyType is the provider's declared property type discriminator
type PropertyType string

// Property types this package decodes. Anything else is kept opaque by name.
const (
	PropertyTitle       PropertyType = "title"
	PropertyRichText    PropertyType = "rich_text"
	PropertyNumber      PropertyType = "number"
	PropertySelect      PropertyType = "select"
	PropertyMultiSelect PropertyType = "multi_select"
	PropertyDate        PropertyType = "date"
	PropertyRelation    PropertyType = "relation"
	PropertyFiles       PropertyType = "files"
)

// Block types carrying media
const (
	BlockImage       = "image"
	BlockVideo       = "video"
	BlockFile        = "file"
	BlockAudio       = "audio"
	BlockPDF         = "pdf"
	BlockEmbed       = "embed"
	BlockBookmark    = "bookmark"
	BlockLinkPreview = "link_preview"
	BlockUnsupported = "unsupported"
	BlockParagraph   = "paragraph"
)

// RelationSchema is the relation-specific part of a property declaration
type RelationSchema struct {
	DatabaseID string `json:"database_id"`
}

// PropertySchema describes one property declared by a database
type PropertySchema struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     PropertyType    `json:"type"`
	Relation *RelationSchema `json:"relation,omitempty"`
}

// Database is a collection with its declared properties in provider order
type Database struct {
	ID         string
	Properties []PropertySchema
}

// RichText is one text run
type RichText struct {
	PlainText string `json:"plain_text"`
}

// Option is a select or multi-select tag
type Option struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// DateValue is a date property payload
type DateValue struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// Reference points at another page
type Reference struct {
	ID string `json:"id"`
}

// HostedFile is a provider-hosted file with a signed, expiring URL
type HostedFile struct {
	URL        string `json:"url"`
	ExpiryTime string `json:"expiry_time,omitempty"`
}

// ExternalFile is an externally hosted file
type ExternalFile struct {
	URL string `json:"url"`
}

// FileRef is one entry of a files property
type FileRef struct {
	Name     string        `json:"name,omitempty"`
	Type     string        `json:"type,omitempty"`
	File     *HostedFile   `json:"file,omitempty"`
	External *ExternalFile `json:"external,omitempty"`
}

// URL resolves the reference, preferring the external URL
func (f FileRef) URL() string {
	if f.External != nil && f.External.URL != "" {
		return f.External.URL
	}
	if f.File != nil && f.File.URL != "" {
		return f.File.URL
	}
	return ""
}

// PropertyValue is a tagged union: only the field matching Type is populated
type PropertyValue struct {
	Name        string
	ID          string
	Type        PropertyType
	Title       []RichText
	RichText    []RichText
	Number      *float64
	Select      *Option
	MultiSelect []Option
	Date        *DateValue
	Relation    []Reference
	Files       []FileRef
}

// PlainText joins all text runs of a title or rich_text value
func (v PropertyValue) PlainText() string {
	runs := v.RichText
	if v.Type == PropertyTitle {
		runs = v.Title
	}
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.PlainText)
	}
	return b.String()
}

// Page is a database row
type Page struct {
	ID          string
	CreatedTime time.Time
	Properties  []PropertyValue
}

// Property returns the named property value, if present
func (p Page) Property(name string) (PropertyValue, bool) {
	for _, v := range p.Properties {
		if v.Name == name {
			return v, true
		}
	}
	return PropertyValue{}, false
}

// BlockPayload covers the media-bearing shapes of a block's type payload
type BlockPayload struct {
	URL      string        `json:"url,omitempty"`
	Type     string        `json:"type,omitempty"`
	File     *HostedFile   `json:"file,omitempty"`
	External *ExternalFile `json:"external,omitempty"`
}

// Block is a node of a page's content tree
type Block struct {
	ID          string
	Type        string
	HasChildren bool
	// Payload is the object stored under the key named by Type
	Payload *BlockPayload
	// Attachment is generic file metadata found at the block's root level
	Attachment *BlockPayload
}

// PageList is one page of query results
type PageList struct {
	Results    []Page
	NextCursor string
	HasMore    bool
}

// BlockList is one page of block children
type BlockList struct {
	Results    []Block
	NextCursor string
	HasMore    bool
}

// RelationFilter matches rows whose relation contains a page id
type RelationFilter struct {
	Contains string `json:"contains"`
}

// Filter is a single-property database filter
type Filter struct {
	Property string          `json:"property"`
	Relation *RelationFilter `json:"relation,omitempty"`
}

// Sort orders query results
type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

// Sort directions and timestamps
const (
	SortDescending   = "descending"
	SortAscending    = "ascending"
	TimestampCreated = "created_time"
)

// DatabaseQuery is the body of a database query request
type DatabaseQuery struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

// PropertyInput is a property value for page creation. Exactly one field is set.
type PropertyInput struct {
	Title    []TextInput `json:"title,omitempty"`
	Relation []Reference `json:"relation,omitempty"`
	Files    []FileRef   `json:"files,omitempty"`
	Date     *DateValue  `json:"date,omitempty"`
}

// TextInput is a text run for writes
type TextInput struct {
	Text TextContent `json:"text"`
}

// TextContent holds literal text
type TextContent struct {
	Content string `json:"content"`
}

// ParentRef identifies the database a new page belongs to
type ParentRef struct {
	DatabaseID string `json:"database_id"`
}

// CreatePageRequest is the body of a page creation request
type CreatePageRequest struct {
	Parent     ParentRef                `json:"parent"`
	Properties map[string]PropertyInput `json:"properties"`
}

// TitleInput builds a title property input
func TitleInput(text string) PropertyInput {
	return PropertyInput{Title: []TextInput{{Text: TextContent{Content: text}}}}
}

// ExternalFilesInput builds a files property input from external URLs.
// Each file is named after the last path segment of its URL.
func ExternalFilesInput(urls []string) PropertyInput {
	refs := make([]FileRef, 0, len(urls))
	for _, raw := range urls {
		refs = append(refs, FileRef{
			Name:     fileName(raw),
			Type:     "external",
			External: &ExternalFile{URL: raw},
		})
	}
	return PropertyInput{Files: refs}
}

func fileName(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		if base := path.Base(u.Path); base != "/" && base != "." {
			return base
		}
	}
	return raw
}

// SameID compares two ids ignoring dashes and case
func SameID(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(strings.ReplaceAll(a, "-", ""), strings.ReplaceAll(b, "-", ""))
}
