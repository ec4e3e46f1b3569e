package notiontest

import (
	"time"

	"github.com/yigit/practicelog/internal/pkg/notion"
)

// Schema builders

// TitleSchema declares a title property
func TitleSchema(name string) notion.PropertySchema {
	return notion.PropertySchema{ID: name, Name: name, Type: notion.PropertyTitle}
}

// Schema declares a property of any non-relation type
func Schema(name string, typ notion.PropertyType) notion.PropertySchema {
	return notion.PropertySchema{ID: name, Name: name, Type: typ}
}

// RelationSchema declares a relation property targeting databaseID
func RelationSchema(name, databaseID string) notion.PropertySchema {
	return notion.PropertySchema{
		ID:       name,
		Name:     name,
		Type:     notion.PropertyRelation,
		Relation: &notion.RelationSchema{DatabaseID: databaseID},
	}
}

// Property value builders

// Title builds a title value
func Title(name, text string) notion.PropertyValue {
	return notion.PropertyValue{Name: name, Type: notion.PropertyTitle, Title: []notion.RichText{{PlainText: text}}}
}

// RichText builds a rich_text value from text runs
func RichText(name string, runs ...string) notion.PropertyValue {
	v := notion.PropertyValue{Name: name, Type: notion.PropertyRichText}
	for _, r := range runs {
		v.RichText = append(v.RichText, notion.RichText{PlainText: r})
	}
	return v
}

// Number builds a number value
func Number(name string, n float64) notion.PropertyValue {
	return notion.PropertyValue{Name: name, Type: notion.PropertyNumber, Number: &n}
}

// Select builds a select value
func Select(name, option string) notion.PropertyValue {
	return notion.PropertyValue{Name: name, Type: notion.PropertySelect, Select: &notion.Option{Name: option}}
}

// MultiSelect builds a multi_select value
func MultiSelect(name string, options ...string) notion.PropertyValue {
	v := notion.PropertyValue{Name: name, Type: notion.PropertyMultiSelect}
	for _, o := range options {
		v.MultiSelect = append(v.MultiSelect, notion.Option{Name: o})
	}
	return v
}

// Date builds a date value
func Date(name, start string) notion.PropertyValue {
	return notion.PropertyValue{Name: name, Type: notion.PropertyDate, Date: &notion.DateValue{Start: start}}
}

// Relation builds a relation value
func Relation(name string, ids ...string) notion.PropertyValue {
	v := notion.PropertyValue{Name: name, Type: notion.PropertyRelation, Relation: []notion.Reference{}}
	for _, id := range ids {
		v.Relation = append(v.Relation, notion.Reference{ID: id})
	}
	return v
}

// ExternalFiles builds a files value of externally hosted URLs
func ExternalFiles(name string, urls ...string) notion.PropertyValue {
	v := notion.PropertyValue{Name: name, Type: notion.PropertyFiles, Files: []notion.FileRef{}}
	for _, u := range urls {
		v.Files = append(v.Files, notion.FileRef{Type: "external", External: &notion.ExternalFile{URL: u}})
	}
	return v
}

// HostedFiles builds a files value of provider-hosted URLs
func HostedFiles(name string, urls ...string) notion.PropertyValue {
	v := notion.PropertyValue{Name: name, Type: notion.PropertyFiles, Files: []notion.FileRef{}}
	for _, u := range urls {
		v.Files = append(v.Files, notion.FileRef{Type: "file", File: &notion.HostedFile{URL: u}})
	}
	return v
}

// Page builds a row
func Page(id string, created time.Time, props ...notion.PropertyValue) notion.Page {
	return notion.Page{ID: id, CreatedTime: created, Properties: props}
}

// Block builders

// ImageBlock builds an externally hosted image block
func ImageBlock(id, url string) notion.Block {
	return MediaBlock(id, notion.BlockImage, url)
}

// MediaBlock builds an externally hosted media block of the given type
func MediaBlock(id, typ, url string) notion.Block {
	return notion.Block{ID: id, Type: typ, Payload: &notion.BlockPayload{Type: "external", External: &notion.ExternalFile{URL: url}}}
}

// HostedBlock builds a provider-hosted media block of the given type
func HostedBlock(id, typ, url string) notion.Block {
	return notion.Block{ID: id, Type: typ, Payload: &notion.BlockPayload{Type: "file", File: &notion.HostedFile{URL: url}}}
}

// LinkBlock builds an embed, bookmark or link_preview block
func LinkBlock(id, typ, url string) notion.Block {
	return notion.Block{ID: id, Type: typ, Payload: &notion.BlockPayload{URL: url}}
}

// ParagraphBlock builds a text block, optionally with children
func ParagraphBlock(id string, hasChildren bool) notion.Block {
	return notion.Block{ID: id, Type: notion.BlockParagraph, HasChildren: hasChildren, Payload: &notion.BlockPayload{}}
}
