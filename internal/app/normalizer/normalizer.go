// Package normalizer maps provider rows to members and submissions.
// Every query path goes through it, so field extraction rules live only here.
package normalizer

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/config"
	"github.com/yigit/practicelog/internal/pkg/helpers"
	"github.com/yigit/practicelog/internal/pkg/notion"
)

// NormalizeName folds case and drops whitespace and punctuation.
// Login, parent lookup and name-based association all compare through it.
func NormalizeName(name string) string {
	// Casers hold state, so one per call
	folded := cases.Fold().String(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			return -1
		}
		return r
	}, folded)
}

// SameName reports whether two display names normalize to the same non-empty key
func SameName(a, b string) bool {
	na := NormalizeName(a)
	return na != "" && na == NormalizeName(b)
}

// Normalizer extracts logical fields using ordered property-name aliases
type Normalizer struct {
	schema config.SchemaConfig
}

// New creates a normalizer for the given property names
func New(schema config.SchemaConfig) *Normalizer {
	return &Normalizer{schema: schema}
}

// Schema returns the alias configuration
func (n *Normalizer) Schema() config.SchemaConfig {
	return n.schema
}

// NormalizeSubmission builds a submission from a row and its explicit media list.
// An empty media list yields an empty MediaURLs; substituting walked media is the caller's job.
func (n *Normalizer) NormalizeSubmission(page notion.Page, files []notion.FileRef) models.Submission {
	sub := models.Submission{
		ID:         page.ID,
		MemberName: n.SubmissionTitle(page),
		MediaURLs:  resolveFiles(files),
		OccurredAt: page.CreatedTime,
		CreatedAt:  page.CreatedTime,
	}

	if v, ok := lookup(page, n.schema.SubmissionDate, notion.PropertyDate); ok && v.Date != nil {
		if t, ok := helpers.ParseDate(v.Date.Start); ok {
			sub.OccurredAt = t
		}
	}
	if v, ok := lookup(page, n.schema.SubmissionComment, notion.PropertyRichText); ok && len(v.RichText) > 0 {
		sub.ReviewerComment = v.RichText[0].PlainText
	}
	sub.CategoryLabel = n.category(page)
	return sub
}

// SubmissionTitle returns the submitter name of a row
func (n *Normalizer) SubmissionTitle(page notion.Page) string {
	if name := titleText(page, n.schema.SubmissionTitle); name != "" {
		return name
	}
	return n.schema.SubmissionDefault
}

// MediaFiles returns the file references of the explicit media property
func (n *Normalizer) MediaFiles(page notion.Page) []notion.FileRef {
	if v, ok := lookup(page, n.schema.SubmissionMedia, notion.PropertyFiles); ok {
		return v.Files
	}
	return nil
}

// NormalizeMember builds a member from a row
func (n *Normalizer) NormalizeMember(page notion.Page) models.Member {
	m := models.Member{
		ID:          page.ID,
		DisplayName: titleText(page, n.schema.MemberTitle),
	}
	if m.DisplayName == "" {
		m.DisplayName = n.schema.MemberDefault
	}
	if v, ok := lookupAny(page, n.schema.MemberLevel); ok {
		m.LevelLabel = textOf(v)
	}
	if v, ok := lookupAny(page, n.schema.MemberRecentGoal); ok {
		m.RecentGoal = textOf(v)
	}
	if v, ok := lookupAny(page, n.schema.MemberSecret); ok {
		m.Secret = numberOf(v)
	}
	return m
}

// category takes the first tag of the select or multi-select category property
func (n *Normalizer) category(page notion.Page) string {
	for _, name := range n.schema.SubmissionCategory {
		v, ok := page.Property(name)
		if !ok {
			continue
		}
		switch v.Type {
		case notion.PropertySelect:
			if v.Select != nil {
				return v.Select.Name
			}
		case notion.PropertyMultiSelect:
			if len(v.MultiSelect) > 0 {
				return v.MultiSelect[0].Name
			}
		}
	}
	return ""
}

// lookup returns the first aliased property of the wanted type
func lookup(page notion.Page, aliases []string, typ notion.PropertyType) (notion.PropertyValue, bool) {
	for _, name := range aliases {
		if v, ok := page.Property(name); ok && v.Type == typ {
			return v, true
		}
	}
	return notion.PropertyValue{}, false
}

func lookupAny(page notion.Page, aliases []string) (notion.PropertyValue, bool) {
	for _, name := range aliases {
		if v, ok := page.Property(name); ok {
			return v, true
		}
	}
	return notion.PropertyValue{}, false
}

// titleText reads the aliased title property, falling back to the one title-typed property
func titleText(page notion.Page, aliases []string) string {
	if v, ok := lookup(page, aliases, notion.PropertyTitle); ok {
		return strings.TrimSpace(v.PlainText())
	}
	for _, v := range page.Properties {
		if v.Type == notion.PropertyTitle {
			return strings.TrimSpace(v.PlainText())
		}
	}
	return ""
}

func textOf(v notion.PropertyValue) string {
	switch v.Type {
	case notion.PropertyTitle, notion.PropertyRichText:
		return strings.TrimSpace(v.PlainText())
	case notion.PropertySelect:
		if v.Select != nil {
			return v.Select.Name
		}
	case notion.PropertyMultiSelect:
		if len(v.MultiSelect) > 0 {
			return v.MultiSelect[0].Name
		}
	case notion.PropertyNumber:
		if v.Number != nil {
			return strconv.FormatFloat(*v.Number, 'f', -1, 64)
		}
	}
	return ""
}

func numberOf(v notion.PropertyValue) *float64 {
	if v.Type == notion.PropertyNumber {
		if v.Number == nil {
			return nil
		}
		n := *v.Number
		return &n
	}
	text := textOf(v)
	if text == "" {
		return nil
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &n
}

func resolveFiles(files []notion.FileRef) []string {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		if u := f.URL(); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
