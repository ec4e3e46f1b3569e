package models

import (
	"time"
)

// Member is one row of the members collection
type Member struct {
	ID          string   `json:"id" example:"8c1f0a5e-6f0b-4d4e-9b7a-5a1f2f0f9e01"`
	DisplayName string   `json:"displayName" example:"LiLei"`
	LevelLabel  string   `json:"levelLabel,omitempty" example:"Grade 3"`
	RecentGoal  string   `json:"recentGoal,omitempty"`
	Secret      *float64 `json:"-"` // Numeric login credential, never serialized
}

// Submission is one row of the submissions collection
type Submission struct {
	ID              string    `json:"id"`
	MemberName      string    `json:"memberName" example:"LiLei"` // Denormalized title, independent of the relation link
	MediaURLs       []string  `json:"mediaUrls"`
	OccurredAt      time.Time `json:"occurredAt"`
	CreatedAt       time.Time `json:"createdAt"`
	ReviewerComment string    `json:"reviewerComment,omitempty"`
	CategoryLabel   string    `json:"categoryLabel,omitempty" example:"打卡练习"`
}

// WithMedia returns a copy of s carrying urls
func (s Submission) WithMedia(urls []string) Submission {
	s.MediaURLs = append([]string{}, urls...)
	return s
}

// Cover returns the first media URL, if any
func (s Submission) Cover() string {
	if len(s.MediaURLs) == 0 {
		return ""
	}
	return s.MediaURLs[0]
}

// SchemaEntry describes one declared property of a collection
type SchemaEntry struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	ID             string `json:"id"`
	RelationTarget string `json:"relationTarget,omitempty"` // Target collection id of relation properties
}

// CollectionSchemas holds the schema of both collections
type CollectionSchemas struct {
	Members     []SchemaEntry `json:"members"`
	Submissions []SchemaEntry `json:"submissions"`
}

// CreatedSubmission acknowledges a created submission
type CreatedSubmission struct {
	ID               string    `json:"id"`
	MemberName       string    `json:"memberName"`
	MemberID         string    `json:"memberId,omitempty"` // Empty when no member matched
	Linked           bool      `json:"linked"`             // Whether the relation property was written
	RelationProperty string    `json:"relationProperty,omitempty"`
	MediaURLs        []string  `json:"mediaUrls"`
	CreatedAt        time.Time `json:"createdAt"`
}

// MemberSummary is a member's progress overview
type MemberSummary struct {
	Member           Member       `json:"member"`
	Submissions      []Submission `json:"submissions"`
	PracticeCheckins int          `json:"practiceCheckins"`
	TotalMedia       int          `json:"totalMedia"`
	Images           int          `json:"images"`
	Videos           int          `json:"videos"`
	Covers           []string     `json:"covers"`
}
