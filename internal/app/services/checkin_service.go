package services

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/app/normalizer"
	"github.com/yigit/practicelog/internal/app/repositories"
	"github.com/yigit/practicelog/internal/config"
	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/helpers"
	"github.com/yigit/practicelog/internal/pkg/logger"
	"github.com/yigit/practicelog/internal/pkg/notion"
)

// MaxRecentSubmissions caps ListRecentSubmissions
const MaxRecentSubmissions = 100

// CreateSubmissionInput is the data needed to record a submission
type CreateSubmissionInput struct {
	MemberName string
	MediaURLs  []string
	OccurredAt *time.Time
}

// CheckinService is the entry point for members and their submissions
type CheckinService interface {
	ListMembers(ctx context.Context) ([]models.Member, error)
	ListSubmissionsForMember(ctx context.Context, memberID string) ([]models.Submission, error)
	CreateSubmission(ctx context.Context, input CreateSubmissionInput) (*models.CreatedSubmission, error)
	DescribeSchemas(ctx context.Context) (*models.CollectionSchemas, error)
	ListRecentSubmissions(ctx context.Context, limit int) ([]models.Submission, error)
	SummarizeMember(ctx context.Context, memberID string) (*models.MemberSummary, error)
}

// CheckinOptions configures the checkin service
type CheckinOptions struct {
	Association   AssociationOptions
	PublicBaseURL string // Prefix for relative /uploads URLs
}

type checkinService struct {
	repos      *repositories.Repositories
	normalizer *normalizer.Normalizer
	engine     *associationEngine
	opts       CheckinOptions
	logger     zerolog.Logger
}

// NewCheckinService creates a new checkin service
func NewCheckinService(
	repos *repositories.Repositories,
	norm *normalizer.Normalizer,
	media MediaExtractor,
	opts CheckinOptions,
	lgr zerolog.Logger,
) CheckinService {
	return &checkinService{
		repos:      repos,
		normalizer: norm,
		engine:     newAssociationEngine(repos.RelationResolver, repos.SubmissionRepository, norm, media, opts.Association, lgr),
		opts:       opts,
		logger:     logger.Component(lgr, "checkin"),
	}
}

// ListMembers returns every member; an unconfigured or unreachable collection yields none
func (s *checkinService) ListMembers(ctx context.Context) ([]models.Member, error) {
	members, err := s.repos.MemberRepository.GetAll(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Listing members failed, returning none")
		return []models.Member{}, nil
	}
	return members, nil
}

// ListSubmissionsForMember returns the member's submissions. It never fails on
// provider or configuration problems; those yield an empty list.
func (s *checkinService) ListSubmissionsForMember(ctx context.Context, memberID string) ([]models.Submission, error) {
	if strings.TrimSpace(memberID) == "" {
		return nil, apperrors.NewBadRequestError("member id is required")
	}

	member := models.Member{ID: memberID}
	if found, err := s.repos.MemberRepository.GetByID(ctx, memberID); err == nil {
		member = *found
	} else {
		// Relation matching still works without the display name
		s.logger.Warn().Err(err).Str("memberId", memberID).Msg("Member lookup failed, name matching disabled")
	}

	return s.listFor(ctx, member), nil
}

func (s *checkinService) listFor(ctx context.Context, member models.Member) []models.Submission {
	subs, err := s.engine.listForMember(ctx, member)
	if err != nil {
		s.logger.Warn().Err(err).Str("memberId", member.ID).Msg("Listing submissions failed, returning none")
		return []models.Submission{}
	}
	return subs
}

// CreateSubmission records a submission, linking it to the member with the same
// normalized name when one exists. An unmatched name still creates an unlinked row.
func (s *checkinService) CreateSubmission(ctx context.Context, input CreateSubmissionInput) (*models.CreatedSubmission, error) {
	submissionsID := s.repos.SubmissionRepository.CollectionID()
	if submissionsID == "" {
		return nil, apperrors.NewConfigurationError("submissions collection id is not configured")
	}
	name := strings.TrimSpace(input.MemberName)
	if name == "" {
		return nil, apperrors.NewBadRequestError("member name is required")
	}

	schema := s.normalizer.Schema()
	names := s.propertyNames(ctx, submissionsID, schema)

	mediaURLs := make([]string, 0, len(input.MediaURLs))
	for _, u := range input.MediaURLs {
		if u = strings.TrimSpace(u); u != "" {
			mediaURLs = append(mediaURLs, helpers.AbsoluteURL(s.opts.PublicBaseURL, u))
		}
	}

	props := map[string]notion.PropertyInput{
		names.title: notion.TitleInput(name),
	}
	if len(mediaURLs) > 0 && names.media != "" {
		props[names.media] = notion.ExternalFilesInput(mediaURLs)
	}
	if input.OccurredAt != nil && names.date != "" {
		props[names.date] = notion.PropertyInput{Date: &notion.DateValue{Start: formatDate(*input.OccurredAt)}}
	}

	created := &models.CreatedSubmission{MemberName: name, MediaURLs: mediaURLs}

	member, _, err := s.repos.MemberRepository.FindByName(ctx, name)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("memberName", name).Msg("Member lookup failed, creating unlinked submission")
	case member == nil:
		s.logger.Info().Str("memberName", name).Msg("No member matches, creating unlinked submission")
	default:
		created.MemberID = member.ID
		property, found, err := s.repos.RelationResolver.FindParentRelationProperty(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Relation resolution failed, creating unlinked submission")
		} else if !found {
			s.logger.Warn().Err(apperrors.ErrAmbiguousSchema).Msg("No relation property targets members, creating unlinked submission")
		} else {
			props[property] = notion.PropertyInput{Relation: []notion.Reference{{ID: member.ID}}}
			created.Linked = true
			created.RelationProperty = property
		}
	}

	page, err := s.repos.SubmissionRepository.Create(ctx, props)
	if err != nil {
		return nil, err
	}
	created.ID = page.ID
	created.CreatedAt = page.CreatedTime

	s.logger.Info().
		Str("submissionId", page.ID).
		Str("memberName", name).
		Bool("linked", created.Linked).
		Int("media", len(mediaURLs)).
		Msg("Submission created")
	return created, nil
}

type writeProperties struct {
	title string
	media string
	date  string
}

// propertyNames picks the real property names to write, using the live schema when available
func (s *checkinService) propertyNames(ctx context.Context, collectionID string, schema config.SchemaConfig) writeProperties {
	names := writeProperties{
		title: first(schema.SubmissionTitle),
		media: first(schema.SubmissionMedia),
		date:  first(schema.SubmissionDate),
	}

	entries, err := s.repos.SchemaRepository.DescribeCollection(ctx, collectionID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Schema unavailable, writing configured property names")
		return names
	}
	for _, e := range entries {
		if e.Type == string(notion.PropertyTitle) {
			names.title = e.Name
			break
		}
	}
	if n, ok := declared(entries, schema.SubmissionMedia, notion.PropertyFiles); ok {
		names.media = n
	}
	if n, ok := declared(entries, schema.SubmissionDate, notion.PropertyDate); ok {
		names.date = n
	}
	return names
}

// DescribeSchemas returns both collection schemas
func (s *checkinService) DescribeSchemas(ctx context.Context) (*models.CollectionSchemas, error) {
	membersID := s.repos.MemberRepository.CollectionID()
	submissionsID := s.repos.SubmissionRepository.CollectionID()
	if membersID == "" || submissionsID == "" {
		return nil, apperrors.NewConfigurationError("members and submissions collection ids must both be configured")
	}

	members, err := s.repos.SchemaRepository.DescribeCollection(ctx, membersID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.repos.SchemaRepository.DescribeCollection(ctx, submissionsID)
	if err != nil {
		return nil, err
	}
	return &models.CollectionSchemas{Members: members, Submissions: submissions}, nil
}

// ListRecentSubmissions returns the newest submissions across all members
func (s *checkinService) ListRecentSubmissions(ctx context.Context, limit int) ([]models.Submission, error) {
	limit = helpers.ClampLimit(limit, 50, MaxRecentSubmissions)

	rows, err := s.repos.SubmissionRepository.GetRecent(ctx, limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Listing recent submissions failed, returning none")
		return []models.Submission{}, nil
	}
	return s.engine.enrich(ctx, rows), nil
}

// SummarizeMember returns the member's profile with submission and media counts
func (s *checkinService) SummarizeMember(ctx context.Context, memberID string) (*models.MemberSummary, error) {
	member, err := s.repos.MemberRepository.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, apperrors.ErrMemberNotFound) || apperrors.IsConfiguration(err) {
			return nil, err
		}
		return nil, apperrors.NewProviderError("summarize member", err)
	}

	subs := s.listFor(ctx, *member)
	summary := &models.MemberSummary{
		Member:      *member,
		Submissions: subs,
		Covers:      make([]string, 0, len(subs)),
	}
	practice := strings.TrimSpace(s.normalizer.Schema().PracticeCategory)
	for _, sub := range subs {
		if category := strings.TrimSpace(sub.CategoryLabel); category != "" && category == practice {
			summary.PracticeCheckins++
		}
		summary.TotalMedia += len(sub.MediaURLs)
		for _, u := range sub.MediaURLs {
			switch mediaKind(u) {
			case kindImage:
				summary.Images++
			case kindVideo:
				summary.Videos++
			}
		}
		if cover := sub.Cover(); cover != "" {
			summary.Covers = append(summary.Covers, cover)
		}
	}
	return summary, nil
}

type kind int

const (
	kindOther kind = iota
	kindImage
	kindVideo
)

var (
	imageExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".bmp": true, ".heic": true, ".svg": true}
	videoExt = map[string]bool{".mp4": true, ".mov": true, ".webm": true, ".m4v": true, ".avi": true, ".mkv": true}
)

// mediaKind classifies a URL by extension, ignoring the query string
func mediaKind(raw string) kind {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	switch {
	case imageExt[ext]:
		return kindImage
	case videoExt[ext]:
		return kindVideo
	}
	return kindOther
}

func declared(entries []models.SchemaEntry, aliases []string, typ notion.PropertyType) (string, bool) {
	for _, alias := range aliases {
		for _, e := range entries {
			if e.Name == alias && e.Type == string(typ) {
				return e.Name, true
			}
		}
	}
	return "", false
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
