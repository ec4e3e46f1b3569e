package services

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/app/normalizer"
	"github.com/yigit/practicelog/internal/app/repositories"
	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/logger"
	"github.com/yigit/practicelog/internal/pkg/metrics"
	"github.com/yigit/practicelog/internal/pkg/notion"
)

// Association tiers
const (
	TierRelation         = "relation"
	TierRelationFallback = "relation_fallback"
	TierScan             = "scan"
)

// MediaExtractor walks a row's content tree for media
type MediaExtractor interface {
	ExtractMedia(ctx context.Context, rootID string, maxDepth, maxItems int) ([]string, error)
}

// AssociationOptions tunes listing and media enrichment
type AssociationOptions struct {
	MaxDepth    int
	MaxItems    int
	Concurrency int  // Concurrent content tree walks per listing
	OrphanSweep bool // After a relation hit, also include unlinked rows with a matching name
}

// associationEngine links submissions to a member through three strategies:
// relation-filtered query, relation present but empty, and no relation at all.
type associationEngine struct {
	relations   *repositories.RelationResolver
	submissions *repositories.SubmissionRepository
	normalizer  *normalizer.Normalizer
	media       MediaExtractor
	opts        AssociationOptions
	logger      zerolog.Logger
}

func newAssociationEngine(
	relations *repositories.RelationResolver,
	submissions *repositories.SubmissionRepository,
	norm *normalizer.Normalizer,
	media MediaExtractor,
	opts AssociationOptions,
	lgr zerolog.Logger,
) *associationEngine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 16
	}
	return &associationEngine{
		relations:   relations,
		submissions: submissions,
		normalizer:  norm,
		media:       media,
		opts:        opts,
		logger:      logger.Component(lgr, "association"),
	}
}

// listForMember returns the member's submissions, newest first.
// Configuration errors are returned; provider failures while probing a tier move on to the next one.
func (e *associationEngine) listForMember(ctx context.Context, member models.Member) ([]models.Submission, error) {
	property, found, err := e.relations.FindParentRelationProperty(ctx)
	if err != nil {
		if apperrors.IsConfiguration(err) {
			return nil, err
		}
		e.logger.Warn().Err(err).Msg("Relation resolution failed, scanning all submissions")
		found = false
	}

	var (
		rows []notion.Page
		tier string
	)
	if found {
		rows, tier, err = e.relationTiers(ctx, member, property)
	} else {
		tier = TierScan
		rows, err = e.scan(ctx, member)
	}
	if err != nil {
		return nil, err
	}

	metrics.AssociationTier(tier)
	subs := e.enrich(ctx, rows)
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewProviderError("list submissions", err)
	}

	e.logger.Info().
		Str("tier", tier).
		Str("memberId", member.ID).
		Str("relationProperty", property).
		Int("matched", len(subs)).
		Msg("Submissions associated")
	return subs, nil
}

// relationTiers runs the relation-filtered query, falling back to name matching when it finds nothing
func (e *associationEngine) relationTiers(ctx context.Context, member models.Member, property string) ([]notion.Page, string, error) {
	linked, err := e.submissions.GetByRelation(ctx, property, member.ID)
	if err != nil {
		if apperrors.IsConfiguration(err) {
			return nil, "", err
		}
		e.logger.Warn().Err(err).Str("relationProperty", property).Msg("Relation-filtered query failed")
		linked = nil
	}

	if len(linked) > 0 {
		e.logger.Debug().Str("tier", TierRelation).Int("raw", len(linked)).Msg("Relation-filtered query matched")
		if !e.opts.OrphanSweep {
			return linked, TierRelation, nil
		}
		return e.sweepOrphans(ctx, member, property, linked), TierRelation, nil
	}

	e.logger.Warn().Err(apperrors.ErrAmbiguousSchema).
		Str("relationProperty", property).
		Str("memberId", member.ID).
		Msg("Relation property declared but no row references this member, matching by name")

	all, err := e.submissions.GetAll(ctx)
	if err != nil {
		return nil, "", err
	}
	matched := make([]notion.Page, 0)
	for _, row := range all {
		if normalizer.SameName(e.normalizer.SubmissionTitle(row), member.DisplayName) {
			matched = append(matched, row)
		}
	}
	e.logger.Debug().Str("tier", TierRelationFallback).Int("raw", len(all)).Int("matched", len(matched)).Msg("Name fallback applied")
	return matched, TierRelationFallback, nil
}

// sweepOrphans appends rows with an empty relation whose name matches the member.
// Rows linked to any other member stay excluded.
func (e *associationEngine) sweepOrphans(ctx context.Context, member models.Member, property string, linked []notion.Page) []notion.Page {
	all, err := e.submissions.GetAll(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Orphan sweep skipped")
		return linked
	}

	seen := make(map[string]struct{}, len(linked))
	for _, row := range linked {
		seen[row.ID] = struct{}{}
	}

	merged := append([]notion.Page{}, linked...)
	orphans := 0
	for _, row := range all {
		if _, ok := seen[row.ID]; ok {
			continue
		}
		if v, ok := row.Property(property); ok && len(v.Relation) > 0 {
			continue
		}
		if normalizer.SameName(e.normalizer.SubmissionTitle(row), member.DisplayName) {
			merged = append(merged, row)
			orphans++
		}
	}
	if orphans > 0 {
		e.logger.Debug().Int("orphans", orphans).Msg("Unlinked submissions matched by name")
		sortNewestFirst(merged)
	}
	return merged
}

// scan matches rows by any relation property containing the member, or by name
func (e *associationEngine) scan(ctx context.Context, member models.Member) ([]notion.Page, error) {
	all, err := e.submissions.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]notion.Page, 0)
	byRelation, byName := 0, 0
	for _, row := range all {
		rel := referencesMember(row, member.ID)
		name := normalizer.SameName(e.normalizer.SubmissionTitle(row), member.DisplayName)
		if rel {
			byRelation++
		}
		if name {
			byName++
		}
		if rel || name {
			matched = append(matched, row)
		}
	}
	e.logger.Debug().
		Str("tier", TierScan).
		Int("raw", len(all)).
		Int("byRelation", byRelation).
		Int("byName", byName).
		Int("matched", len(matched)).
		Msg("Full scan applied")
	return matched, nil
}

func referencesMember(row notion.Page, memberID string) bool {
	for _, v := range row.Properties {
		if v.Type != notion.PropertyRelation {
			continue
		}
		for _, ref := range v.Relation {
			if notion.SameID(ref.ID, memberID) {
				return true
			}
		}
	}
	return false
}

// enrich normalizes rows, walking content trees concurrently for rows without explicit media.
// A failed walk leaves that row without media.
func (e *associationEngine) enrich(ctx context.Context, rows []notion.Page) []models.Submission {
	subs := make([]models.Submission, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, row := range rows {
		i, row := i, row
		sub := e.normalizer.NormalizeSubmission(row, e.normalizer.MediaFiles(row))
		subs[i] = sub
		if len(sub.MediaURLs) > 0 || e.media == nil {
			continue
		}
		g.Go(func() error {
			urls, err := e.media.ExtractMedia(gctx, row.ID, e.opts.MaxDepth, e.opts.MaxItems)
			if err != nil {
				e.logger.Warn().Err(err).Str("submissionId", row.ID).Msg("Media extraction failed, row keeps no media")
				return nil
			}
			subs[i] = sub.WithMedia(urls)
			return nil
		})
	}
	_ = g.Wait()
	return subs
}

func sortNewestFirst(rows []notion.Page) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedTime.After(rows[j].CreatedTime)
	})
}
