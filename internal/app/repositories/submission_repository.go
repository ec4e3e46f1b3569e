package repositories

import (
	"context"

	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/notion"
)

var newestFirst = []notion.Sort{{Timestamp: notion.TimestampCreated, Direction: notion.SortDescending}}

// SubmissionRepository reads and writes the submissions collection.
// Rows are returned raw because association needs every property, not just the known ones.
type SubmissionRepository struct {
	api          notion.API
	collectionID string
	limits       QueryLimits
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(api notion.API, collectionID string, limits QueryLimits) *SubmissionRepository {
	return &SubmissionRepository{
		api:          api,
		collectionID: collectionID,
		limits:       limits,
	}
}

// CollectionID returns the configured submissions collection id
func (r *SubmissionRepository) CollectionID() string {
	return r.collectionID
}

// GetByRelation retrieves rows whose relation property contains memberID, newest first
func (r *SubmissionRepository) GetByRelation(ctx context.Context, property, memberID string) ([]notion.Page, error) {
	return r.query(ctx, "query submissions by relation", notion.DatabaseQuery{
		Filter: &notion.Filter{Property: property, Relation: &notion.RelationFilter{Contains: memberID}},
		Sorts:  newestFirst,
	}, r.limits)
}

// GetAll retrieves every row, newest first
func (r *SubmissionRepository) GetAll(ctx context.Context) ([]notion.Page, error) {
	return r.query(ctx, "query submissions", notion.DatabaseQuery{Sorts: newestFirst}, r.limits)
}

// GetRecent retrieves at most limit rows, newest first
func (r *SubmissionRepository) GetRecent(ctx context.Context, limit int) ([]notion.Page, error) {
	limits := r.limits
	limits.MaxRows = limit
	return r.query(ctx, "query recent submissions", notion.DatabaseQuery{Sorts: newestFirst}, limits)
}

// Create writes a new row
func (r *SubmissionRepository) Create(ctx context.Context, props map[string]notion.PropertyInput) (*notion.Page, error) {
	if r.collectionID == "" {
		return nil, apperrors.NewConfigurationError("submissions collection id is not configured")
	}
	page, err := r.api.CreatePage(ctx, &notion.CreatePageRequest{
		Parent:     notion.ParentRef{DatabaseID: r.collectionID},
		Properties: props,
	})
	if err != nil {
		return nil, wrapProviderError("create submission", err)
	}
	return page, nil
}

func (r *SubmissionRepository) query(ctx context.Context, op string, q notion.DatabaseQuery, limits QueryLimits) ([]notion.Page, error) {
	if r.collectionID == "" {
		return nil, apperrors.NewConfigurationError("submissions collection id is not configured")
	}
	rows, err := queryAll(ctx, r.api, r.collectionID, q, limits)
	if err != nil {
		return nil, wrapProviderError(op, err)
	}
	return rows, nil
}
