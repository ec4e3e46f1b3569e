package repositories

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/practicelog/internal/app/normalizer"
	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/notion"
)

// Collections identifies the provider collections backing members and submissions
type Collections struct {
	MembersID     string
	SubmissionsID string
}

// QueryLimits bounds collection queries
type QueryLimits struct {
	PageSize int // Rows per provider request, at most 100
	MaxRows  int // Rows per listing across all requests
}

// Repositories holds all the repository instances
type Repositories struct {
	SchemaRepository     *SchemaRepository
	RelationResolver     *RelationResolver
	MemberRepository     *MemberRepository
	SubmissionRepository *SubmissionRepository
}

// NewRepositories initializes all repositories over one provider client
func NewRepositories(api notion.API, cols Collections, limits QueryLimits, relationName string, norm *normalizer.Normalizer, lgr zerolog.Logger) *Repositories {
	schemas := NewSchemaRepository(api, lgr)
	return &Repositories{
		SchemaRepository:     schemas,
		RelationResolver:     NewRelationResolver(schemas, cols, relationName, lgr),
		MemberRepository:     NewMemberRepository(api, cols.MembersID, limits, norm),
		SubmissionRepository: NewSubmissionRepository(api, cols.SubmissionsID, limits),
	}
}

// wrapProviderError leaves configuration errors untouched and marks everything else as a provider failure
func wrapProviderError(op string, err error) error {
	if err == nil || apperrors.IsConfiguration(err) {
		return err
	}
	return apperrors.NewProviderError(op, err)
}

// queryAll follows query cursors until the results are exhausted or maxRows is reached.
// Cursor pages depend on each other and are fetched sequentially.
func queryAll(ctx context.Context, api notion.API, databaseID string, query notion.DatabaseQuery, limits QueryLimits) ([]notion.Page, error) {
	pageSize := limits.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	maxRows := limits.MaxRows
	if maxRows <= 0 {
		maxRows = 100
	}

	var rows []notion.Page
	cursor := ""
	for {
		q := query
		q.StartCursor = cursor
		q.PageSize = min(pageSize, maxRows-len(rows))

		list, err := api.QueryDatabase(ctx, databaseID, &q)
		if err != nil {
			return nil, err
		}
		rows = append(rows, list.Results...)

		if !list.HasMore || list.NextCursor == "" || len(rows) >= maxRows {
			break
		}
		cursor = list.NextCursor
	}
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return rows, nil
}
