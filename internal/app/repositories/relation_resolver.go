package repositories

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/logger"
	"github.com/yigit/practicelog/internal/pkg/notion"
)

// RelationResolver finds the submissions property that links rows to members.
// Every call reads the schema; callers in loops must hoist it.
type RelationResolver struct {
	schemas      *SchemaRepository
	cols         Collections
	relationName string
	logger       zerolog.Logger
}

// NewRelationResolver creates a new relation resolver
func NewRelationResolver(schemas *SchemaRepository, cols Collections, relationName string, lgr zerolog.Logger) *RelationResolver {
	return &RelationResolver{
		schemas:      schemas,
		cols:         cols,
		relationName: relationName,
		logger:       logger.Component(lgr, "relation"),
	}
}

// FindParentRelationProperty returns the name of the relation property targeting the
// members collection. found is false when the schema declares none.
func (r *RelationResolver) FindParentRelationProperty(ctx context.Context) (name string, found bool, err error) {
	entries, err := r.schemas.DescribeCollection(ctx, r.cols.SubmissionsID)
	if err != nil {
		return "", false, err
	}

	// Configured localized name, unambiguous
	for _, e := range entries {
		if e.Name == r.relationName && r.targetsMembers(e) {
			return e.Name, true, nil
		}
	}

	var matches []string
	for _, e := range entries {
		if r.targetsMembers(e) {
			matches = append(matches, e.Name)
		}
	}

	switch len(matches) {
	case 0:
		r.logger.Info().Str("relationName", r.relationName).Msg("No relation property targets the members collection")
		return "", false, nil
	case 1:
	default:
		// First in provider order wins
		r.logger.Warn().Err(apperrors.ErrAmbiguousSchema).
			Strs("candidates", matches).
			Str("chosen", matches[0]).
			Msg("Multiple relation properties target the members collection")
	}
	return matches[0], true, nil
}

func (r *RelationResolver) targetsMembers(e models.SchemaEntry) bool {
	return e.Type == string(notion.PropertyRelation) && notion.SameID(e.RelationTarget, r.cols.MembersID)
}
