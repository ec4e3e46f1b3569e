package repositories

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/logger"
	"github.com/yigit/practicelog/internal/pkg/notion"
)

// SchemaRepository reads collection schemas from the provider.
// Results are not cached: the property set may change between deploys.
type SchemaRepository struct {
	api    notion.API
	logger zerolog.Logger
}

// NewSchemaRepository creates a new schema repository
func NewSchemaRepository(api notion.API, lgr zerolog.Logger) *SchemaRepository {
	return &SchemaRepository{
		api:    api,
		logger: logger.Component(lgr, "schema"),
	}
}

// DescribeCollection returns the declared properties of a collection in provider order
func (r *SchemaRepository) DescribeCollection(ctx context.Context, collectionID string) ([]models.SchemaEntry, error) {
	if collectionID == "" {
		return nil, apperrors.NewConfigurationError("collection id is not configured")
	}

	db, err := r.api.RetrieveDatabase(ctx, collectionID)
	if err != nil {
		r.logger.Warn().Err(err).Str("collectionId", collectionID).Msg("Failed to retrieve collection schema")
		return nil, wrapProviderError("describe collection", err)
	}

	entries := make([]models.SchemaEntry, 0, len(db.Properties))
	for _, p := range db.Properties {
		entry := models.SchemaEntry{Name: p.Name, Type: string(p.Type), ID: p.ID}
		if p.Relation != nil {
			entry.RelationTarget = p.Relation.DatabaseID
		}
		entries = append(entries, entry)
	}
	r.logger.Debug().Str("collectionId", collectionID).Int("properties", len(entries)).Msg("Collection schema retrieved")
	return entries, nil
}
