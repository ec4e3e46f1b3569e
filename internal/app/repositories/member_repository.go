package repositories

import (
	"context"

	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/app/normalizer"
	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/notion"
)

// MemberRepository reads the members collection
type MemberRepository struct {
	api          notion.API
	collectionID string
	limits       QueryLimits
	normalizer   *normalizer.Normalizer
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(api notion.API, collectionID string, limits QueryLimits, norm *normalizer.Normalizer) *MemberRepository {
	return &MemberRepository{
		api:          api,
		collectionID: collectionID,
		limits:       limits,
		normalizer:   norm,
	}
}

// CollectionID returns the configured members collection id
func (r *MemberRepository) CollectionID() string {
	return r.collectionID
}

// GetAll retrieves all members in provider order
func (r *MemberRepository) GetAll(ctx context.Context) ([]models.Member, error) {
	if r.collectionID == "" {
		return nil, apperrors.NewConfigurationError("members collection id is not configured")
	}

	rows, err := queryAll(ctx, r.api, r.collectionID, notion.DatabaseQuery{}, r.limits)
	if err != nil {
		return nil, wrapProviderError("list members", err)
	}

	members := make([]models.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, r.normalizer.NormalizeMember(row))
	}
	return members, nil
}

// GetByID retrieves one member
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*models.Member, error) {
	members, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if notion.SameID(members[i].ID, id) {
			return &members[i], nil
		}
	}
	return nil, apperrors.NewCustomError(apperrors.ErrMemberNotFound, "member "+id+" not found")
}

// FindByName returns the first member whose display name normalizes to the same key
func (r *MemberRepository) FindByName(ctx context.Context, name string) (*models.Member, []models.Member, error) {
	members, err := r.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	for i := range members {
		if normalizer.SameName(members[i].DisplayName, name) {
			return &members[i], members, nil
		}
	}
	return nil, members, nil
}
