package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// DefaultCollections are created by SeedDefaultCollections on an empty store.
var DefaultCollections = []string{"Mens", "Womens", "Kids", "Home Textiles", "Accessories"}

// CollectionInput is the payload for creating a collection.
type CollectionInput struct {
	Name         string
	Enabled      *bool
	Image        string
	OfferEnabled bool
}

// CollectionPatch carries optional collection changes. Nil fields are left unchanged.
type CollectionPatch struct {
	ID           string
	Name         *string
	Enabled      *bool
	Image        *string
	OfferEnabled *bool
	Position     *int
}

type CollectionService struct {
	repo repositories.CollectionRepository
	now  func() time.Time
}

// NewCollectionService creates a new CollectionService.
func NewCollectionService(repo repositories.CollectionRepository) *CollectionService {
	return &CollectionService{repo: repo, now: time.Now}
}

func (s *CollectionService) ListCollections(ctx context.Context, filter repositories.CollectionFilter) ([]models.Collection, error) {
	collections, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collections: %w", err)
	}
	return collections, nil
}

// GetCollectionByName resolves a URL slug such as "home-textiles".
func (s *CollectionService) GetCollectionByName(ctx context.Context, slug string) (*models.Collection, error) {
	normalized := models.NormalizeCollectionName(strings.ReplaceAll(slug, "-", " "))
	collection, err := s.repo.GetByNormalizedName(ctx, normalized)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "Collection not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection: %w", err)
	}
	return collection, nil
}

func (s *CollectionService) CreateCollection(ctx context.Context, in CollectionInput) (*models.Collection, error) {
	normalized := models.NormalizeCollectionName(in.Name)
	if normalized == "" {
		return nil, newError(ErrValidation, "Collection name is required")
	}
	if _, err := s.repo.GetByNormalizedName(ctx, normalized); err == nil {
		return nil, newError(ErrConflict, "Collection already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check collection: %w", err)
	}

	position, err := s.repo.NextPosition(ctx)
	if err != nil {
		return nil, err
	}
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	now := s.now()
	collection := &models.Collection{
		Name:           models.DisplayCollectionName(normalized),
		NormalizedName: normalized,
		Enabled:        enabled,
		Image:          in.Image,
		OfferEnabled:   in.OfferEnabled,
		Position:       position,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, collection); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "Collection already exists")
		}
		return nil, err
	}
	return collection, nil
}

func (s *CollectionService) UpdateCollection(ctx context.Context, patch CollectionPatch) (*models.Collection, error) {
	collection, err := s.get(ctx, patch.ID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		normalized := models.NormalizeCollectionName(*patch.Name)
		if normalized == "" {
			return nil, newError(ErrValidation, "Collection name is required")
		}
		existing, err := s.repo.GetByNormalizedName(ctx, normalized)
		switch {
		case err == nil && existing.ID != collection.ID:
			return nil, newError(ErrConflict, "Collection name already exists")
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			return nil, fmt.Errorf("failed to check collection: %w", err)
		}
		collection.Name = models.DisplayCollectionName(normalized)
		collection.NormalizedName = normalized
	}
	applyCollectionPatch(collection, patch)
	return collection, s.save(ctx, collection)
}

// BulkUpdateCollections applies patches without renaming. Entries without an id or
// pointing at a missing collection are skipped.
func (s *CollectionService) BulkUpdateCollections(ctx context.Context, patches []CollectionPatch) ([]models.Collection, error) {
	if patches == nil {
		return nil, newError(ErrValidation, "Collections array is required")
	}
	updated := make([]models.Collection, 0, len(patches))
	for _, patch := range patches {
		if patch.ID == "" {
			continue
		}
		collection, err := s.repo.GetByID(ctx, patch.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch collection: %w", err)
		}
		applyCollectionPatch(collection, patch)
		if err := s.save(ctx, collection); err != nil {
			return nil, err
		}
		updated = append(updated, *collection)
	}
	return updated, nil
}

func (s *CollectionService) DeleteCollection(ctx context.Context, id string) error {
	collection, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if collection.IsDefault {
		return newError(ErrValidation, "Cannot delete default collections")
	}
	return s.repo.Delete(ctx, id)
}

func (s *CollectionService) ToggleCollection(ctx context.Context, id string) (*models.Collection, error) {
	collection, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	collection.Enabled = !collection.Enabled
	return collection, s.save(ctx, collection)
}

func (s *CollectionService) ToggleOffer(ctx context.Context, id string) (*models.Collection, error) {
	collection, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	collection.OfferEnabled = !collection.OfferEnabled
	return collection, s.save(ctx, collection)
}

// SeedDefaultCollections creates the default collections. It refuses to run when any
// collection already exists.
func (s *CollectionService) SeedDefaultCollections(ctx context.Context) ([]models.Collection, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, newError(ErrValidation, "Collections already exist. Clear database first if you want to reseed.")
	}
	now := s.now()
	seeded := make([]*models.Collection, len(DefaultCollections))
	for i, name := range DefaultCollections {
		seeded[i] = &models.Collection{
			Name:           name,
			NormalizedName: models.NormalizeCollectionName(name),
			Enabled:        true,
			IsDefault:      true,
			Position:       i,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}
	if err := s.repo.Create(ctx, seeded...); err != nil {
		return nil, err
	}
	out := make([]models.Collection, len(seeded))
	for i, c := range seeded {
		out[i] = *c
	}
	return out, nil
}

func (s *CollectionService) get(ctx context.Context, id string) (*models.Collection, error) {
	collection, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "Collection not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection: %w", err)
	}
	return collection, nil
}

func (s *CollectionService) save(ctx context.Context, collection *models.Collection) error {
	collection.UpdatedAt = s.now()
	err := s.repo.Update(ctx, collection)
	switch {
	case errors.Is(err, repositories.ErrDuplicate):
		return newError(ErrConflict, "Collection name already exists")
	case errors.Is(err, repositories.ErrNotFound):
		return newError(ErrNotFound, "Collection not found")
	}
	return err
}

func applyCollectionPatch(c *models.Collection, patch CollectionPatch) {
	if patch.Enabled != nil {
		c.Enabled = *patch.Enabled
	}
	if patch.Image != nil {
		c.Image = *patch.Image
	}
	if patch.OfferEnabled != nil {
		c.OfferEnabled = *patch.OfferEnabled
	}
	if patch.Position != nil {
		c.Position = *patch.Position
	}
}
