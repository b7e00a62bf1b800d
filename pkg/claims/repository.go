package claims

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("claim not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Claim{})
}

func (r *Repository) Create(ctx context.Context, claim *Claim) error {
	claim.CreatedAt = time.Now().UTC()
	claim.UpdatedAt = claim.CreatedAt
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *Repository) Get(ctx context.Context, id string) (*Claim, error) {
	var claim Claim
	result := r.db.WithContext(ctx).First(&claim, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &claim, result.Error
}

// GetByClaimID looks a claim up by its public FRA identifier.
func (r *Repository) GetByClaimID(ctx context.Context, claimID string) (*Claim, error) {
	var claim Claim
	result := r.db.WithContext(ctx).First(&claim, "claim_id = ?", claimID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &claim, result.Error
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Claim{}, "id = ?", id).Error
}

func (r *Repository) List(ctx context.Context) ([]Claim, error) {
	var claims []Claim
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&claims).Error
	return claims, err
}
