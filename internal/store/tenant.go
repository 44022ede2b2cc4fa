package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/raghavpatnecha/ragserve/internal/errors"
	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

// tenantService is the minimal tenant read-path the Auth middleware needs.
// Tenant CRUD proper is a collaborator concern out of this module's scope
// (§1); this only resolves an API key to a tenant.
type tenantService struct {
	db *gorm.DB
}

// NewTenantService constructs the Auth middleware's TenantService collaborator.
func NewTenantService(db *gorm.DB) interfaces.TenantService {
	return &tenantService{db: db}
}

func (t *tenantService) GetTenantByID(ctx context.Context, id string) (*types.Tenant, error) {
	var tenant types.Tenant
	err := t.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewTenantNotFoundError()
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (t *tenantService) ExtractTenantIDFromAPIKey(ctx context.Context, apiKey string) (string, error) {
	var tenant types.Tenant
	err := t.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.NewUnauthorizedError("invalid API key")
	}
	if err != nil {
		return "", err
	}
	if tenant.Status != types.TenantStatusActive {
		return "", apperrors.NewTenantInactiveError()
	}
	return tenant.ID, nil
}
