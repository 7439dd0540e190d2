package tenants

import (
	"context"

	"github.com/dmitrijs2005/bizledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error)
	GetByID(ctx context.Context, id string) (*models.Tenant, error)
}
