package repository

import (
	"context"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// TemplateRepositoryInterface defines the interface for enrolled template storage
type TemplateRepositoryInterface interface {
	Create(ctx context.Context, t *domain.Template) error
	GetByExternalID(ctx context.Context, externalID string) (*domain.Template, error)
	Replace(ctx context.Context, t *domain.Template) error
	Delete(ctx context.Context, externalID string) error
}

// VerificationRepositoryInterface defines the interface for session outcome records
type VerificationRepositoryInterface interface {
	Create(ctx context.Context, v *domain.Verification) error
	ListByExternalID(ctx context.Context, externalID string, limit int) ([]*domain.Verification, error)
}

var (
	_ TemplateRepositoryInterface     = (*TemplateRepository)(nil)
	_ VerificationRepositoryInterface = (*VerificationRepository)(nil)
)
