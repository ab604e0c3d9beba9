package auditRepo

import (
	"context"

	"babyspa/models"
)

// Repository is the append-only activity log contract.
type Repository interface {
	Record(ctx context.Context, event models.AuditEvent) error
}
