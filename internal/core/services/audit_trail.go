// internal/core/services/audit_trail.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

const (
	defaultAuditLimit = 500
	maxAuditLimit     = 10000
)

// AuditTrail writes the audit twin of every inventory row mutation
type AuditTrail struct {
	reader ports.AuditReader
	host   string
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.AuditTrailService = (*AuditTrail)(nil)

// NewAuditTrail creates the audit trail. The host name is resolved once.
func NewAuditTrail(reader ports.AuditReader, logger *slog.Logger) *AuditTrail {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = domain.UnknownPrincipal
	}
	return &AuditTrail{
		reader: reader,
		host:   host,
		now:    time.Now,
		logger: logger.With(slog.String("service", "audit")),
	}
}

// Record appends the audit record for change through the caller's transaction-scoped store.
// An error here must abort the caller's transaction.
func (a *AuditTrail) Record(ctx context.Context, store ports.AuditStore, change domain.StockChange) error {
	rec := change.ToRecord(PrincipalFromContext(ctx), a.host, a.now().UTC())
	if err := store.Append(ctx, rec); err != nil {
		return fmt.Errorf("failed to append audit record for %s: %w", change.After.Pair(), err)
	}

	a.logger.DebugContext(ctx, "audit record appended",
		slog.String("action", string(rec.Action)),
		slog.String("pair", change.After.Pair().String()))

	return nil
}

// History lists audit records, newest first
func (a *AuditTrail) History(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditLimit
	}
	if filter.Limit > maxAuditLimit {
		filter.Limit = maxAuditLimit
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: to %s is before from %s", domain.ErrInvalidAuditFilter, filter.To.Format(time.RFC3339), filter.From.Format(time.RFC3339))
	}

	records, err := a.reader.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	return records, nil
}

// PrincipalFromContext returns the acting user placed in ctx by the transport, if any
func PrincipalFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(logger.ContextKeyUserID).(string); ok && v != "" {
		return v
	}
	return domain.UnknownPrincipal
}
