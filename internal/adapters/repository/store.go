// Package repository persists player baselines and the decision audit trail.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/overcall/internal/domain/model"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// BaselineStore is the per-player baseline lookup keyed by player id.
type BaselineStore interface {
	// GetBaselines returns the stored baselines for the ids it knows. Unknown ids are absent.
	GetBaselines(ctx context.Context, ids []string) (map[string]model.Baseline, error)
	// GetBaseline returns ErrNotFound for an unknown id.
	GetBaseline(ctx context.Context, id string) (model.Baseline, error)
	PutBaseline(ctx context.Context, id string, b model.Baseline) error
}

// AuditRecord is the persisted trace of one advice response.
type AuditRecord struct {
	RequestID      string          `json:"requestId"`
	CreatedAt      time.Time       `json:"createdAt"`
	Intent         string          `json:"intent"`
	Agents         []string        `json:"agents"`
	RulesFired     []string        `json:"rulesFired"`
	RoutingSource  string          `json:"routingSource"`
	FallbackUsed   bool            `json:"fallbackUsed"`
	Action         string          `json:"action"`
	Confidence     float64         `json:"confidence"`
	DecisionSource string          `json:"decisionSource"`
	ErrorCount     int             `json:"errorCount"`
	Response       json.RawMessage `json:"response,omitempty"`
}

// AuditStore persists audit records keyed by request id.
type AuditStore interface {
	// SaveDecision returns ErrDuplicate when the request id is already stored.
	SaveDecision(ctx context.Context, rec AuditRecord) error
	// GetDecision returns ErrNotFound for an unknown id.
	GetDecision(ctx context.Context, requestID string) (AuditRecord, error)
	CountDecisions(ctx context.Context) int
}

// Store bundles both stores behind one backend.
type Store interface {
	BaselineStore
	AuditStore
	Close() error
}

// Open creates the store for a driver. path is only used by sqlite.
func Open(ctx context.Context, driver, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		return OpenSQLite(ctx, path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// key folds player ids the way the roster does.
func key(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func fromStore(b model.Baseline) model.Baseline {
	b.Source = model.BaselineFromStore
	b.Provided = false
	return b
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
