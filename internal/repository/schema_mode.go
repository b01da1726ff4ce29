package repository

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/destination"
	"github.com/spec-kit/helpdesk-core/internal/schema"
)

// SchemaMode identifies which physical schema generation a repository
// instance talks to.
type SchemaMode int

const (
	SchemaModeUnknown SchemaMode = iota
	SchemaModeClean
	SchemaModeLegacy
)

func (m SchemaMode) String() string {
	switch m {
	case SchemaModeClean:
		return "clean"
	case SchemaModeLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

const cleanTicketsTable = "tickets"

// SchemaDetector probes the catalog once and caches the answer for the
// lifetime of the instance. A failed probe is not cached, so a
// transient catalog error does not pin the repository to a wrong mode.
type SchemaDetector struct {
	introspector schema.Introspector
	registry     *destination.Registry
	logger       *zap.Logger

	mu   sync.Mutex
	mode SchemaMode
}

// NewSchemaDetector builds a detector over the given introspector.
func NewSchemaDetector(introspector schema.Introspector, registry *destination.Registry, logger *zap.Logger) *SchemaDetector {
	return &SchemaDetector{
		introspector: introspector,
		registry:     registry,
		logger:       logger,
		mode:         SchemaModeUnknown,
	}
}

// Mode returns the detected schema generation. Clean table present wins;
// otherwise any legacy destination table selects legacy; with neither
// present we default to clean and rely on migrations to create it.
func (d *SchemaDetector) Mode(ctx context.Context) (SchemaMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mode != SchemaModeUnknown {
		return d.mode, nil
	}

	cleanExists, err := d.introspector.TableExists(ctx, cleanTicketsTable)
	if err != nil {
		return SchemaModeUnknown, err
	}
	if cleanExists {
		d.mode = SchemaModeClean
		d.logger.Info("schema generation detected", zap.String("mode", d.mode.String()))
		return d.mode, nil
	}

	for _, table := range d.registry.Tables() {
		exists, err := d.introspector.TableExists(ctx, table)
		if err != nil {
			return SchemaModeUnknown, err
		}
		if exists {
			d.mode = SchemaModeLegacy
			d.logger.Info("schema generation detected",
				zap.String("mode", d.mode.String()), zap.String("table", table))
			return d.mode, nil
		}
	}

	d.mode = SchemaModeClean
	d.logger.Info("no ticket tables found; defaulting to clean schema")
	return d.mode, nil
}
