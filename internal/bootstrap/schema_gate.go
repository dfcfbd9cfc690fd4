package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/FelipeFraul/buscai-v2-sub000/internal/migration"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrBootstrapStateInactive = errors.New("system bootstrap state is not active")
	ErrSchemaVersionMismatch  = errors.New("schema version mismatch")
	ErrSchemaChecksumMismatch = errors.New("schema checksum mismatch")
)

// SchemaGate verifies the database was migrated with the migrations this
// binary embeds.
type SchemaGate interface {
	MustBeActive(ctx context.Context) error
}

type schemaGate struct {
	db       *gorm.DB
	manifest migration.Manifest
}

func NewSchemaGate(db *gorm.DB) (SchemaGate, error) {
	if db == nil {
		return nil, errors.New("schema gate requires database handle")
	}
	m, err := migration.LoadManifest()
	if err != nil {
		return nil, err
	}
	return &schemaGate{db: db, manifest: m}, nil
}

func (g *schemaGate) MustBeActive(ctx context.Context) error {
	state, err := loadState(ctx, g.db)
	if err != nil {
		return err
	}

	if state.Status != migration.StateActive {
		return fmt.Errorf("%w: status=%s", ErrBootstrapStateInactive, state.Status)
	}
	if want := g.manifest.SchemaVersion(); state.SchemaVersion != want {
		return fmt.Errorf("%w: state=%s expected=%s", ErrSchemaVersionMismatch, state.SchemaVersion, want)
	}
	// Rows written before checksums were recorded carry none.
	if state.Checksum != nil && *state.Checksum != "" && *state.Checksum != g.manifest.Checksum {
		return fmt.Errorf("%w: state=%s expected=%s", ErrSchemaChecksumMismatch, *state.Checksum, g.manifest.Checksum)
	}
	return nil
}

// EnforceSchemaGate fails application start when the schema is not active.
func EnforceSchemaGate(lc fx.Lifecycle, gate SchemaGate, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := gate.MustBeActive(ctx); err != nil {
				log.Error("schema gate rejected start; run `buscai migrate`", zap.Error(err))
				return err
			}
			return nil
		},
	})
}
