package bootstrap

import (
	"context"
	"errors"
	"strings"

	"github.com/FelipeFraul/buscai-v2-sub000/internal/migration"
	"gorm.io/gorm"
)

var ErrBootstrapStateNotFound = errors.New("system bootstrap state not found")

// loadState reads the single bootstrap row and normalizes its text fields.
func loadState(ctx context.Context, db *gorm.DB) (*migration.BootstrapState, error) {
	var state migration.BootstrapState
	err := db.WithContext(ctx).Where("id = ?", true).Take(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBootstrapStateNotFound
	}
	if err != nil {
		return nil, err
	}

	state.Status = strings.ToLower(strings.TrimSpace(state.Status))
	state.SchemaVersion = strings.TrimSpace(state.SchemaVersion)
	if state.Checksum != nil {
		trimmed := strings.TrimSpace(*state.Checksum)
		state.Checksum = &trimmed
	}
	return &state, nil
}
