// Package persistence defines the blueprint storage contract and its
// standardized error types. The compiler core never touches storage
// itself; callers hand it blueprints loaded through these repositories.
package persistence

import (
	"context"
	"errors"

	"github.com/waflow/waflow/pkg/models"
)

var (
	// ErrBlueprintNotFound indicates no blueprint exists for the given
	// bot/id pair.
	ErrBlueprintNotFound = errors.New("blueprint not found")

	// ErrBlueprintAlreadyExists indicates an id collision on save.
	ErrBlueprintAlreadyExists = errors.New("blueprint already exists")
)

// BlueprintRepository is a key-value store of blueprints, keyed by bot id
// and blueprint id.
type BlueprintRepository interface {
	Save(ctx context.Context, bp *models.Blueprint) error
	GetByID(ctx context.Context, botID, id string) (*models.Blueprint, error)
	ListByBot(ctx context.Context, botID string) ([]*models.Blueprint, error)
	Delete(ctx context.Context, botID, id string) error
}

// Persistence bundles the repositories behind one lifecycle.
type Persistence interface {
	BlueprintRepository() BlueprintRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// IsBlueprintNotFound reports whether the error chain contains
// ErrBlueprintNotFound.
func IsBlueprintNotFound(err error) bool {
	return errors.Is(err, ErrBlueprintNotFound)
}
