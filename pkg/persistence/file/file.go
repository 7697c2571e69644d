// Package file provides file-based blueprint persistence. Blueprints are
// stored as one JSON document per blueprint under the data root.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local filesystem.
type Persistence struct {
	root string
	repo *BlueprintRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root: cleanRoot,
		repo: NewBlueprintRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup; nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the data root exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// BlueprintRepository returns the file-backed repository.
func (p *Persistence) BlueprintRepository() persistence.BlueprintRepository {
	return p.repo
}

// BlueprintRepository stores blueprints as JSON documents under
// <root>/blueprints/<bot_id>/<id>.json.
type BlueprintRepository struct {
	root string
}

// NewBlueprintRepository creates a repository rooted at the given directory.
func NewBlueprintRepository(root string) *BlueprintRepository {
	return &BlueprintRepository{root: root}
}

func (r *BlueprintRepository) botDir(botID string) string {
	return filepath.Join(r.root, "blueprints", botID)
}

func (r *BlueprintRepository) path(botID, id string) string {
	return filepath.Join(r.botDir(botID), id+".json")
}

// Save writes the blueprint document, creating directories as needed.
func (r *BlueprintRepository) Save(_ context.Context, bp *models.Blueprint) error {
	if err := os.MkdirAll(r.botDir(bp.BotID), 0o755); err != nil {
		return fmt.Errorf("failed to create blueprint directory: %w", err)
	}

	data, err := json.MarshalIndent(bp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode blueprint %s: %w", bp.ID, err)
	}

	if err := os.WriteFile(r.path(bp.BotID, bp.ID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write blueprint %s: %w", bp.ID, err)
	}

	return nil
}

// GetByID loads one blueprint document.
func (r *BlueprintRepository) GetByID(_ context.Context, botID, id string) (*models.Blueprint, error) {
	data, err := os.ReadFile(r.path(botID, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrBlueprintNotFound
		}

		return nil, fmt.Errorf("failed to read blueprint %s: %w", id, err)
	}

	var bp models.Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("failed to decode blueprint %s: %w", id, err)
	}

	return &bp, nil
}

// ListByBot loads every blueprint stored for the bot, in file order.
func (r *BlueprintRepository) ListByBot(ctx context.Context, botID string) ([]*models.Blueprint, error) {
	entries, err := fs.Glob(os.DirFS(r.botDir(botID)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list blueprints for bot %s: %w", botID, err)
	}

	blueprints := make([]*models.Blueprint, 0, len(entries))

	for _, entry := range entries {
		id := strings.TrimSuffix(entry, ".json")

		bp, err := r.GetByID(ctx, botID, id)
		if err != nil {
			if errors.Is(err, persistence.ErrBlueprintNotFound) {
				continue
			}

			return nil, err
		}

		blueprints = append(blueprints, bp)
	}

	return blueprints, nil
}

// Delete removes one blueprint document.
func (r *BlueprintRepository) Delete(_ context.Context, botID, id string) error {
	err := os.Remove(r.path(botID, id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.ErrBlueprintNotFound
		}

		return fmt.Errorf("failed to delete blueprint %s: %w", id, err)
	}

	return nil
}
