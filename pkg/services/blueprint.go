package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/waflow/waflow/pkg/advisor"
	"github.com/waflow/waflow/pkg/graph"
	"github.com/waflow/waflow/pkg/injector"
	"github.com/waflow/waflow/pkg/library"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence"
	"github.com/waflow/waflow/pkg/validator"
)

// Blueprint orchestrates the compilation pipeline (shape validation,
// structural analysis, injection) and blueprint storage.
type Blueprint struct {
	library     *library.Library
	validator   *validator.Validator
	injector    *injector.Engine
	advisor     *advisor.Advisor
	persistence persistence.Persistence
	logger      *slog.Logger
}

// NewBlueprint wires the pipeline over one node library. The library
// instance is shared by reference; it is read-only after load.
func NewBlueprint(lib *library.Library, store persistence.Persistence, logger *slog.Logger) *Blueprint {
	if logger == nil {
		logger = slog.Default()
	}

	return &Blueprint{
		library:     lib,
		validator:   validator.New(lib),
		injector:    injector.NewEngine(injector.WithLogger(logger)),
		advisor:     advisor.New(lib),
		persistence: store,
		logger:      logger,
	}
}

// Library returns the node library backing this service.
func (s *Blueprint) Library() *library.Library {
	return s.library
}

// Advisor returns the recommendation advisor backing this service.
func (s *Blueprint) Advisor() *advisor.Advisor {
	return s.advisor
}

// Analyzer returns the structural analyzer backing this service.
func (s *Blueprint) Analyzer() *graph.Analyzer {
	return s.validator.Analyzer()
}

// HealthCheck checks the health of the persistence layer.
func (s *Blueprint) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Compile runs shape validation and structural analysis, collecting every
// error and warning in one pass. A failing blueprint is an ordinary
// outcome, reported through the result rather than an error.
func (s *Blueprint) Compile(_ context.Context, bp *models.Blueprint) (*models.ValidationResult, error) {
	if bp == nil {
		return nil, ErrBlueprintNil
	}

	result := s.validator.ValidateBlueprint(bp)

	s.logger.Debug("compiled blueprint",
		"bot_id", bp.BotID,
		"valid", result.Valid,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings))

	return result, nil
}

// IsExecutable is the binary pre-flight gate used before Prepare.
func (s *Blueprint) IsExecutable(bp *models.Blueprint) bool {
	if bp == nil {
		return false
	}

	return s.validator.Analyzer().IsExecutable(bp)
}

// Prepare validates the blueprint, gates on executability and resolves
// every token against the supplied injection context. On success the
// returned blueprint is ready for the external execution engine; on
// injection failure nothing is partially substituted.
func (s *Blueprint) Prepare(ctx context.Context, bp *models.Blueprint, injCtx *models.InjectionContext) (*models.Blueprint, *models.ValidationResult, error) {
	result, err := s.Compile(ctx, bp)
	if err != nil {
		return nil, nil, err
	}

	if !result.Valid {
		return nil, result, NewValidationError("Prepare", "BLUEPRINT_INVALID",
			fmt.Sprintf("blueprint has %d validation error(s)", len(result.Errors)), ErrBlueprintInvalid)
	}

	if !s.IsExecutable(bp) {
		return nil, result, NewValidationError("Prepare", "NOT_EXECUTABLE",
			"blueprint needs a trigger and at least one reply or outbound node", ErrBlueprintNotRunnable)
	}

	injected, err := s.injector.InjectBlueprint(bp, injCtx)
	if err != nil {
		return nil, result, fmt.Errorf("injection failed: %w", err)
	}

	return injected, result, nil
}

// Create persists a new blueprint. Invalid blueprints are persisted too,
// since editing is iterative; only Prepare gates on validity.
func (s *Blueprint) Create(ctx context.Context, bp *models.Blueprint) (*models.Blueprint, error) {
	if bp == nil {
		return nil, ErrBlueprintNil
	}

	if bp.BotID == "" {
		return nil, ErrBotIDRequired
	}

	if bp.Name == "" {
		return nil, ErrBlueprintNameRequired
	}

	now := time.Now().UTC()
	bp.ID = uuid.New().String()
	bp.CreatedAt = now
	bp.UpdatedAt = now

	if bp.Version == "" {
		bp.Version = "1"
	}

	if err := s.persistence.BlueprintRepository().Save(ctx, bp); err != nil {
		return nil, fmt.Errorf("failed to create blueprint: %w", err)
	}

	return bp, nil
}

// FetchByID retrieves a blueprint by bot and blueprint id.
func (s *Blueprint) FetchByID(ctx context.Context, botID, id string) (*models.Blueprint, error) {
	return s.persistence.BlueprintRepository().GetByID(ctx, botID, id)
}

// ListByBot retrieves every blueprint stored for a bot.
func (s *Blueprint) ListByBot(ctx context.Context, botID string) ([]*models.Blueprint, error) {
	if botID == "" {
		return nil, ErrBotIDRequired
	}

	return s.persistence.BlueprintRepository().ListByBot(ctx, botID)
}

// Update replaces an existing blueprint, preserving identity and creation
// time.
func (s *Blueprint) Update(ctx context.Context, botID, id string, bp *models.Blueprint) (*models.Blueprint, error) {
	if bp == nil {
		return nil, ErrBlueprintNil
	}

	existing, err := s.persistence.BlueprintRepository().GetByID(ctx, botID, id)
	if err != nil {
		return nil, err
	}

	bp.ID = existing.ID
	bp.BotID = existing.BotID
	bp.CreatedAt = existing.CreatedAt
	bp.UpdatedAt = time.Now().UTC()

	if err := s.persistence.BlueprintRepository().Save(ctx, bp); err != nil {
		return nil, fmt.Errorf("failed to update blueprint: %w", err)
	}

	return bp, nil
}

// Delete removes a blueprint.
func (s *Blueprint) Delete(ctx context.Context, botID, id string) error {
	return s.persistence.BlueprintRepository().Delete(ctx, botID, id)
}
