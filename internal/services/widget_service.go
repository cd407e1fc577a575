// Package services contains the business logic layer for the DOB Link backend
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/hashgen"
	"github.com/dobprotocol/doblink/internal/models"
	"github.com/dobprotocol/doblink/internal/repository"
)

// maxHashRetries bounds the uniqueness-retry loop when minting a hash.
// The time+random composition makes collisions vanishingly rare, so in
// practice the first attempt wins.
const maxHashRetries = 5

// CreateWidgetParams carries the validated inputs for a new widget. Enum
// validation (theme, position) happens at the API boundary; empty values
// fall back to defaults here.
type CreateWidgetParams struct {
	TokenID           string
	ScopeID           string
	Theme             string
	Position          string
	CustomStyles      map[string]any
	PreferredCurrency string
}

// UpdateWidgetParams carries the mutable configuration of an existing
// widget. The hash, counters and creation time are immutable; embed
// artifacts are re-derived, never set directly.
type UpdateWidgetParams struct {
	Theme             string
	Position          string
	CustomStyles      map[string]any
	PreferredCurrency string
	IsActive          *bool
}

// WidgetService provides business logic for managing widgets: hash
// minting, embed artifact derivation and lifecycle.
type WidgetService struct {
	widgetRepo repository.WidgetRepository
	gen        *hashgen.Generator
	baseURL    string
	scriptURL  string
}

// NewWidgetService creates and returns a new instance of WidgetService.
func NewWidgetService(widgetRepo repository.WidgetRepository, gen *hashgen.Generator, baseURL, scriptURL string) *WidgetService {
	return &WidgetService{
		widgetRepo: widgetRepo,
		gen:        gen,
		baseURL:    baseURL,
		scriptURL:  scriptURL,
	}
}

// Create mints a widget hash, derives the embed artifacts and persists a
// new widget with zeroed counters. Hash uniqueness is verified against
// storage with a bounded retry loop; the generator alone only promises
// probabilistic uniqueness.
func (s *WidgetService) Create(params CreateWidgetParams) (*models.Widget, error) {
	if params.Theme == "" {
		params.Theme = models.ThemeDark
	}
	if params.Position == "" {
		params.Position = models.PositionBottomRight
	}

	var hash string
	for i := 0; i < maxHashRetries; i++ {
		candidate, err := s.gen.WidgetHash(params.TokenID, params.ScopeID)
		if err != nil {
			return nil, fmt.Errorf("failed to generate widget hash: %w", err)
		}
		_, err = s.widgetRepo.GetByHash(candidate)
		if err != nil {
			if errors.Is(err, customerrors.ErrWidgetNotFound) {
				hash = candidate
				break
			}
			return nil, fmt.Errorf("database error checking hash uniqueness: %w", err)
		}
		log.Printf("Widget hash '%s' already exists, retrying generation (%d/%d)...", candidate, i+1, maxHashRetries)
	}
	if hash == "" {
		return nil, customerrors.ErrHashGenerationFailed
	}

	styles, err := marshalStyles(params.CustomStyles)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	widget := &models.Widget{
		Hash:              hash,
		TokenID:           params.TokenID,
		ScopeID:           params.ScopeID,
		Theme:             params.Theme,
		Position:          params.Position,
		CustomStyles:      styles,
		PreferredCurrency: params.PreferredCurrency,
		IsActive:          true,
		CreatedAt:         now,
		LastUpdated:       now,
	}
	s.deriveEmbedArtifacts(widget)

	if err := s.widgetRepo.Create(widget); err != nil {
		return nil, fmt.Errorf("failed to create widget: %w", err)
	}
	return widget, nil
}

// Get retrieves a widget by its hash.
func (s *WidgetService) Get(hash string) (*models.Widget, error) {
	return s.widgetRepo.GetByHash(hash)
}

// List retrieves all widgets, optionally restricted to one scope.
func (s *WidgetService) List(scopeID string) ([]models.Widget, error) {
	return s.widgetRepo.List(scopeID)
}

// Update applies new presentation configuration to an existing widget and
// re-derives its embed artifacts. Counters and identity are untouched.
func (s *WidgetService) Update(hash string, params UpdateWidgetParams) (*models.Widget, error) {
	widget, err := s.widgetRepo.GetByHash(hash)
	if err != nil {
		return nil, err
	}
	if params.Theme != "" {
		widget.Theme = params.Theme
	}
	if params.Position != "" {
		widget.Position = params.Position
	}
	if params.CustomStyles != nil {
		styles, err := marshalStyles(params.CustomStyles)
		if err != nil {
			return nil, err
		}
		widget.CustomStyles = styles
	}
	if params.PreferredCurrency != "" {
		widget.PreferredCurrency = params.PreferredCurrency
	}
	if params.IsActive != nil {
		widget.IsActive = *params.IsActive
	}
	widget.LastUpdated = time.Now()
	s.deriveEmbedArtifacts(widget)

	if err := s.widgetRepo.Update(widget); err != nil {
		return nil, err
	}
	return widget, nil
}

// Delete removes a widget; the storage layer cascades its analytics rows.
func (s *WidgetService) Delete(hash string) error {
	return s.widgetRepo.Delete(hash)
}

func (s *WidgetService) deriveEmbedArtifacts(w *models.Widget) {
	w.EmbedURL = hashgen.EmbedURL(s.baseURL, w.Hash)
	w.EmbedCode = hashgen.EmbedSnippet(s.scriptURL, w.Hash, hashgen.EmbedConfig{
		TokenID:           w.TokenID,
		Theme:             w.Theme,
		Position:          w.Position,
		PreferredCurrency: w.PreferredCurrency,
	})
}

func marshalStyles(styles map[string]any) (string, error) {
	if len(styles) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(styles)
	if err != nil {
		return "", fmt.Errorf("failed to encode custom styles: %w", err)
	}
	return string(raw), nil
}
