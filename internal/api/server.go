package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sidegig/internal/config"
	"sidegig/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PersistFunc saves the current game state. The server calls it after every
// mutating request; failures are logged, never surfaced to the client.
type PersistFunc func(ctx context.Context) error

type Server struct {
	cfg     config.APIConfig
	log     *slog.Logger
	engine  *game.Engine
	persist PersistFunc
	mux     *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, engine *game.Engine, persist PersistFunc) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		engine:  engine,
		persist: persist,
		mux:     chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/categories", s.handleCategories)
		r.Get("/definitions", s.handleDefinitions)
		r.Get("/audits", s.handleAudits)

		r.Get("/offers", s.handleOffers)
		r.Post("/offers/{id}/claim", s.handleClaim)
		r.Post("/offers/release", s.handleRelease)
		r.Get("/claimed", s.handleClaimed)

		r.Get("/instances", s.handleActiveInstances)
		r.Get("/definitions/{id}/instances", s.handleInstances)
		r.Post("/instances/accept", s.handleAccept)
		r.Post("/instances/{id}/log", s.handleLogHours)
		r.Post("/instances/{id}/complete", s.handleComplete)
		r.Post("/instances/{id}/reset", s.handleReset)
		r.Post("/instances/{id}/abandon", s.handleAbandon)

		r.Post("/day/end", s.handleEndDay)
	})
}

func (s *Server) persistState(ctx context.Context) {
	if s.persist == nil {
		return
	}
	if err := s.persist(ctx); err != nil {
		s.log.Error("persist state", "error", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"day":     snapshot.CurrentDay(),
		"money":   snapshot.Money,
		"log":     snapshot.Log,
		"metrics": snapshot.Metrics,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.engine.Categories()})
}

func (s *Server) handleDefinitions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"definitions": s.engine.Registry().All()})
}

func (s *Server) handleAudits(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"audits": s.engine.RollAudits()})
}

func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "category query parameter is required")
		return
	}
	s.engine.EnsureOffers(category)
	offers := s.engine.Offers(category, game.OfferQuery{
		IncludeUpcoming: r.URL.Query().Get("upcoming") == "1",
		IncludeClaimed:  r.URL.Query().Get("claimed") == "1",
	})
	writeJSON(w, http.StatusOK, map[string]any{"offers": offers})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	offerID := chi.URLParam(r, "id")
	var in struct {
		Category string `json:"category"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.engine.Claim(in.Category, offerID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	s.persistState(r.Context())
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Category   string `json:"category"`
		OfferID    string `json:"offerId"`
		AcceptedID string `json:"acceptedId"`
		InstanceID string `json:"instanceId"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	released, err := s.engine.Release(in.Category, game.EntryIdentifiers{
		OfferID:    in.OfferID,
		AcceptedID: in.AcceptedID,
		InstanceID: in.InstanceID,
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	s.persistState(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"released": released})
}

func (s *Server) handleClaimed(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "category query parameter is required")
		return
	}
	entries := s.engine.Claimed(category, game.EntryQuery{
		IncludeExpired:   r.URL.Query().Get("expired") == "1",
		IncludeCompleted: r.URL.Query().Get("completed") == "1",
	})
	writeJSON(w, http.StatusOK, map[string]any{"claimed": entries})
}

func (s *Server) handleActiveInstances(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"instances": s.engine.ActiveInstances()})
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	definitionID := chi.URLParam(r, "id")
	if s.engine.Registry().Definition(definitionID) == nil {
		writeError(w, http.StatusNotFound, game.ErrDefinitionNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": s.engine.Instances(definitionID)})
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	var in struct {
		DefinitionID  string   `json:"definitionId"`
		Name          string   `json:"name"`
		HoursRequired *float64 `json:"hoursRequired"`
		DeadlineDay   *int     `json:"deadlineDay"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	instance, err := s.engine.Accept(in.DefinitionID, game.AcceptOverrides{
		Name:          in.Name,
		HoursRequired: in.HoursRequired,
		DeadlineDay:   in.DeadlineDay,
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	s.persistState(r.Context())
	writeJSON(w, http.StatusCreated, instance)
}

func (s *Server) handleLogHours(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "id")
	var in struct {
		DefinitionID string  `json:"definitionId"`
		Hours        float64 `json:"hours"`
		Day          *int    `json:"day"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Hours <= 0 {
		writeError(w, http.StatusBadRequest, "hours must be positive")
		return
	}
	result, err := s.engine.LogHours(in.DefinitionID, instanceID, in.Day, in.Hours)
	if err != nil {
		writeGameError(w, err)
		return
	}
	s.persistState(r.Context())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "id")
	var in struct {
		DefinitionID   string   `json:"definitionId"`
		CompletionDay  *int     `json:"completionDay"`
		EffectiveHours *float64 `json:"effectiveHours"`
		FinalPayout    *float64 `json:"finalPayout"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	instance, err := s.engine.Complete(in.DefinitionID, instanceID, &game.CompletionContext{
		CompletionDay:  in.CompletionDay,
		EffectiveHours: in.EffectiveHours,
		FinalPayout:    in.FinalPayout,
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	s.persistState(r.Context())
	writeJSON(w, http.StatusOK, instance)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "id")
	var in struct {
		DefinitionID    string `json:"definitionId"`
		ClearCompletion bool   `json:"clearCompletion"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	instance, err := s.engine.Reset(in.DefinitionID, instanceID, in.ClearCompletion)
	if err != nil {
		writeGameError(w, err)
		return
	}
	s.persistState(r.Context())
	writeJSON(w, http.StatusOK, instance)
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "id")
	var in struct {
		DefinitionID string `json:"definitionId"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.engine.Abandon(in.DefinitionID, instanceID) {
		writeError(w, http.StatusNotFound, game.ErrInstanceNotFound.Error())
		return
	}
	s.persistState(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"abandoned": true})
}

func (s *Server) handleEndDay(w http.ResponseWriter, r *http.Request) {
	summary := s.engine.EndDay()
	s.persistState(r.Context())
	writeJSON(w, http.StatusOK, summary)
}

func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrOfferNotFound),
		errors.Is(err, game.ErrEntryNotFound),
		errors.Is(err, game.ErrInstanceNotFound),
		errors.Is(err, game.ErrDefinitionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrOfferClaimed),
		errors.Is(err, game.ErrOfferNotOpen):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrDefinitionRequired),
		errors.Is(err, game.ErrIdentifierRequired),
		errors.Is(err, game.ErrCategoryRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
