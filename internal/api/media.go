package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier-core/internal/auth"
	"github.com/atelierhq/atelier-core/internal/content"
)

// ─── Request/Response Types ────────────────────────────────────────

type createSlotRequest struct {
	Key     string       `json:"key"`
	Kind    content.Kind `json:"kind"`
	Title   string       `json:"title"`
	URL     string       `json:"url,omitempty"`
	EmbedID string       `json:"embed_id,omitempty"`
}

type updateSlotRequest struct {
	Kind    *content.Kind `json:"kind,omitempty"`
	Title   *string       `json:"title,omitempty"`
	URL     *string       `json:"url,omitempty"`
	EmbedID *string       `json:"embed_id,omitempty"`
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleListSlots returns all media slots.
func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := s.slotRepo.List(r.Context())
	if err != nil {
		s.logger.Error("list slots failed", "error", err)
		writeInternalError(w, "failed to list slots")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"slots": slots,
		"count": len(slots),
	})
}

// handleCreateSlot creates a new media slot owned by the caller.
func (s *Server) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	claims := claimsFromContext(r.Context())

	slot := &content.Slot{
		Key:     req.Key,
		Kind:    req.Kind,
		Title:   req.Title,
		URL:     req.URL,
		EmbedID: req.EmbedID,
		OwnerID: claims.Subject,
	}

	if err := s.slotRepo.Create(r.Context(), slot); err != nil {
		switch {
		case errors.Is(err, content.ErrKeyExists):
			writeConflict(w, "slot key already exists")
		case isSlotValidationError(err):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("create slot failed", "error", err)
			writeInternalError(w, "failed to create slot")
		}
		return
	}

	s.logger.Info("slot created", "slot_id", slot.ID, "key", slot.Key, "owner", claims.Subject)
	s.auditLog("create", "slot", slot.ID, claims.Subject, map[string]any{
		"key":  slot.Key,
		"kind": slot.Kind,
	})

	writeJSON(w, http.StatusCreated, slot)
}

// handleGetSlot returns a single slot by key.
func (s *Server) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	slot, err := s.slotRepo.GetByKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, content.ErrSlotNotFound) {
			writeNotFound(w, "slot not found")
			return
		}
		s.logger.Error("get slot failed", "error", err)
		writeInternalError(w, "failed to get slot")
		return
	}

	writeJSON(w, http.StatusOK, slot)
}

// handleUpdateSlot replaces a slot's content fields.
//
// Editors may only touch slots they own; admins and above may touch any
// slot. The ownership rule lives in auth.CanAccessResource.
func (s *Server) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	claims := claimsFromContext(r.Context())

	slot, err := s.slotRepo.GetByKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, content.ErrSlotNotFound) {
			writeNotFound(w, "slot not found")
			return
		}
		s.logger.Error("get slot for update failed", "error", err)
		writeInternalError(w, "failed to update slot")
		return
	}

	if !auth.CanAccessResource(claims.Role, auth.PermMediaUpdate, slot.OwnerID, claims.Subject) {
		writeForbidden(w, "cannot modify a slot owned by another user")
		return
	}

	var req updateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Kind != nil {
		slot.Kind = *req.Kind
	}
	if req.Title != nil {
		slot.Title = *req.Title
	}
	if req.URL != nil {
		slot.URL = *req.URL
	}
	if req.EmbedID != nil {
		slot.EmbedID = *req.EmbedID
	}
	slot.UpdatedBy = claims.Subject

	if err := s.slotRepo.Update(r.Context(), slot); err != nil {
		if isSlotValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("update slot failed", "error", err)
		writeInternalError(w, "failed to update slot")
		return
	}

	s.logger.Info("slot updated", "slot_id", slot.ID, "key", slot.Key, "updated_by", claims.Subject)
	s.auditLog("update", "slot", slot.ID, claims.Subject, map[string]any{
		"key": slot.Key,
	})

	writeJSON(w, http.StatusOK, slot)
}

// handleDeleteSlot removes a slot.
func (s *Server) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	claims := claimsFromContext(r.Context())

	slot, err := s.slotRepo.GetByKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, content.ErrSlotNotFound) {
			writeNotFound(w, "slot not found")
			return
		}
		s.logger.Error("get slot for delete failed", "error", err)
		writeInternalError(w, "failed to delete slot")
		return
	}

	if err := s.slotRepo.Delete(r.Context(), slot.ID); err != nil {
		s.logger.Error("delete slot failed", "error", err)
		writeInternalError(w, "failed to delete slot")
		return
	}

	s.logger.Info("slot deleted", "slot_id", slot.ID, "key", slot.Key, "deleted_by", claims.Subject)
	s.auditLog("delete", "slot", slot.ID, claims.Subject, map[string]any{
		"key": slot.Key,
	})

	w.WriteHeader(http.StatusNoContent)
}

// isSlotValidationError reports whether err is one of the slot's
// structural validation failures (safe to echo to the client).
func isSlotValidationError(err error) bool {
	return errors.Is(err, content.ErrInvalidKey) ||
		errors.Is(err, content.ErrInvalidKind) ||
		errors.Is(err, content.ErrMissingTitle) ||
		errors.Is(err, content.ErrMissingURL) ||
		errors.Is(err, content.ErrMissingEmbedID)
}
