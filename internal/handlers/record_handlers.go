package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/legatera/legatera/internal/middleware"
	"github.com/legatera/legatera/internal/models"
	"github.com/legatera/legatera/internal/store"
)

type RecordHandlers struct {
	store  store.Store
	logger *logrus.Logger
}

func NewRecordHandlers(s store.Store, logger *logrus.Logger) *RecordHandlers {
	return &RecordHandlers{
		store:  s,
		logger: logger,
	}
}

type CreateTrusteeRequest struct {
	TrusteeEmail string `json:"trustee_email"`
}

type TrusteeResponse struct {
	ID                    string     `json:"id"`
	TrusteeUserID         string     `json:"trustee_user_id"`
	TrusteeEmail          string     `json:"trustee_email,omitempty"`
	NotificationTriggered bool       `json:"notification_triggered"`
	TriggeredAt           *time.Time `json:"triggered_at,omitempty"`
}

type CreateMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
	MediaURL    string `json:"media_url"`
	DelayDays   int    `json:"delay_days"`
}

type CreateAssetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AssetType   string `json:"asset_type"`
	Value       string `json:"value"`
	Location    string `json:"location"`
}

type LastWishesRequest struct {
	FuneralPreferences string `json:"funeral_preferences"`
	SpecialRequests    string `json:"special_requests"`
	PersonalMessage    string `json:"personal_message"`
}

func (h *RecordHandlers) CreateTrustee(w http.ResponseWriter, r *http.Request) {
	owner := middleware.UserFromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User record not found")
		return
	}

	var req CreateTrusteeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.TrimSpace(req.TrusteeEmail)
	if email == "" {
		respondWithError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Trustee email is required")
		return
	}

	trusteeUser, err := models.UserByEmail(r.Context(), h.store, email)
	if errors.Is(err, store.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "No user found with that email")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up trustee")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add trustee")
		return
	}

	if trusteeUser.ID == owner.ID {
		respondWithError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Cannot add yourself as a trustee")
		return
	}

	trustee := models.NewTrustee(owner.ID, trusteeUser.ID)
	if err := trustee.Save(r.Context(), h.store); err != nil {
		h.logger.WithError(err).Error("Failed to save trustee")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add trustee")
		return
	}

	if !trusteeUser.IsTrustee {
		trusteeUser.IsTrustee = true
		if err := trusteeUser.Save(r.Context(), h.store); err != nil {
			h.logger.WithError(err).Warn("Failed to flag trustee user")
		}
	}

	respondWithJSON(w, http.StatusCreated, TrusteeResponse{
		ID:            trustee.ID,
		TrusteeUserID: trustee.TrusteeUserID,
		TrusteeEmail:  trusteeUser.Email,
	})
}

func (h *RecordHandlers) ListTrustees(w http.ResponseWriter, r *http.Request) {
	owner := middleware.UserFromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User record not found")
		return
	}

	trustees, err := models.TrusteesByOwner(r.Context(), h.store, owner.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trustees")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list trustees")
		return
	}

	resp := make([]TrusteeResponse, 0, len(trustees))
	for _, t := range trustees {
		resp = append(resp, TrusteeResponse{
			ID:                    t.ID,
			TrusteeUserID:         t.TrusteeUserID,
			NotificationTriggered: t.NotificationTriggered,
			TriggeredAt:           t.TriggeredAt,
		})
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *RecordHandlers) TriggerTrustee(w http.ResponseWriter, r *http.Request) {
	owner := middleware.UserFromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User record not found")
		return
	}

	trusteeID := mux.Vars(r)["id"]

	trustees, err := models.TrusteesByOwner(r.Context(), h.store, owner.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trustees")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to trigger notification")
		return
	}

	for _, t := range trustees {
		if t.ID != trusteeID {
			continue
		}
		t.TriggerNotification(time.Now().UTC())
		if err := t.Save(r.Context(), h.store); err != nil {
			h.logger.WithError(err).Error("Failed to save trustee")
			respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to trigger notification")
			return
		}
		respondWithJSON(w, http.StatusOK, TrusteeResponse{
			ID:                    t.ID,
			TrusteeUserID:         t.TrusteeUserID,
			NotificationTriggered: t.NotificationTriggered,
			TriggeredAt:           t.TriggeredAt,
		})
		return
	}

	respondWithError(w, http.StatusNotFound, "NOT_FOUND", "Trustee not found")
}

func (h *RecordHandlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	owner := middleware.UserFromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User record not found")
		return
	}

	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		respondWithError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Message content is required")
		return
	}

	msg, err := models.NewMessage(owner.ID, req.RecipientID, req.Content, req.MediaURL, req.DelayDays)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	if err := msg.Save(r.Context(), h.store); err != nil {
		h.logger.WithError(err).Error("Failed to save message")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create message")
		return
	}

	respondWithJSON(w, http.StatusCreated, msg)
}

func (h *RecordHandlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	owner := middleware.UserFromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User record not found")
		return
	}

	msgs, err := models.MessagesByOwner(r.Context(), h.store, owner.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list messages")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list messages")
		return
	}

	if msgs == nil {
		msgs = []*models.Message{}
	}
	respondWithJSON(w, http.StatusOK, msgs)
}

func (h *RecordHandlers) CreateAsset(w http.ResponseWriter, r *http.Request) {
	owner := middleware.UserFromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User record not found")
		return
	}

	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		respondWithError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Asset name is required")
		return
	}

	value, err := models.MoneyFromString(strings.TrimSpace(req.Value))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid asset value")
		return
	}

	asset := models.NewAsset(owner.ID, req.Name, req.Description, req.AssetType, value, req.Location)
	if err := asset.Save(r.Context(), h.store); err != nil {
		h.logger.WithError(err).Error("Failed to save asset")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create asset")
		return
	}

	respondWithJSON(w, http.StatusCreated, asset)
}

func (h *RecordHandlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	owner := middleware.UserFromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User record not found")
		return
	}

	assets, err := models.AssetsByOwner(r.Context(), h.store, owner.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list assets")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list assets")
		return
	}

	if assets == nil {
		assets = []*models.Asset{}
	}
	respondWithJSON(w, http.StatusOK, assets)
}

func (h *RecordHandlers) PutLastWishes(w http.ResponseWriter, r *http.Request) {
	owner := middleware.UserFromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User record not found")
		return
	}

	var req LastWishesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	wishes := models.NewLastWishes(owner.ID, req.FuneralPreferences, req.SpecialRequests, req.PersonalMessage)
	if err := wishes.Save(r.Context(), h.store); err != nil {
		h.logger.WithError(err).Error("Failed to save last wishes")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save last wishes")
		return
	}

	respondWithJSON(w, http.StatusOK, wishes)
}

func (h *RecordHandlers) GetLastWishes(w http.ResponseWriter, r *http.Request) {
	owner := middleware.UserFromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "User record not found")
		return
	}

	wishes, err := models.LastWishesByOwner(r.Context(), h.store, owner.ID)
	if errors.Is(err, store.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "No last wishes recorded")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load last wishes")
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load last wishes")
		return
	}

	respondWithJSON(w, http.StatusOK, wishes)
}
