package signals

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/signaldesk/signaldesk-server/cmd/models"
	"github.com/signaldesk/signaldesk-server/cmd/utils"
	"github.com/signaldesk/signaldesk-server/service/subscription"
)

type SignalHandler struct {
	db        *gorm.DB
	auth      *utils.Authenticator
	generator *Generator
}

func NewSignalHandler(db *gorm.DB, auth *utils.Authenticator, generator *Generator) *SignalHandler {
	return &SignalHandler{db: db, auth: auth, generator: generator}
}

func (h *SignalHandler) RegisterRoutes(router *mux.Router) {
	signalRouter := router.PathPrefix("/signals").Subrouter()

	signalRouter.HandleFunc("/generate", h.auth.Middleware(h.GenerateSignal)).Methods("POST")
	signalRouter.HandleFunc("", h.auth.Middleware(h.GetSignals)).Methods("GET")
	signalRouter.HandleFunc("/{id}", h.auth.Middleware(h.GetSignalByID)).Methods("GET")
	signalRouter.HandleFunc("/{id}/status", h.auth.Middleware(h.UpdateSignalStatus)).Methods("PATCH")
}

// GenerateSignal produces one signal per call. LLM failures are absorbed
// into the deterministic fallback, so the route always answers 200 once the
// entitlement check passes.
func (h *SignalHandler) GenerateSignal(w http.ResponseWriter, r *http.Request) {
	user, err := utils.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var signalRequest struct {
		Asset     string `json:"asset"`
		Timeframe string `json:"timeframe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&signalRequest); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if signalRequest.Asset == "" {
		signalRequest.Asset = "BTCUSDT"
	}
	if signalRequest.Timeframe == "" {
		signalRequest.Timeframe = "Intraday"
	}

	sub := subscription.Effective(h.db, user.UserID)
	if !sub.IsActive {
		http.Error(w, "Active subscription required", http.StatusForbidden)
		return
	}

	createdAt := time.Now().UTC()
	expiresAt := createdAt.Add(ExpiryOffset(signalRequest.Timeframe))

	payload, err := h.generator.FromModel(r.Context(), user.UserID, signalRequest.Asset, signalRequest.Timeframe)
	if err != nil {
		logrus.WithError(err).Warnf("Signal generation failed for %s, serving fallback", signalRequest.Asset)
		payload = FallbackPayload(signalRequest.Asset)
		expiresAt = createdAt.Add(fallbackExpiry)
	}

	signal := models.Signal{
		SignalID:    uuid.NewString(),
		UserID:      user.UserID,
		Asset:       signalRequest.Asset,
		Direction:   payload.Direction,
		Entry:       payload.Entry,
		TakeProfit:  models.PriceLevels(payload.TakeProfit),
		StopLoss:    payload.StopLoss,
		Confidence:  payload.Confidence,
		Timeframe:   signalRequest.Timeframe,
		Status:      "active",
		AIReasoning: payload.Reasoning,
		RiskReward:  payload.RiskReward,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
	}

	if err := h.db.Create(&signal).Error; err != nil {
		http.Error(w, "Error saving signal", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(signal)
}

// GetSignals lists the caller's signals, newest first.
func (h *SignalHandler) GetSignals(w http.ResponseWriter, r *http.Request) {
	user, err := utils.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sub := subscription.Effective(h.db, user.UserID)
	if !sub.IsActive {
		http.Error(w, "Active subscription required", http.StatusForbidden)
		return
	}

	limit := 20
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsedLimit, err := strconv.Atoi(limitParam)
		if err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	signals := []models.Signal{}
	if err := h.db.Where("user_id = ?", user.UserID).
		Order("created_at desc").
		Limit(limit).
		Find(&signals).Error; err != nil {
		http.Error(w, "Error retrieving signals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"signals": signals,
		"count":   len(signals),
	})
}

// GetSignalByID returns a signal only to its owner. A foreign id answers 404
// so existence is not confirmed across users.
func (h *SignalHandler) GetSignalByID(w http.ResponseWriter, r *http.Request) {
	user, err := utils.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	signalID := vars["id"]

	var signal models.Signal
	if err := h.db.Where("signal_id = ? AND user_id = ?", signalID, user.UserID).First(&signal).Error; err != nil {
		http.Error(w, "Signal not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(signal)
}

// UpdateSignalStatus stamps a new status on an owned signal. The value is
// stored as given.
func (h *SignalHandler) UpdateSignalStatus(w http.ResponseWriter, r *http.Request) {
	user, err := utils.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		http.Error(w, "status parameter required", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	signalID := vars["id"]

	result := h.db.Model(&models.Signal{}).
		Where("signal_id = ? AND user_id = ?", signalID, user.UserID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		http.Error(w, "Error updating signal", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Signal not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"status":  status,
	})
}
