package subscription

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/signaldesk/signaldesk-server/cmd/models"
	"github.com/signaldesk/signaldesk-server/cmd/utils"
)

const defaultPrice = 49.99

// Effective returns the user's stored subscription, or a synthesized mock
// record when none exists. The mock is never persisted, so repeated reads
// keep behaving the same.
//
// "No row" meaning "always entitled" is a testing shortcut carried over from
// the original backend; revisit before real entitlement enforcement.
func Effective(db *gorm.DB, userID string) models.Subscription {
	var sub models.Subscription
	if err := db.Where("user_id = ?", userID).First(&sub).Error; err == nil {
		return sub
	}

	return models.Subscription{
		UserID:    userID,
		IsActive:  true,
		Plan:      "premium_mock",
		Price:     defaultPrice,
		ExpiresAt: time.Now().UTC().Add(30 * 24 * time.Hour),
		Mock:      true,
	}
}

type SubscriptionHandler struct {
	db   *gorm.DB
	auth *utils.Authenticator
}

func NewSubscriptionHandler(db *gorm.DB, auth *utils.Authenticator) *SubscriptionHandler {
	return &SubscriptionHandler{db: db, auth: auth}
}

func (h *SubscriptionHandler) RegisterRoutes(router *mux.Router) {
	subscriptionRouter := router.PathPrefix("/subscription").Subrouter()

	subscriptionRouter.HandleFunc("", h.auth.Middleware(h.GetSubscription)).Methods("GET")
	subscriptionRouter.HandleFunc("/activate", h.auth.Middleware(h.ActivateSubscription)).Methods("POST")
	subscriptionRouter.HandleFunc("/cancel", h.auth.Middleware(h.CancelSubscription)).Methods("POST")
}

// GetSubscription returns the effective subscription for the caller.
func (h *SubscriptionHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	user, err := utils.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Effective(h.db, user.UserID))
}

// ActivateSubscription upserts the caller's subscription row.
func (h *SubscriptionHandler) ActivateSubscription(w http.ResponseWriter, r *http.Request) {
	user, err := utils.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var updateRequest struct {
		IsActive  bool   `json:"is_active"`
		Plan      string `json:"plan"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updateRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if updateRequest.Plan == "" {
		updateRequest.Plan = "premium"
	}

	expiresAt := time.Now().UTC().Add(30 * 24 * time.Hour)
	if updateRequest.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, updateRequest.ExpiresAt)
		if err != nil {
			http.Error(w, "Invalid expires_at format. Use RFC3339", http.StatusBadRequest)
			return
		}
		expiresAt = parsed
	}

	var sub models.Subscription
	result := h.db.Where("user_id = ?", user.UserID).First(&sub)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	sub.UserID = user.UserID
	sub.IsActive = updateRequest.IsActive
	sub.Plan = updateRequest.Plan
	sub.Price = defaultPrice
	sub.ExpiresAt = expiresAt

	if err := h.db.Save(&sub).Error; err != nil {
		http.Error(w, "Error updating subscription", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":      true,
		"subscription": sub,
	})
}

// CancelSubscription deactivates the row and stamps the cancellation time.
// The record is kept.
func (h *SubscriptionHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	user, err := utils.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	now := time.Now().UTC()
	result := h.db.Model(&models.Subscription{}).
		Where("user_id = ?", user.UserID).
		Updates(map[string]interface{}{"is_active": false, "cancelled_at": now})
	if result.Error != nil {
		http.Error(w, "Error cancelling subscription", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Subscription cancelled",
	})
}
