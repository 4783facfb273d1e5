package dashboard

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/signaldesk/signaldesk-server/cmd/models"
	"github.com/signaldesk/signaldesk-server/cmd/utils"
	"github.com/signaldesk/signaldesk-server/service/subscription"
)

type DashboardHandler struct {
	db   *gorm.DB
	auth *utils.Authenticator
}

func NewDashboardHandler(db *gorm.DB, auth *utils.Authenticator) *DashboardHandler {
	return &DashboardHandler{db: db, auth: auth}
}

func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/performance", h.auth.Middleware(h.GetPerformance)).Methods("GET")
	router.HandleFunc("/dashboard", h.auth.Middleware(h.GetDashboard)).Methods("GET")
}

type PerformanceStats struct {
	TotalSignals  int64   `json:"total_signals"`
	WinRate       float64 `json:"win_rate"`
	ActiveSignals int64   `json:"active_signals"`
	HitTP         int64   `json:"hit_tp"`
	StoppedOut    int64   `json:"stopped_out"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// GetPerformance computes win-rate and confidence aggregates over all of the
// caller's signals. Win rate counts only completed signals.
func (h *DashboardHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	user, err := utils.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var stats PerformanceStats
	h.db.Model(&models.Signal{}).Where("user_id = ?", user.UserID).Count(&stats.TotalSignals)

	if stats.TotalSignals > 0 {
		h.db.Model(&models.Signal{}).
			Where("user_id = ? AND status = ?", user.UserID, "active").
			Count(&stats.ActiveSignals)
		h.db.Model(&models.Signal{}).
			Where("user_id = ? AND status = ?", user.UserID, "hit_tp").
			Count(&stats.HitTP)
		h.db.Model(&models.Signal{}).
			Where("user_id = ? AND status = ?", user.UserID, "stopped_out").
			Count(&stats.StoppedOut)

		completed := stats.HitTP + stats.StoppedOut
		if completed > 0 {
			stats.WinRate = round1(float64(stats.HitTP) / float64(completed) * 100)
		}

		stats.AvgConfidence = round1(h.averageConfidence(user.UserID))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetDashboard returns the overview payload: entitlement, counts, the five
// newest signals, and the time of the latest one (null when there are none).
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user, err := utils.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sub := subscription.Effective(h.db, user.UserID)

	recentSignals := []models.Signal{}
	if err := h.db.Where("user_id = ?", user.UserID).
		Order("created_at desc").
		Limit(5).
		Find(&recentSignals).Error; err != nil {
		http.Error(w, "Error retrieving signals", http.StatusInternalServerError)
		return
	}

	var activeCount, totalCount int64
	h.db.Model(&models.Signal{}).
		Where("user_id = ? AND status = ?", user.UserID, "active").
		Count(&activeCount)
	h.db.Model(&models.Signal{}).Where("user_id = ?", user.UserID).Count(&totalCount)

	avgConfidence := 0.0
	if totalCount > 0 {
		avgConfidence = round1(h.averageConfidence(user.UserID))
	}

	var lastSignalAt *time.Time
	if len(recentSignals) > 0 {
		lastSignalAt = &recentSignals[0].CreatedAt
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"subscription":   sub,
		"active_signals": activeCount,
		"total_signals":  totalCount,
		"ai_confidence":  avgConfidence,
		"recent_signals": recentSignals,
		"last_signal_at": lastSignalAt,
	})
}

func (h *DashboardHandler) averageConfidence(userID string) float64 {
	var avg float64
	h.db.Model(&models.Signal{}).
		Where("user_id = ?", userID).
		Select("COALESCE(AVG(confidence), 0)").
		Scan(&avg)
	return avg
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
