package assets

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type AssetsHandler struct{}

func NewHandler() *AssetsHandler {
	return &AssetsHandler{}
}

func (h *AssetsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/assets", h.GetAssets).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

type Asset struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

var catalog = []Asset{
	{Symbol: "BTCUSDT", Name: "Bitcoin", Category: "Crypto"},
	{Symbol: "ETHUSDT", Name: "Ethereum", Category: "Crypto"},
	{Symbol: "SOLUSDT", Name: "Solana", Category: "Crypto"},
	{Symbol: "SPY", Name: "S&P 500 ETF", Category: "Stocks"},
	{Symbol: "QQQ", Name: "Nasdaq ETF", Category: "Stocks"},
	{Symbol: "AAPL", Name: "Apple Inc", Category: "Stocks"},
	{Symbol: "EURUSD", Name: "Euro/USD", Category: "Forex"},
	{Symbol: "GBPUSD", Name: "GBP/USD", Category: "Forex"},
	{Symbol: "XAUUSD", Name: "Gold", Category: "Commodities"},
}

// GetAssets returns the static catalog of tradable symbols.
func (h *AssetsHandler) GetAssets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"assets":     catalog,
		"timeframes": []string{"Scalp", "Intraday", "Swing"},
	})
}

func (h *AssetsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "SignalDesk AI",
		"version": "1.0.0",
	})
}
