package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/signaldesk/signaldesk-server/cmd/utils"
	"github.com/signaldesk/signaldesk-server/service/assets"
	"github.com/signaldesk/signaldesk-server/service/dashboard"
	"github.com/signaldesk/signaldesk-server/service/signals"
	"github.com/signaldesk/signaldesk-server/service/subscription"
	"github.com/signaldesk/signaldesk-server/service/user"
)

type APIServer struct {
	address string
	db      *gorm.DB
	cfg     *utils.Config
}

func NewApiServer(address string, db *gorm.DB, cfg *utils.Config) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
		cfg:     cfg,
	}
}

// Router assembles the full route table. Kept separate from Run so tests can
// drive the server through httptest.
func (s *APIServer) Router() *mux.Router {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api").Subrouter()

	auth := utils.NewAuthenticator(s.db, s.cfg)

	userHandler := user.NewHandler(s.db, auth)
	userHandler.RegisterRoutes(subrouter)

	subscriptionHandler := subscription.NewSubscriptionHandler(s.db, auth)
	subscriptionHandler.RegisterRoutes(subrouter)

	generator := signals.NewGenerator(signals.NewLLMClient(s.cfg))
	signalHandler := signals.NewSignalHandler(s.db, auth, generator)
	signalHandler.RegisterRoutes(subrouter)

	dashboardHandler := dashboard.NewDashboardHandler(s.db, auth)
	dashboardHandler.RegisterRoutes(subrouter)

	assetsHandler := assets.NewHandler()
	assetsHandler.RegisterRoutes(subrouter)

	return router
}

func (s *APIServer) Run() error {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	logrus.Infof("Server running at %s", s.address)
	return http.ListenAndServe(s.address, cors(s.Router()))
}
