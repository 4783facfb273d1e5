package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/signaldesk/signaldesk-server/cmd/models"
	"github.com/signaldesk/signaldesk-server/cmd/utils"
	"github.com/signaldesk/signaldesk-server/service/subscription"
)

var validate = validator.New()

type Handler struct {
	db   *gorm.DB
	auth *utils.Authenticator
}

func NewHandler(db *gorm.DB, auth *utils.Authenticator) *Handler {
	return &Handler{db: db, auth: auth}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	authRouter := router.PathPrefix("/auth").Subrouter()

	authRouter.HandleFunc("/register", h.HandleRegister).Methods("POST")
	authRouter.HandleFunc("/login", h.HandleLogin).Methods("POST")
	authRouter.HandleFunc("/me", h.auth.Middleware(h.HandleMe)).Methods("GET")
}

type tokenResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	User        models.PublicUser `json:"user"`
}

// HandleRegister creates a user plus a trial subscription and returns a
// session token.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var registerRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Name     string `json:"name" validate:"required,min=2"`
	}
	if err := json.NewDecoder(r.Body).Decode(&registerRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(registerRequest); err != nil {
		http.Error(w, "Invalid registration fields", http.StatusBadRequest)
		return
	}

	var existingUser models.User
	result := h.db.Where("email = ?", registerRequest.Email).First(&existingUser)
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if result.Error != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		logrus.Warnf("Registration attempt with duplicate email %s", registerRequest.Email)
		http.Error(w, "Email already registered", http.StatusBadRequest)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(registerRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	user := models.User{
		UserID:       uuid.NewString(),
		Email:        registerRequest.Email,
		Name:         registerRequest.Name,
		PasswordHash: string(passwordHash),
		CreatedAt:    now,
	}

	// User and trial subscription land together or not at all.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		trial := models.Subscription{
			UserID:    user.UserID,
			IsActive:  true,
			Plan:      "premium_trial",
			Price:     49.99,
			ExpiresAt: now.Add(7 * 24 * time.Hour),
		}
		return tx.Create(&trial).Error
	})
	if err != nil {
		http.Error(w, "Error registering user", http.StatusInternalServerError)
		return
	}

	token, err := h.auth.CreateToken(user.UserID)
	if err != nil {
		http.Error(w, "Error generating access token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.Public(),
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user models.User
	result := h.db.Where("email = ?", loginRequest.Email).First(&user)
	if result.Error != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginRequest.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.auth.CreateToken(user.UserID)
	if err != nil {
		http.Error(w, "Error generating access token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.Public(),
	})
}

// HandleMe returns the caller's public profile plus effective subscription.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := utils.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user_id":      user.UserID,
		"email":        user.Email,
		"name":         user.Name,
		"created_at":   user.CreatedAt,
		"subscription": subscription.Effective(h.db, user.UserID),
	})
}
