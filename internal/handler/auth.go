package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cradlehealth/cradle/internal/email"
	"github.com/cradlehealth/cradle/internal/model"
	"github.com/cradlehealth/cradle/internal/store"
	"github.com/cradlehealth/cradle/internal/token"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	userStore   *store.UserStore
	tokens      *token.Service
	emailClient *email.Client
	logger      *slog.Logger
}

func NewAuthHandler(us *store.UserStore, tokens *token.Service, ec *email.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:   us,
		tokens:      tokens,
		emailClient: ec,
		logger:      logger,
	}
}

type userResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string  `json:"name"`
		Email    string  `json:"email"`
		Password string  `json:"password"`
		Role     string  `json:"role"`
		Phone    *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleUser {
		writeMessage(w, http.StatusBadRequest, "Invalid role")
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("signup lookup", "error", err)
		writeMessage(w, http.StatusInternalServerError, "An error occurred")
		return
	}
	if existing != nil {
		writeMessage(w, http.StatusConflict, "User with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeMessage(w, http.StatusInternalServerError, "An error occurred")
		return
	}

	user, err := h.userStore.Create(req.Name, req.Email, string(hash), req.Role, req.Phone)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "An error occurred")
		return
	}

	if h.emailClient != nil && h.emailClient.Configured() {
		if err := h.emailClient.SendWelcome(user.Email, user.Name); err != nil {
			h.logger.Error("send welcome email", "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    userResponse{Name: user.Name, Email: user.Email, Role: user.Role},
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeMessage(w, http.StatusInternalServerError, "An error occurred")
		return
	}
	if user == nil {
		writeMessage(w, http.StatusNotFound, "No user found with this email, please signup")
		return
	}

	hash, err := h.userStore.GetPasswordHash(req.Email)
	if err != nil {
		h.logger.Error("login hash lookup", "error", err)
		writeMessage(w, http.StatusInternalServerError, "An error occurred")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tok, err := h.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "An error occurred")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   tok,
		"user":    userResponse{Name: user.Name, Email: user.Email, Role: user.Role},
	})
}
