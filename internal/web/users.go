package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neurotune/backend/internal/db"
)

type userStore interface {
	Create(ctx context.Context, username, password, nickname string, apiKeys db.APIKeys) (*db.User, error)
	Authenticate(ctx context.Context, username, password string) (*db.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, nickname *string, genres []string, apiKeys *db.APIKeys) (*db.User, error)
}

// Register creates a new user account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string     `json:"username"`
		Password string     `json:"password"`
		Nickname string     `json:"nickname"`
		APIKeys  db.APIKeys `json:"apiKeys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.Nickname == "" {
		respondError(w, http.StatusBadRequest, "username, password and nickname are required")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	user, err := h.users.Create(r.Context(), req.Username, req.Password, req.Nickname, req.APIKeys)
	if errors.Is(err, db.ErrUsernameTaken) {
		respondError(w, http.StatusBadRequest, "Username is already taken")
		return
	}
	if err != nil {
		log.Printf("web: registering user: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	respondJSON(w, http.StatusCreated, envelope{
		"data": envelope{
			"userId":   user.ID,
			"username": user.Username,
			"nickname": user.Nickname,
		},
	})
}

// Login authenticates a user.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, db.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		log.Printf("web: logging in: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, envelope{
		"data": envelope{
			"userId":   user.ID,
			"username": user.Username,
			"nickname": user.Nickname,
			"apiKeys":  user.APIKeys,
			"genres":   user.Genres,
		},
	})
}

// GetProfile returns a user's profile without the password hash.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("web: loading profile: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, envelope{"data": profileView(user)})
}

// UpdateProfile updates mutable profile fields. Username and password
// changes are rejected here.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req struct {
		Nickname *string     `json:"nickname"`
		Genres   []string    `json:"genres"`
		APIKeys  *db.APIKeys `json:"apiKeys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), id, req.Nickname, req.Genres, req.APIKeys)
	if errors.Is(err, db.ErrNotFound) {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("web: updating profile: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	respondJSON(w, http.StatusOK, envelope{"data": profileView(user)})
}

func profileView(user *db.User) envelope {
	return envelope{
		"userId":    user.ID,
		"username":  user.Username,
		"nickname":  user.Nickname,
		"genres":    user.Genres,
		"apiKeys":   user.APIKeys,
		"lastLogin": user.LastLogin,
		"createdAt": user.CreatedAt,
	}
}

// SavePreferences creates or replaces a user's music preferences.
func (h *Handlers) SavePreferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string   `json:"userId"`
		Genres     []string `json:"genres"`
		TopArtists []string `json:"topArtists"`
		TopTracks  []string `json:"topTracks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || len(req.Genres) == 0 {
		respondError(w, http.StatusBadRequest, "userId and genres array are required")
		return
	}

	pref, err := h.prefs.Upsert(r.Context(), req.UserID, req.Genres, req.TopArtists, req.TopTracks)
	if err != nil {
		log.Printf("web: saving preferences: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to save preferences")
		return
	}
	respondJSON(w, http.StatusOK, envelope{"data": pref})
}

// GetPreferences returns a user's music preferences.
func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	pref, err := h.prefs.Get(r.Context(), userID)
	if errors.Is(err, db.ErrNotFound) {
		respondError(w, http.StatusNotFound, "User preferences not found")
		return
	}
	if err != nil {
		log.Printf("web: loading preferences: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch preferences")
		return
	}
	respondJSON(w, http.StatusOK, envelope{"data": pref})
}
