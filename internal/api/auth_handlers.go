package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/animal-store/internal/api/middleware"
	"github.com/example/animal-store/internal/auth"
	"github.com/example/animal-store/internal/user"
)

// AuthHandlers serves registration, login and profile endpoints.
type AuthHandlers struct {
	userSvc    *user.Service
	jwtService *auth.JWTService
}

func NewAuthHandlers(userSvc *user.Service, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		userSvc:    userSvc,
		jwtService: jwtService,
	}
}

// UserResponse is the public shape of an account; the credential hash never
// appears in responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		Mobile:    u.Mobile,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse carries the account plus a bearer token for API clients;
// browser clients get the same token as an httpOnly cookie.
type AuthResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var in user.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.userSvc.Register(r.Context(), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	token := h.setAuthCookies(w, r, u)
	respondJSON(w, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		User:    toUserResponse(u),
		Token:   token,
	})
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmailOrUsername string `json:"email_or_username"`
		Password        string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.userSvc.Login(r.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	token := h.setAuthCookies(w, r, u)
	respondJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		User:    toUserResponse(u),
		Token:   token,
	})
}

func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userSvc.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password reset successful"})
}

func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var in user.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.userSvc.UpdateProfile(r.Context(), claims.UserID, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    toUserResponse(u),
	})
}

// Me returns the authenticated account.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.userSvc.Get(r.Context(), claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(u))
}

// setAuthCookies issues a token pair, sets the browser cookies and returns
// the access token for API clients.
func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, u *user.User) string {
	accessToken, accessExpiry, _ := h.jwtService.GenerateAccessToken(u.ID, u.Username, u.Role)
	refreshToken, refreshExpiry, _ := h.jwtService.GenerateRefreshToken(u.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/api/auth/refresh",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	return accessToken
}

// Refresh exchanges a valid refresh token for a new token pair.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondError(w, "no refresh token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		respondError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	u, err := h.userSvc.Get(r.Context(), userID)
	if err != nil {
		respondError(w, "user not found", http.StatusUnauthorized)
		return
	}

	token := h.setAuthCookies(w, r, u)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Token refreshed",
		"token":   token,
	})
}
