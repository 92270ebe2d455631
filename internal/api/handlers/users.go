package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/cardboard/internal/api/dto"
	"github.com/hugh/cardboard/internal/api/middleware"
	"github.com/hugh/cardboard/internal/apperr"
	"github.com/hugh/cardboard/internal/auth"
)

type UserHandler struct {
	authService *auth.Service
	pages       PageDefaults
	logger      *slog.Logger
}

func NewUserHandler(authService *auth.Service, pages PageDefaults, logger *slog.Logger) *UserHandler {
	return &UserHandler{authService: authService, pages: pages, logger: logger}
}

// Register handles POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeError(w, r, h.logger, apperr.Validation(errors))
		return
	}

	user, err := h.authService.Register(r.Context(), auth.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.ParsedRole(),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserToResponse(user))
}

// Login handles POST /users/login. The body is the bare token string.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeError(w, r, h.logger, apperr.Validation(errors))
		return
	}

	resp, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp.Token)
}

// List handles GET /users/list (Admin only)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := h.pages.parse(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.authService.ListUsers(r.Context(), params)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPaginatedResult(page, dto.UserToResponse))
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperr.Unauthenticated("Unauthorized"))
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserToResponse(user))
}
