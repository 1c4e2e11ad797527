package user_api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fanpass/internal/auth"
	"fanpass/internal/logger"
	"fanpass/internal/models"
	"fanpass/internal/users"
	"fanpass/internal/utils"
)

type Handler struct {
	Service *users.Service
	Logger  *logger.Logger
}

func NewHandler(service *users.Service, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

func (h *Handler) RegisterRoutes(public, protected chi.Router) {
	public.Post("/users/register", h.Register)
	public.Post("/users/login", h.Login)

	protected.Get("/users/me", h.Me)
	protected.Post("/users/link-wallet", h.LinkWallet)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.Service.Register(r.Context(), &req)
	if err != nil {
		h.writeUserError(w, err, "Failed to register user")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("User registered", resp))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		h.writeUserError(w, err, "Failed to log in")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Logged in", resp))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing user context")
		return
	}

	profile, err := h.Service.GetByID(r.Context(), userID)
	if err != nil {
		h.writeUserError(w, err, "Failed to fetch profile")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Profile fetched", profile))
}

func (h *Handler) LinkWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing user context")
		return
	}

	var req models.LinkWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	resp, err := h.Service.LinkWallet(r.Context(), userID, &req)
	if err != nil {
		h.writeUserError(w, err, "Failed to link wallet")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Wallet linked", resp))
}

func (h *Handler) writeUserError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, users.ErrValidation), errors.Is(err, users.ErrInvalidWallet):
		utils.WriteError(w, http.StatusBadRequest, message, err.Error())
	case errors.Is(err, users.ErrEmailTaken), errors.Is(err, users.ErrCPFTaken):
		utils.WriteError(w, http.StatusConflict, message, err.Error())
	case errors.Is(err, users.ErrInvalidCredentials):
		utils.WriteError(w, http.StatusUnauthorized, message, err.Error())
	case errors.Is(err, users.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, message, err.Error())
	default:
		utils.WriteError(w, http.StatusInternalServerError, message, err.Error())
	}
}
