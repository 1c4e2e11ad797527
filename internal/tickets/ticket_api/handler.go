package ticket_api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fanpass/internal/auth"
	"fanpass/internal/logger"
	"fanpass/internal/models"
	"fanpass/internal/tickets"
	"fanpass/internal/users"
	"fanpass/internal/utils"
)

type Handler struct {
	Service *tickets.Service
	Logger  *logger.Logger
}

func NewHandler(service *tickets.Service, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

func (h *Handler) RegisterRoutes(public, protected chi.Router) {
	public.Get("/tickets/{tokenId}", h.GetTicketInfo)

	protected.Get("/tickets/my", h.MyTickets)
	protected.Post("/tickets/{tokenId}/details", h.SaveDetails)
	protected.Post("/tickets/mint", h.Mint)
	protected.Get("/tickets/{tokenId}/qr", h.TicketQR)
}

func tokenIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "tokenId")
	tokenID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || tokenID <= 0 {
		return 0, errors.New("tokenId must be a positive integer")
	}
	return tokenID, nil
}

func (h *Handler) GetTicketInfo(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid token id", err.Error())
		return
	}

	info, err := h.Service.GetTicketInfo(r.Context(), tokenID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch ticket info", err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket info fetched", info))
}

func (h *Handler) SaveDetails(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid token id", err.Error())
		return
	}

	var input models.TicketDetailsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	details, err := h.Service.SaveDetails(r.Context(), tokenID, &input)
	if err != nil {
		if errors.Is(err, tickets.ErrInvalidInput) {
			utils.WriteError(w, http.StatusBadRequest, "Failed to save ticket details", err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to save ticket details", err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket details saved", details))
}

func (h *Handler) MyTickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing user context")
		return
	}

	rows, err := h.Service.TicketsByOwner(r.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "User not found", err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch tickets", err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Tickets fetched", rows))
}

func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	var req models.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	txHash, err := h.Service.Mint(r.Context(), &req)
	if err != nil {
		if errors.Is(err, tickets.ErrInvalidInput) {
			utils.WriteError(w, http.StatusBadRequest, "Failed to mint ticket", err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to mint ticket", err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket minted", map[string]string{"txHash": txHash}))
}

func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing user context")
		return
	}

	tokenID, err := tokenIDParam(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid token id", err.Error())
		return
	}

	png, err := h.Service.TicketQR(r.Context(), tokenID, userID)
	if err != nil {
		if errors.Is(err, tickets.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Ticket not found", "no ticket with this token id owned by the user")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to generate QR code", err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
