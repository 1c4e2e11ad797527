package market_api

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fanpass/internal/logger"
	"fanpass/internal/marketplace"
	"fanpass/internal/utils"
)

type Handler struct {
	Service *marketplace.Service
	Logger  *logger.Logger
}

func NewHandler(service *marketplace.Service, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

// RegisterRoutes mounts the read endpoints on the public router and the
// transaction endpoints on the authenticated one.
func (h *Handler) RegisterRoutes(public, protected chi.Router) {
	public.Get("/marketplace/listings/{tokenId}", h.GetListings)
	public.Get("/marketplace/sale/{tokenId}", h.GetSaleListing)
	public.Get("/marketplace/rent/{tokenId}", h.GetRentListing)
	public.Get("/marketplace/rental-status/{tokenId}", h.GetRentalStatus)

	protected.Post("/marketplace/list-for-sale", h.ListForSale)
	protected.Post("/marketplace/list-for-rent", h.ListForRent)
	protected.Post("/marketplace/buy", h.Buy)
	protected.Post("/marketplace/rent", h.Rent)
	protected.Post("/marketplace/cancel-sale", h.CancelSale)
	protected.Post("/marketplace/cancel-rent", h.CancelRent)
	protected.Post("/marketplace/withdraw-rented", h.WithdrawRented)
}

func tokenIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "tokenId")
	tokenID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || tokenID <= 0 {
		return 0, errors.New("tokenId must be a positive integer")
	}
	return tokenID, nil
}

func parseWeiField(value, field string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, errors.New(field + " must be a positive integer string")
	}
	return amount, nil
}

// GetListings returns the consolidated marketplace state of one token.
// A token with neither listing active is reported as not listed.
func (h *Handler) GetListings(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid token id", err.Error())
		return
	}

	listings, err := h.Service.GetActiveListings(r.Context(), tokenID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch listings", err.Error())
		return
	}

	if !listings.SaleListing.Active && !listings.RentListing.Active {
		utils.WriteError(w, http.StatusNotFound, "Item not listed", "no active sale or rent listing for this token")
		return
	}

	item := marketplace.Item(listings)
	if listings.RentListing.Active {
		rentInfo, err := h.Service.GetActiveRentInfo(r.Context(), tokenID)
		if err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch rent info", err.Error())
			return
		}
		item.RentInfo = rentInfo
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Listings fetched", item))
}

func (h *Handler) GetSaleListing(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid token id", err.Error())
		return
	}

	listing, err := h.Service.GetSaleListing(r.Context(), tokenID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch sale listing", err.Error())
		return
	}
	if !listing.Active {
		utils.WriteError(w, http.StatusNotFound, "Item not listed", "no active sale listing for this token")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Sale listing fetched", listing))
}

func (h *Handler) GetRentListing(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid token id", err.Error())
		return
	}

	listing, err := h.Service.GetRentListing(r.Context(), tokenID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch rent listing", err.Error())
		return
	}
	if !listing.Active {
		utils.WriteError(w, http.StatusNotFound, "Item not listed", "no active rent listing for this token")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Rent listing fetched", listing))
}

func (h *Handler) GetRentalStatus(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid token id", err.Error())
		return
	}

	active, err := h.Service.IsRentalActive(r.Context(), tokenID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch rental status", err.Error())
		return
	}

	body := map[string]interface{}{"tokenId": tokenID, "isRented": active}
	if active {
		rentInfo, err := h.Service.GetActiveRentInfo(r.Context(), tokenID)
		if err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch rent info", err.Error())
			return
		}
		body["rentInfo"] = rentInfo
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Rental status fetched", body))
}

type listForSaleRequest struct {
	TokenID int64  `json:"tokenId"`
	Price   string `json:"price"`
	Actor   string `json:"publicKey"`
}

func (h *Handler) ListForSale(w http.ResponseWriter, r *http.Request) {
	var req listForSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	price, err := parseWeiField(req.Price, "price")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid price", err.Error())
		return
	}

	txHash, err := h.Service.ListForSale(r.Context(), req.TokenID, price, req.Actor)
	if err != nil {
		h.writeTxError(w, err, "Failed to list for sale")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Listed for sale", map[string]string{"txHash": txHash}))
}

type listForRentRequest struct {
	TokenID     int64  `json:"tokenId"`
	PricePerDay string `json:"pricePerDay"`
	MinDuration int64  `json:"minDuration"`
	MaxDuration int64  `json:"maxDuration"`
	Actor       string `json:"publicKey"`
}

func (h *Handler) ListForRent(w http.ResponseWriter, r *http.Request) {
	var req listForRentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	pricePerDay, err := parseWeiField(req.PricePerDay, "pricePerDay")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid pricePerDay", err.Error())
		return
	}

	txHash, err := h.Service.ListForRent(r.Context(), req.TokenID, pricePerDay, req.MinDuration, req.MaxDuration, req.Actor)
	if err != nil {
		h.writeTxError(w, err, "Failed to list for rent")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Listed for rent", map[string]string{"txHash": txHash}))
}

type buyRequest struct {
	TokenID int64  `json:"tokenId"`
	Value   string `json:"value"`
	Actor   string `json:"publicKey"`
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	value, err := parseWeiField(req.Value, "value")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid value", err.Error())
		return
	}

	txHash, err := h.Service.Buy(r.Context(), req.TokenID, value, req.Actor)
	if err != nil {
		h.writeTxError(w, err, "Failed to buy ticket")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket purchased", map[string]string{"txHash": txHash}))
}

type rentRequest struct {
	TokenID      int64  `json:"tokenId"`
	DurationDays int64  `json:"durationDays"`
	Value        string `json:"value"`
	Actor        string `json:"publicKey"`
}

func (h *Handler) Rent(w http.ResponseWriter, r *http.Request) {
	var req rentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	value, err := parseWeiField(req.Value, "value")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid value", err.Error())
		return
	}

	txHash, err := h.Service.Rent(r.Context(), req.TokenID, req.DurationDays, value, req.Actor)
	if err != nil {
		h.writeTxError(w, err, "Failed to rent ticket")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Ticket rented", map[string]string{"txHash": txHash}))
}

type tokenActionRequest struct {
	TokenID int64  `json:"tokenId"`
	Actor   string `json:"publicKey"`
}

func (h *Handler) CancelSale(w http.ResponseWriter, r *http.Request) {
	h.tokenAction(w, r, "Sale listing cancelled", "Failed to cancel sale listing", h.Service.CancelSale)
}

func (h *Handler) CancelRent(w http.ResponseWriter, r *http.Request) {
	h.tokenAction(w, r, "Rent listing cancelled", "Failed to cancel rent listing", h.Service.CancelRent)
}

func (h *Handler) WithdrawRented(w http.ResponseWriter, r *http.Request) {
	h.tokenAction(w, r, "Rented ticket withdrawn", "Failed to withdraw rented ticket", h.Service.WithdrawRented)
}

func (h *Handler) tokenAction(w http.ResponseWriter, r *http.Request, okMessage, failMessage string, action func(ctx context.Context, tokenID int64, actor string) (string, error)) {
	var req tokenActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	txHash, err := action(r.Context(), req.TokenID, req.Actor)
	if err != nil {
		h.writeTxError(w, err, failMessage)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(okMessage, map[string]string{"txHash": txHash}))
}

func (h *Handler) writeTxError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, marketplace.ErrInvalidInput) {
		utils.WriteError(w, http.StatusBadRequest, message, err.Error())
		return
	}
	utils.WriteError(w, http.StatusInternalServerError, message, err.Error())
}
