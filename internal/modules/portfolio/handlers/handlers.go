// Package handlers provides HTTP handlers for sessions and paper portfolios.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/modules/ledger"
	"github.com/aristath/predictions-dashboard/internal/modules/portfolio"
	"github.com/aristath/predictions-dashboard/internal/modules/valuation"
	"github.com/rs/zerolog"
)

// PriceSource provides live prices and market metadata
type PriceSource interface {
	Index() domain.PriceIndex
	Lookup(marketID string) (domain.NormalizedMarket, domain.NormalizedEvent, bool)
}

// Handler handles session and portfolio HTTP requests
type Handler struct {
	sessions *portfolio.Sessions
	prices   PriceSource
	log      zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(sessions *portfolio.Sessions, prices PriceSource, log zerolog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		prices:   prices,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

type identityRequest struct {
	Identity string `json:"identity"`
}

type fundsRequest struct {
	Amount float64 `json:"amount"`
}

type buyRequest struct {
	EventID     string   `json:"eventId"`
	EventTitle  string   `json:"eventTitle"`
	MarketID    string   `json:"marketId"`
	MarketTitle string   `json:"marketTitle"`
	Side        string   `json:"side"`
	Amount      float64  `json:"amount"`
	Price       *float64 `json:"price"`
}

// portfolioResponse is the body of every portfolio read and action
type portfolioResponse struct {
	Success   bool                  `json:"success"`
	Reason    string                `json:"reason,omitempty"`
	Session   portfolio.SessionInfo `json:"session"`
	Portfolio domain.PortfolioState `json:"portfolio"`
	Valuation valuation.Report      `json:"valuation"`
}

// HandleGetSession returns the current session
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}
	h.writeJSON(w, http.StatusOK, session.Info())
}

// HandleSetIdentity signs the session in as an identity
func (h *Handler) HandleSetIdentity(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.switchIdentity(w, r, session, req.Identity)
}

// HandleClearIdentity signs the session out
func (h *Handler) HandleClearIdentity(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}
	h.switchIdentity(w, r, session, "")
}

func (h *Handler) switchIdentity(w http.ResponseWriter, r *http.Request, session *portfolio.Session, identity string) {
	info, err := session.SwitchIdentity(r.Context(), identity)
	if errors.Is(err, portfolio.ErrInvalidIdentity) {
		h.writeError(w, http.StatusBadRequest, "Invalid identity")
		return
	}
	if errors.Is(err, portfolio.ErrSessionClosed) {
		h.writeError(w, http.StatusConflict, portfolio.ReasonSessionChanged)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("session", session.ID()).Msg("Failed to switch identity")
		h.writeError(w, http.StatusServiceUnavailable, "Unable to load portfolio")
		return
	}

	h.log.Info().
		Str("session", session.ID()).
		Bool("signed_in", info.SignedIn).
		Int("epoch", info.Epoch).
		Msg("Session identity changed")
	h.writeJSON(w, http.StatusOK, info)
}

// HandleGetPortfolio returns the wallet with a valuation at the latest prices
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}
	h.writePortfolio(w, session, session.State(), ledger.Accepted)
}

// HandleAddFunds credits the wallet
func (h *Handler) HandleAddFunds(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var req fundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, result, err := session.AddFunds(r.Context(), req.Amount)
	if err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writePortfolio(w, session, state, result)
}

// HandleBuy places a paper order. When the market is on the board its live price and
// titles are used; otherwise the submitted price is taken as is.
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	side, ok := domain.ParsePositionSide(req.Side)
	if !ok || req.MarketID == "" {
		h.writePortfolio(w, session, session.State(), ledger.Rejected(ledger.ReasonInvalidOrder))
		return
	}

	order := domain.BuyOrder{
		EventID:     req.EventID,
		EventTitle:  req.EventTitle,
		MarketID:    req.MarketID,
		MarketTitle: req.MarketTitle,
		Side:        side,
		Amount:      req.Amount,
	}
	if req.Price != nil {
		order.Price = *req.Price
	}
	if market, event, found := h.prices.Lookup(req.MarketID); found {
		order.Price = market.Price.ForSide(side)
		order.MarketTitle = market.Title
		order.EventID = event.ID
		order.EventTitle = event.Title
	}

	state, result, err := session.Buy(r.Context(), order)
	if err != nil {
		h.writeActionError(w, err)
		return
	}

	if result.Success {
		h.log.Info().
			Str("session", session.ID()).
			Str("market", order.MarketID).
			Str("side", string(order.Side)).
			Float64("price", order.Price).
			Float64("amount", order.Amount).
			Msg("Paper order filled")
	}
	h.writePortfolio(w, session, state, result)
}

// HandleClear resets the wallet to its default
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	state, err := session.Clear(r.Context())
	if err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writePortfolio(w, session, state, ledger.Accepted)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *portfolio.Session {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "No session")
		return nil
	}
	return session
}

func (h *Handler) writePortfolio(w http.ResponseWriter, session *portfolio.Session, state domain.PortfolioState, result ledger.Result) {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}

	h.writeJSON(w, status, portfolioResponse{
		Success:   result.Success,
		Reason:    result.Reason,
		Session:   session.Info(),
		Portfolio: state,
		Valuation: valuation.Value(state, h.prices.Index()),
	})
}

func (h *Handler) writeActionError(w http.ResponseWriter, err error) {
	if errors.Is(err, portfolio.ErrSessionClosed) {
		h.writeError(w, http.StatusConflict, portfolio.ReasonSessionChanged)
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		h.writeError(w, http.StatusServiceUnavailable, "Request cancelled")
		return
	}
	h.log.Error().Err(err).Msg("Portfolio action failed")
	h.writeError(w, http.StatusInternalServerError, "Unable to save portfolio")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
