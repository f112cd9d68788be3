package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warikan-app/warikan/pkg/middleware"
	"github.com/warikan-app/warikan/pkg/response"
)

// Handler handles HTTP requests for settlements
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateSettlement)
	r.Get("/", h.ListSettlements)
	r.Get("/balances", h.GetBalances)
	r.Get("/{id}", h.GetSettlement)
	r.Post("/{id}/payments/{paymentID}/pay", h.MarkPaymentPaid)
	r.Post("/{id}/reopen", h.ReopenSettlement)

	return r
}

// CreateSettlement godoc
// @Summary Create a settlement
// @Description Snapshot a period's balances into a settlement with a simplified payment list. Freezes the period's expenses.
// @Tags settlements
// @Accept json
// @Produce json
// @Param settlement body CreateSettlementRequest true "Settlement period"
// @Success 201 {object} response.APIResponse{data=SettlementResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /settlements [post]
func (h *Handler) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.GroupID <= 0 {
		response.BadRequest(w, "group_id is required")
		return
	}

	settlement, err := h.service.CreateSettlement(r.Context(), creatorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPeriod):
			response.BadRequest(w, "Invalid period: use YYYY-MM-DD with start <= end")
		case errors.Is(err, ErrOverlappingPeriod):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrShareSumMismatch), errors.Is(err, ErrResidualBalance):
			response.InternalError(w, "Inconsistent expense data")
		default:
			response.InternalError(w, "Failed to create settlement")
		}
		return
	}

	response.JSON(w, http.StatusCreated, settlement.ToResponse())
}

// ListSettlements godoc
// @Summary List settlements
// @Description Get a group's settlements, newest first
// @Tags settlements
// @Produce json
// @Param group_id query int true "Group ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} response.APIResponse{data=[]SettlementResponse}
// @Failure 400 {object} response.APIResponse
// @Router /settlements [get]
func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	if err != nil || groupID <= 0 {
		response.BadRequest(w, "group_id query parameter is required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	settlements, total, err := h.service.ListByGroupID(r.Context(), groupID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list settlements")
		return
	}

	responses := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		responses[i] = s.ToResponse()
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	response.JSONWithMeta(w, http.StatusOK, responses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// GetBalances godoc
// @Summary Preview balances
// @Description Get a group's live net balances and the payments that would settle them, without creating a settlement
// @Tags settlements
// @Produce json
// @Param group_id query int true "Group ID"
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.APIResponse{data=BalancesResponse}
// @Failure 400 {object} response.APIResponse
// @Router /settlements/balances [get]
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	if err != nil || groupID <= 0 {
		response.BadRequest(w, "group_id query parameter is required")
		return
	}
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		response.BadRequest(w, "from and to query parameters are required")
		return
	}

	balances, payments, err := h.service.GetBalances(r.Context(), groupID, from, to)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPeriod):
			response.BadRequest(w, "Invalid period: use YYYY-MM-DD with start <= end")
		case errors.Is(err, ErrShareSumMismatch), errors.Is(err, ErrResidualBalance):
			response.InternalError(w, "Inconsistent expense data")
		default:
			response.InternalError(w, "Failed to compute balances")
		}
		return
	}

	balanceResponses := make([]*BalanceResponse, 0, len(balances))
	for _, b := range balances {
		balanceResponses = append(balanceResponses, &BalanceResponse{
			MemberID: b.MemberID,
			Paid:     b.Paid,
			Owed:     b.Owed,
			Net:      b.Net,
		})
	}
	paymentResponses := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		paymentResponses[i] = p.ToResponse()
	}

	response.JSON(w, http.StatusOK, &BalancesResponse{
		GroupID:  groupID,
		From:     from,
		To:       to,
		Balances: balanceResponses,
		Payments: paymentResponses,
	})
}

// GetSettlement godoc
// @Summary Get a settlement
// @Description Get a settlement with its payments by ID
// @Tags settlements
// @Produce json
// @Param id path int true "Settlement ID"
// @Success 200 {object} response.APIResponse{data=SettlementResponse}
// @Failure 404 {object} response.APIResponse
// @Router /settlements/{id} [get]
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return
	}

	settlement, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSettlementNotFound) {
			response.NotFound(w, "Settlement not found")
			return
		}
		response.InternalError(w, "Failed to get settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// MarkPaymentPaid godoc
// @Summary Mark a payment as paid
// @Description Record one payment as made. The settlement becomes SETTLED when its last payment is marked paid.
// @Tags settlements
// @Produce json
// @Param id path int true "Settlement ID"
// @Param paymentID path int true "Payment ID"
// @Success 200 {object} response.APIResponse{data=SettlementResponse}
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /settlements/{id}/payments/{paymentID}/pay [post]
func (h *Handler) MarkPaymentPaid(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	settlementID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return
	}
	paymentID, err := strconv.ParseInt(chi.URLParam(r, "paymentID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid payment ID")
		return
	}

	settlement, err := h.service.MarkPaymentPaid(r.Context(), settlementID, paymentID, actorID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSettlementNotFound):
			response.NotFound(w, "Settlement not found")
		case errors.Is(err, ErrPaymentNotFound):
			response.NotFound(w, "Payment not found")
		case errors.Is(err, ErrNotPayer):
			response.Forbidden(w, "Only the payment's debtor can mark it paid")
		case errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrInvalidState):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to mark payment paid")
		}
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// ReopenSettlement godoc
// @Summary Reopen a settlement
// @Description Roll a settled settlement back to PENDING, resetting all payments and unfreezing the period's expenses
// @Tags settlements
// @Produce json
// @Param id path int true "Settlement ID"
// @Success 200 {object} response.APIResponse{data=SettlementResponse}
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /settlements/{id}/reopen [post]
func (h *Handler) ReopenSettlement(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	settlementID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return
	}

	settlement, err := h.service.ReopenSettlement(r.Context(), settlementID, actorID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSettlementNotFound):
			response.NotFound(w, "Settlement not found")
		case errors.Is(err, ErrNotAllowed):
			response.Forbidden(w, "Only the settlement creator or group owner can reopen")
		case errors.Is(err, ErrInvalidState):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to reopen settlement")
		}
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}
