package http

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// BalanceReader returns an employee's ledger after lazy accrual.
type BalanceReader interface {
	Balance(ctx context.Context, employeeID string) (employee.BalanceResponse, error)
}

type BalanceHandler interface {
	GetMine(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
}

type balanceHandlerImpl struct {
	ledger BalanceReader
}

func NewBalanceHandler(ledger BalanceReader) BalanceHandler {
	return &balanceHandlerImpl{ledger: ledger}
}

func (h *balanceHandlerImpl) GetMine(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledger.Balance(r.Context(), employeeIDFromContext(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, balance)
}

func (h *balanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	balance, err := h.ledger.Balance(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, balance)
}
