package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type RequestHandler interface {
	SubmitLeave(w http.ResponseWriter, r *http.Request)
	SubmitOvertime(w http.ResponseWriter, r *http.Request)
	SubmitOutdoorDuty(w http.ResponseWriter, r *http.Request)

	Decide(w http.ResponseWriter, r *http.Request)

	Get(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListAwaiting(w http.ResponseWriter, r *http.Request)
}

type RequestHandlerImpl struct {
	approvalService request.ApprovalService
}

func NewRequestHandler(approvalService request.ApprovalService) RequestHandler {
	return &RequestHandlerImpl{
		approvalService: approvalService,
	}
}

// SubmitLeave implements RequestHandler.
func (h *RequestHandlerImpl) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SubmitLeave decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = employeeIDFromContext(r)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	resp, err := h.approvalService.SubmitLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted", resp)
}

// SubmitOvertime implements RequestHandler.
func (h *RequestHandlerImpl) SubmitOvertime(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitOvertimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SubmitOvertime decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = employeeIDFromContext(r)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	resp, err := h.approvalService.SubmitOvertime(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Overtime claim submitted", resp)
}

// SubmitOutdoorDuty implements RequestHandler.
func (h *RequestHandlerImpl) SubmitOutdoorDuty(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitOutdoorDutyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SubmitOutdoorDuty decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = employeeIDFromContext(r)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	resp, err := h.approvalService.SubmitOutdoorDuty(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Outdoor duty request submitted", resp)
}

// Decide implements RequestHandler.
func (h *RequestHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	var req request.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Decide decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.RequestID = chi.URLParam(r, "id")
	req.ActorID = employeeIDFromContext(r)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	resp, err := h.approvalService.Decide(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Decision recorded", resp)
}

// Get implements RequestHandler. Requests outside the caller's view read as
// not found.
func (h *RequestHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return
	}

	resp, err := h.approvalService.GetFor(r.Context(), requestID, employeeIDFromContext(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// ListMine implements RequestHandler.
func (h *RequestHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	resp, err := h.approvalService.ListForEmployee(r.Context(), employeeIDFromContext(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// ListAwaiting implements RequestHandler.
func (h *RequestHandlerImpl) ListAwaiting(w http.ResponseWriter, r *http.Request) {
	resp, err := h.approvalService.ListAwaiting(r.Context(), employeeIDFromContext(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}
