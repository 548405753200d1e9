package payrollhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/domain/core"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/platform/payslip"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
)

type Handler struct {
	Service  *payroll.Service
	Core     *core.Store
	Payslips *payslip.Renderer
}

func NewHandler(service *payroll.Service, coreStore *core.Store, renderer *payslip.Renderer) *Handler {
	return &Handler{Service: service, Core: coreStore, Payslips: renderer}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/periods", h.handleListPeriods)
		r.Post("/periods", h.handleCreatePeriod)
		r.Get("/periods/{period}", h.handleGetPeriod)
		r.Post("/periods/{period}/calculate", h.handleCalculate)
		r.Post("/periods/{period}/mark-paid", h.handleMarkPaid)
		r.Post("/periods/{period}/resend-failed", h.handleResendFailed)
		r.Get("/periods/{period}/payments", h.handleListPayments)
		r.Get("/payments/{employeeID}/{period}", h.handleGetPayment)
		r.Get("/payments/{employeeID}/{period}/payslip", h.handleDownloadPayslip)
	})
}

type createPeriodPayload struct {
	Period    string `json:"period"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

func (h *Handler) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	var payload createPeriodPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "invalid request body")
		return
	}

	var start, end time.Time
	var err error
	if payload.StartDate != "" {
		if start, err = time.Parse("2006-01-02", payload.StartDate); err != nil {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "startDate must use YYYY-MM-DD")
			return
		}
	}
	if payload.EndDate != "" {
		if end, err = time.Parse("2006-01-02", payload.EndDate); err != nil {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "endDate must use YYYY-MM-DD")
			return
		}
	}

	period, err := h.Service.CreatePeriod(r.Context(), payload.Period, start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, r, period)
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.ListPeriods(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.OK(w, r, periods)
}

func (h *Handler) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Service.GetPeriod(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.OK(w, r, period)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.Calculate(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.OK(w, r, result)
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	actor := ""
	if user, ok := middleware.GetUser(r.Context()); ok {
		actor = user.Email
	}
	result, err := h.Service.MarkPaid(r.Context(), chi.URLParam(r, "period"), actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.OK(w, r, result)
}

func (h *Handler) handleResendFailed(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.ResendFailed(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.OK(w, r, result)
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Service.ListPayments(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.OK(w, r, payments)
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.Service.GetPayment(r.Context(), chi.URLParam(r, "employeeID"), chi.URLParam(r, "period"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.OK(w, r, payment)
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	payment, err := h.Service.GetPayment(r.Context(), employeeID, chi.URLParam(r, "period"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	employee, err := h.Core.GetEmployee(r.Context(), employeeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pdf, err := h.Payslips.Render(payment, employee.FullName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%s-%s.pdf", employeeID, payment.Period))
	_, _ = w.Write(pdf)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payroll.ErrInvalidPeriod):
		api.Fail(w, r, http.StatusBadRequest, "invalid_period", err.Error())
	case errors.Is(err, payroll.ErrPeriodNotFound),
		errors.Is(err, payroll.ErrPaymentNotFound),
		errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, payroll.ErrDuplicatePeriod),
		errors.Is(err, payroll.ErrAlreadyPaid),
		errors.Is(err, payroll.ErrCloseInProgress):
		api.Fail(w, r, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, payroll.ErrInvalidStatus),
		errors.Is(err, payroll.ErrNoPayments):
		api.Fail(w, r, http.StatusUnprocessableEntity, "invalid_status", err.Error())
	case errors.Is(err, payroll.ErrTransport):
		api.Fail(w, r, http.StatusBadGateway, "transport_unavailable", err.Error())
	default:
		api.Fail(w, r, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
