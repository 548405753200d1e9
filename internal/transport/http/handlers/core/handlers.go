package corehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/domain/core"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
)

type Handler struct {
	Store *core.Store
}

func NewHandler(store *core.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/{employeeID}", h.handleGet)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		api.Fail(w, r, http.StatusInternalServerError, "employees_failed", "failed to list employees")
		return
	}
	api.OK(w, r, employees)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		api.Fail(w, r, http.StatusInternalServerError, "employee_failed", "failed to load employee")
		return
	}
	api.OK(w, r, employee)
}
