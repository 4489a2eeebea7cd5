package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterMux binds gorilla/mux routes.
func (h *Handler) RegisterMux(r *mux.Router) {
	r.HandleFunc(routeSubmit, h.handleSubmit).Methods(http.MethodPost).Name(routeNameSubmit)
	r.HandleFunc(routeStatus, h.handleStatus).Methods(http.MethodGet).Name(routeNameStatus)
}
