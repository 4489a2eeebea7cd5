package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterMux binds gorilla/mux routes.
func (h *Handler) RegisterMux(r *mux.Router) {
	r.HandleFunc(routeAccount, h.handleAccount).Methods(http.MethodGet).Name(routeNameAccount)
	r.HandleFunc(routeAccountBadges, h.handleBadges).Methods(http.MethodGet).Name(routeNameAccountBadges)
	r.HandleFunc(routeAccountRemaining, h.handleRemaining).Methods(http.MethodGet).Name(routeNameAccountRemaining)
	r.HandleFunc(routeAccountProfile, h.handleProfile).Methods(http.MethodGet).Name(routeNameAccountProfile)
	r.HandleFunc(routeWizardSupply, h.handleSupply).Methods(http.MethodGet).Name(routeNameWizardSupply)
	r.HandleFunc(routeStartChallenge, h.handleStart).Methods(http.MethodPost).Name(routeNameStartChallenge)
	r.HandleFunc(routeDryRun, h.handleDryRun).Methods(http.MethodPost).Name(routeNameDryRun)
}
