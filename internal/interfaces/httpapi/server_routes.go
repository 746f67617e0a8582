package httpapi

import "net/http"

func registerRoutes(mux *http.ServeMux, handler *Handler, adminJobToken string) {
	mux.HandleFunc("GET /healthz", handler.Healthz)

	mux.HandleFunc("GET /matches/live", handler.ListMatchesLive)
	mux.HandleFunc("GET /matches/{id}/enhanced-data", handler.GetMatchEnhancedData)
	mux.Handle("POST /matches/{id}/force-start", RequireAdminToken(adminJobToken, http.HandlerFunc(handler.ForceStartMatch)))

	mux.HandleFunc("GET /tournaments/{id}", handler.GetTournament)
	mux.HandleFunc("POST /tournaments/{id}/enter", handler.EnterTournament)

	mux.HandleFunc("GET /standings", handler.ListStandings)
	mux.HandleFunc("GET /season/current", handler.GetSeasonCurrent)
}
