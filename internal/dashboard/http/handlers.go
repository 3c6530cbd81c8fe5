package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/kentsang666/football-ai-live/internal/engine"
	"github.com/kentsang666/football-ai-live/internal/ledger"
)

// API expõe os endpoints REST de consulta do dashboard: pricing corrente
// (cache Redis) e o portfólio de papel (ledger).
type API struct {
	Cache *engine.PriceCache
	Store ledger.Store
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/fixtures/{id}/pricing", a.getPricing) // pricing corrente de uma partida
	r.Get("/v1/wagers/open", a.listOpenWagers)       // wagers abertos (filtro ?fixture=)
	r.Get("/v1/bankroll", a.getBankroll)             // saldo corrente
	r.Get("/v1/ledger", a.listLedger)                // extrato completo
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// getPricing retorna o último PricingUpdate da partida, direto do cache
func (a *API) getPricing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	up, err := a.Cache.GetCurrent(r.Context(), id)
	if errors.Is(err, redis.Nil) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, up)
}

// listOpenWagers retorna os wagers abertos, opcionalmente de um fixture
func (a *API) listOpenWagers(w http.ResponseWriter, r *http.Request) {
	fixture := r.URL.Query().Get("fixture")

	open, err := a.Store.OpenWagers(r.Context(), fixture)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if open == nil {
		open = []ledger.Wager{}
	}
	writeJSON(w, http.StatusOK, open)
}

// getBankroll retorna o saldo corrente em cents
func (a *API) getBankroll(w http.ResponseWriter, r *http.Request) {
	bal, err := a.Store.BalanceCents(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance_cents": bal})
}

// listLedger retorna o extrato completo do bankroll
func (a *API) listLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := a.Store.Entries(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
