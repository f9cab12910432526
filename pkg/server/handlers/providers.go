package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/routing"
)

// Recommendation criteria accepted by GET /queue/providers/recommend.
const (
	RecommendLeastLoaded = "least-loaded"
	RecommendFastest     = "fastest"
	RecommendCheapest    = "cheapest"
)

// ProvidersHandler serves the provider inspection endpoints.
type ProvidersHandler struct {
	providers map[string]providers.Provider
	monitor   *health.Monitor
}

// NewProvidersHandler creates the provider inspection handler.
func NewProvidersHandler(providerMap map[string]providers.Provider, monitor *health.Monitor) *ProvidersHandler {
	return &ProvidersHandler{providers: providerMap, monitor: monitor}
}

// providerView is the JSON projection of one provider.
type providerView struct {
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Models       []string        `json:"models,omitempty"`
	CostPerToken float64         `json:"cost_per_token"`
	CurrentLoad  int64           `json:"current_load"`
	Health       health.Snapshot `json:"health"`
}

// List handles GET /queue/providers.
func (h *ProvidersHandler) List(w http.ResponseWriter, r *http.Request) {
	views := make([]providerView, 0, len(h.providers))
	for _, p := range h.sorted() {
		views = append(views, providerView{
			Name:         p.GetName(),
			Type:         p.GetType(),
			Models:       p.Capabilities().Models,
			CostPerToken: p.CostPerToken(),
			CurrentLoad:  p.CurrentLoad(),
			Health:       h.monitor.Status(p.GetName()),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"providers": views,
		"timestamp": time.Now().UTC(),
	})
}

// Recommend handles GET /queue/providers/recommend?by=...&model=... It
// answers the administrative question "which provider would serve this
// best right now" without touching the dispatcher's strategy.
func (h *ProvidersHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		by = RecommendLeastLoaded
	}

	model := r.URL.Query().Get("model")
	candidates := h.candidates(model)
	if len(candidates) == 0 {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("no provider can serve model %q", model), ErrorTypeNotFound, "")
		return
	}

	var chosen providers.Provider
	switch by {
	case RecommendLeastLoaded:
		chosen = routing.LeastLoaded(candidates)
	case RecommendFastest:
		chosen = routing.Fastest(candidates, h.monitor)
	case RecommendCheapest:
		chosen = routing.Cheapest(candidates)
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid criterion %q: must be least-loaded, fastest, or cheapest", by),
			ErrorTypeInvalidRequest, "invalid_criterion")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"provider": chosen.GetName(),
		"by":       by,
		"model":    model,
		"health":   h.monitor.Status(chosen.GetName()),
	})
}

// candidates returns providers able to serve the model, in name order so
// reducer tie-breaks are deterministic.
func (h *ProvidersHandler) candidates(model string) []providers.Provider {
	var out []providers.Provider
	for _, p := range h.sorted() {
		if model != "" && !p.Capabilities().SupportsModel(model) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (h *ProvidersHandler) sorted() []providers.Provider {
	names := make([]string, 0, len(h.providers))
	for name := range h.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]providers.Provider, 0, len(names))
	for _, name := range names {
		out = append(out, h.providers[name])
	}
	return out
}
