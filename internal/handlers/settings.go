package handlers

import (
	"net/http"

	"github.com/diewo77/go-orders/httpx"
	"github.com/diewo77/go-orders/internal/settings"
)

type SettingsHandler struct {
	store *settings.Store
}

func NewSettingsHandler(store *settings.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

type settingView struct {
	Kind  settings.Kind `json:"kind"`
	Value string        `json:"value"`
}

// List handles GET /settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make(map[string]settingView, len(all))
	for k, v := range all {
		out[k] = settingView{Kind: v.Kind(), Value: v.String()}
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Put handles PUT /settings/{key} with {"kind": "number", "value": "0.01"}.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req settingView
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := settings.Decode(req.Kind, req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.Set(r.Context(), key, v); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]settingView{key: {Kind: v.Kind(), Value: v.String()}})
}

// Delete handles DELETE /settings/{key}; the default applies again afterwards.
func (h *SettingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("key")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
