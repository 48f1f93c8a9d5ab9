package ddbui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/awsddb"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/deletion"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/query"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/render"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// IdentityFunc reports the AWS identity the server runs as.
type IdentityFunc func(context.Context) (awsddb.Identity, error)

// APIHandler serves the explorer's JSON API.
type APIHandler struct {
	svc      *query.Service
	identity IdentityFunc
}

// NewAPIHandler creates a new API handler. identity may be nil when no AWS
// backend is configured.
func NewAPIHandler(svc *query.Service, identity IdentityFunc) *APIHandler {
	return &APIHandler{svc: svc, identity: identity}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tables", h.listTables)
	mux.HandleFunc("POST /api/query", h.executeQuery)
	mux.HandleFunc("POST /api/update", h.updateItem)
	mux.HandleFunc("POST /api/delete", h.deleteItem)
	mux.HandleFunc("POST /api/render", h.renderItems)
	mux.HandleFunc("GET /api/identity", h.getIdentity)
}

// listTables returns the catalog.
func (h *APIHandler) listTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Catalog().Tables())
}

type queryResponse struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Items   []record.Record `json:"items"`
}

// executeQuery runs a query against the selected index.
func (h *APIHandler) executeQuery(w http.ResponseWriter, r *http.Request) {
	var req query.Params
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "Invalid request body: "+err.Error())
		return
	}
	if _, err := h.svc.Catalog().Environment(req.Environment); err != nil {
		writeError(w, "Invalid environment: "+req.Environment)
		return
	}

	items, err := h.svc.Execute(r.Context(), req)
	if err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Success: true, Count: len(items), Items: items})
}

type updateRequest struct {
	Environment string          `json:"environment"`
	Table       string          `json:"table"`
	Item        json.RawMessage `json:"item"`
}

// updateItem replaces an item with its edited version.
func (h *APIHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "Invalid request body: "+err.Error())
		return
	}
	item, err := record.DecodeRecord(req.Item)
	if err != nil {
		writeError(w, "Invalid item: "+err.Error())
		return
	}
	if err := h.svc.Update(r.Context(), req.Environment, req.Table, item); err != nil {
		writeError(w, "Failed to update item: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// deleteItem deletes one item after verifying its confirmation token.
func (h *APIHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	var req deletion.Request
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "Invalid request body: "+err.Error())
		return
	}
	if _, err := h.svc.Catalog().Environment(req.Environment); err != nil {
		writeError(w, "Invalid environment: "+req.Environment)
		return
	}
	if err := h.svc.Delete(r.Context(), req); err != nil {
		writeError(w, "Failed to delete item: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Successfully deleted item with %s=%s from %s", req.PrimaryKey, req.PrimaryValue, req.Table),
	})
}

type renderRequest struct {
	Items     []json.RawMessage `json:"items"`
	Mode      string            `json:"mode"`
	Search    string            `json:"search"`
	Collapsed []int             `json:"collapsed"`
	// Normalize defaults to true.
	Normalize *bool `json:"normalize"`
}

type renderResponse struct {
	Success    bool   `json:"success"`
	Mode       string `json:"mode"`
	Count      int    `json:"count"`
	CountLabel string `json:"countLabel"`
	HTML       string `json:"html"`
}

// renderItems renders a result set into the markup the web page shows.
func (h *APIHandler) renderItems(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "Invalid request body: "+err.Error())
		return
	}
	mode, err := render.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	records := make([]record.Record, 0, len(req.Items))
	for i, raw := range req.Items {
		rec, err := record.DecodeRecord(raw)
		if err != nil {
			writeError(w, fmt.Sprintf("Invalid item %d: %v", i, err))
			return
		}
		records = append(records, rec)
	}

	var expanded render.ExpandState
	for _, i := range req.Collapsed {
		if i >= 0 && i < len(records) && expanded.IsExpanded(i) {
			expanded = expanded.Toggle(i)
		}
	}

	p := render.Render(records, render.Options{
		Mode:      mode,
		Search:    req.Search,
		Expanded:  expanded,
		Normalize: req.Normalize == nil || *req.Normalize,
	})
	writeJSON(w, http.StatusOK, renderResponse{
		Success:    true,
		Mode:       string(p.Mode),
		Count:      p.Count,
		CountLabel: p.CountLabel,
		HTML:       render.HTMLString(p),
	})
}

// getIdentity reports the AWS caller identity.
func (h *APIHandler) getIdentity(w http.ResponseWriter, r *http.Request) {
	if h.identity == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "backend": "local"})
		return
	}
	id, err := h.identity(r.Context())
	if err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "backend": "aws", "identity": id})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError reports a failed operation. Every failure is a 400 carrying
// {success:false, error}.
func writeError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": message})
}
