package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/ports"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/usecase"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/export"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/labels"
)

type ctxKey string

const (
	timeFormat             = "2006-01-02T15:04:05.999999999Z07:00"
	principalCtxKey ctxKey = "principal"
	maxJSONBodySize        = 1 << 20
)

type Handler struct {
	registry *usecase.RegistryService
	qr       *usecase.QRService
	auth     *usecase.AuthService
	audit    *usecase.AuditService
	cache    ports.ReplayCache
}

func NewHandler(registry *usecase.RegistryService, qr *usecase.QRService, auth *usecase.AuthService, audit *usecase.AuditService, cache ports.ReplayCache) *Handler {
	return &Handler{registry: registry, qr: qr, auth: auth, audit: audit, cache: cache}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAPIKey)
		pr.Post("/v1/assets", h.createAsset)
		pr.Get("/v1/assets", h.listAssets)
		pr.Get("/v1/assets/export.xlsx", h.exportAssets)
		pr.Get("/v1/assets/{id}", h.getAsset)
		pr.Get("/v1/assets/{id}/label.png", h.assetLabel)
		pr.Post("/v1/assets/{id}:check-out", h.checkOut)
		pr.Post("/v1/assets/{id}:check-in", h.checkIn)
		pr.Post("/v1/assets/{id}:retire", h.retire)
		pr.Patch("/v1/assets/{id}/metadata", h.editMetadata)
		pr.Get("/v1/qr/resolve", h.resolveQR)
		pr.Get("/v1/audit", h.listAudit)
	})

	return r
}

type createAssetRequest struct {
	Branch      string `json:"branch"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type checkOutRequest struct {
	Holder          string `json:"holder"`
	ExpectedVersion int64  `json:"expected_version"`
}

type checkInRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
}

type retireRequest struct {
	ExpectedVersion int64  `json:"expected_version"`
	Note            string `json:"note"`
}

type editMetadataRequest struct {
	ExpectedVersion int64           `json:"expected_version"`
	Fields          json.RawMessage `json:"fields"`
}

type assetResponse struct {
	ID             string  `json:"asset_id"`
	Branch         string  `json:"branch"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	Holder         *string `json:"holder"`
	Version        int64   `json:"version"`
	LastModifiedAt string  `json:"last_modified_at"`
	LastModifiedBy string  `json:"last_modified_by"`
}

type auditResponse struct {
	ID              string `json:"id"`
	AssetID         string `json:"asset_id"`
	Action          string `json:"action"`
	Actor           string `json:"actor"`
	Timestamp       string `json:"timestamp"`
	PreviousVersion int64  `json:"previous_version"`
	NewVersion      int64  `json:"new_version"`
	Note            string `json:"note,omitempty"`
}

func (h *Handler) createAsset(w http.ResponseWriter, r *http.Request) {
	p := principalFromContext(r.Context())

	var req createAssetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.runMutation(w, r, "create", func() (domain.Asset, error) {
		return h.registry.CreateAsset(r.Context(), p, req.Branch, req.Category, req.Description)
	})
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := principalFromContext(r.Context())

	var req checkOutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.runMutation(w, r, "check-out/"+id, func() (domain.Asset, error) {
		return h.registry.CheckOut(r.Context(), p, id, req.Holder, req.ExpectedVersion)
	})
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := principalFromContext(r.Context())

	var req checkInRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.runMutation(w, r, "check-in/"+id, func() (domain.Asset, error) {
		return h.registry.CheckIn(r.Context(), p, id, req.ExpectedVersion)
	})
}

func (h *Handler) retire(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := principalFromContext(r.Context())

	var req retireRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.runMutation(w, r, "retire/"+id, func() (domain.Asset, error) {
		return h.registry.Retire(r.Context(), p, id, req.ExpectedVersion, req.Note)
	})
}

func (h *Handler) editMetadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := principalFromContext(r.Context())

	var req editMetadataRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "fields must not be empty")
		return
	}

	h.runMutation(w, r, "edit/"+id, func() (domain.Asset, error) {
		return h.registry.EditMetadata(r.Context(), p, id, req.Fields, req.ExpectedVersion)
	})
}

func (h *Handler) getAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.registry.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetResponse(asset))
}

func (h *Handler) listAssets(w http.ResponseWriter, r *http.Request) {
	filter := usecase.ListFilter{
		Status:   domain.Status(r.URL.Query().Get("status")),
		Category: r.URL.Query().Get("category"),
		Holder:   r.URL.Query().Get("holder"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "bad_request", "unknown status filter")
		return
	}

	assets, err := h.registry.ListAssets(r.Context(), filter)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	items := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		items = append(items, toAssetResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) exportAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.registry.ListAssets(r.Context(), usecase.ListFilter{})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="assets.xlsx"`)
	if err := export.WriteXLSX(w, assets); err != nil {
		log.Printf("export assets: %v", err)
	}
}

func (h *Handler) assetLabel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.registry.GetAsset(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}

	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed > 2048 {
			writeError(w, http.StatusBadRequest, "bad_request", "size must be an integer up to 2048")
			return
		}
		size = parsed
	}

	png, err := labels.PNG(id, size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		log.Printf("write label: %v", err)
	}
}

func (h *Handler) resolveQR(w http.ResponseWriter, r *http.Request) {
	payload := r.URL.Query().Get("payload")
	assetID, err := h.qr.Resolve(r.Context(), payload)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"asset_id": assetID})
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be integer")
			return
		}
		limit = parsed
	}

	records, err := h.audit.List(r.Context(), domain.AuditFilter{
		AssetID: r.URL.Query().Get("asset_id"),
		Action:  r.URL.Query().Get("action"),
		Actor:   r.URL.Query().Get("actor"),
		Limit:   limit,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	items := make([]auditResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, auditResponse{
			ID:              rec.ID,
			AssetID:         rec.AssetID,
			Action:          rec.Action,
			Actor:           rec.Actor,
			Timestamp:       rec.Timestamp.UTC().Format(timeFormat),
			PreviousVersion: rec.PreviousVersion,
			NewVersion:      rec.NewVersion,
			Note:            rec.Note,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// runMutation executes a registry transition with Idempotency-Key replay: a
// retried request with the same key returns the recorded outcome instead of
// re-running the transition.
func (h *Handler) runMutation(w http.ResponseWriter, r *http.Request, op string, fn func() (domain.Asset, error)) {
	p := principalFromContext(r.Context())
	token := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	key := "idem/" + p.Name + "/" + op + "/" + token

	if token != "" {
		if cached, found, err := h.cache.Get(r.Context(), key); err == nil && found {
			w.Header().Set("X-Idempotent-Replay", "true")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
	}

	asset, err := fn()
	if err != nil && !errors.Is(err, domain.ErrAuditWrite) {
		handleDomainError(w, err)
		return
	}
	if errors.Is(err, domain.ErrAuditWrite) {
		// Mutation committed; only the ledger entry is missing.
		w.Header().Set("X-Audit-Warning", "append-failed")
	}

	body := toAssetResponse(asset)
	if token != "" {
		if encoded, marshalErr := json.Marshal(body); marshalErr == nil {
			if putErr := h.cache.Put(r.Context(), key, append(encoded, '\n')); putErr != nil {
				log.Printf("store idempotent response: %v", putErr)
			}
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		principal, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal", "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), principalCtxKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func toAssetResponse(a domain.Asset) assetResponse {
	resp := assetResponse{
		ID:             a.ID,
		Branch:         a.Branch,
		Category:       a.Category,
		Description:    a.Description,
		Status:         string(a.Status),
		Version:        a.Version,
		LastModifiedAt: a.LastModifiedAt.UTC().Format(timeFormat),
		LastModifiedBy: a.LastModifiedBy,
	}
	if a.Holder != "" {
		holder := a.Holder
		resp.Holder = &holder
	}
	return resp
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return false
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("encode json response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": message, "code": code})
}

func handleDomainError(w http.ResponseWriter, err error) {
	var fieldErr *domain.ErrFieldViolation
	switch {
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "metadata validation failed",
			"code":    "field_violation",
			"details": fieldErr.Errors,
		})
	case errors.Is(err, domain.ErrMalformedPayload):
		writeError(w, http.StatusBadRequest, "malformed_payload", err.Error())
	case errors.Is(err, usecase.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrPermission):
		writeError(w, http.StatusForbidden, "permission_denied", err.Error())
	case errors.Is(err, domain.ErrUnknownAsset):
		writeError(w, http.StatusNotFound, "unknown_asset", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		writeError(w, http.StatusConflict, "version_conflict", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, domain.ErrTagExhausted):
		writeError(w, http.StatusConflict, "tag_exhausted", err.Error())
	case errors.Is(err, domain.ErrIndeterminate):
		writeError(w, http.StatusBadGateway, "indeterminate", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func principalFromContext(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalCtxKey).(domain.Principal)
	return p
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, openapiSpec())
}

func openapiSpec() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "it-asset-tracker",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/v1/assets": map[string]any{
				"post": map[string]any{"summary": "Create asset"},
				"get":  map[string]any{"summary": "List assets"},
			},
			"/v1/assets/{id}": map[string]any{
				"get": map[string]any{"summary": "Get asset"},
			},
			"/v1/assets/{id}:check-out": map[string]any{
				"post": map[string]any{"summary": "Check asset out to a holder"},
			},
			"/v1/assets/{id}:check-in": map[string]any{
				"post": map[string]any{"summary": "Check asset back into stock"},
			},
			"/v1/assets/{id}:retire": map[string]any{
				"post": map[string]any{"summary": "Retire asset (terminal)"},
			},
			"/v1/assets/{id}/metadata": map[string]any{
				"patch": map[string]any{"summary": "Edit asset metadata"},
			},
			"/v1/assets/{id}/label.png": map[string]any{
				"get": map[string]any{"summary": "Render QR label"},
			},
			"/v1/assets/export.xlsx": map[string]any{
				"get": map[string]any{"summary": "Export inventory workbook"},
			},
			"/v1/qr/resolve": map[string]any{
				"get": map[string]any{"summary": "Resolve scanned QR payload"},
			},
			"/v1/audit": map[string]any{
				"get": map[string]any{"summary": "List audit trail"},
			},
		},
	}
}
