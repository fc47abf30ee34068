package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/api"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/auth"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/observability"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/storage"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/transport"
)

// Adapter serves the dojo management API over HTTP. It routes requests,
// applies the auth gate, and serializes responses on the Portuguese wire
// contract (nome, modalidade, pagamentos, ...).
type Adapter struct {
	store  transport.Store
	logins *auth.LoginService
	chain  *auth.AuthChain
	mux    *http.ServeMux
	config Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr           string
	MaxBodySize    int64
	RequestTimeout time.Duration
	MetricsHandler http.Handler // nil disables the /metrics endpoint
	Logger         *slog.Logger
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           ":3000",
		MaxBodySize:    1 << 20, // 1 MB
		RequestTimeout: 10 * time.Second,
		Logger:         slog.Default(),
	}
}

// NewAdapter creates an HTTP adapter over the given store. The AuthChain
// gates every route except the bypass endpoints (liveness, login, health,
// metrics); requests that pass the gate carry the token's identity and
// tenant in their context.
func NewAdapter(store transport.Store, logins *auth.LoginService, chain *auth.AuthChain, cfg Config) *Adapter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	a := &Adapter{
		store:  store,
		logins: logins,
		chain:  chain,
		mux:    http.NewServeMux(),
		config: cfg,
	}

	a.mux.HandleFunc("GET /{$}", a.handleLiveness)
	a.mux.HandleFunc("POST /login", a.handleLogin)
	a.mux.HandleFunc("GET /students", a.handleListStudents)
	a.mux.HandleFunc("POST /students", a.handleCreateStudent)
	a.mux.HandleFunc("PUT /students/{id}", a.handleUpdateStudent)
	a.mux.HandleFunc("PATCH /students/{id}/payments", a.handleUpdatePayments)
	a.mux.HandleFunc("GET /dojo-config", a.handleGetDojoConfig)
	a.mux.HandleFunc("PUT /dojo-config", a.handlePutDojoConfig)
	a.mux.HandleFunc("GET /financial-config", a.handleGetFinancialConfig)
	a.mux.HandleFunc("PUT /financial-config", a.handlePutFinancialConfig)
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	if cfg.MetricsHandler != nil {
		a.mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	return a
}

// Handler returns the http.Handler for this adapter with the full
// middleware stack applied: recovery, request ID, logging, metrics, the
// per-request deadline, and finally the auth gate in front of the mux.
// Use this to integrate with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	mw := []transport.Middleware{
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(a.config.Logger),
		observability.MetricsMiddleware,
	}
	if a.config.RequestTimeout > 0 {
		mw = append(mw, transport.Timeout(a.config.RequestTimeout))
	}
	mw = append(mw, auth.Middleware(a.chain, auth.DefaultBypassEndpoints))

	return transport.Chain(mw...)(a.mux)
}

// handleLiveness handles GET /. It predates the structured health check
// and is kept for deployment probes that only understand a banner.
func (a *Adapter) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Backend online 🚀")
}

// handleLogin handles POST /login.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		transport.WriteAPIError(w, api.NewInvalidRequestError("email", "email and password are required"))
		return
	}

	resp, err := a.logins.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			transport.WriteAPIError(w, api.NewNotFoundError("user does not exist"))
		case errors.Is(err, auth.ErrWrongPassword):
			transport.WriteAPIError(w, api.NewUnauthorizedError("incorrect password"))
		default:
			a.config.Logger.Error("login failed", slog.String("error", err.Error()))
			transport.WriteAPIError(w, api.NewServerError("login failed"))
		}
		return
	}

	transport.WriteJSON(w, http.StatusOK, resp)
}

// handleListStudents handles GET /students.
func (a *Adapter) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := a.store.ListStudents(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "list_students", "")
		return
	}
	transport.WriteJSON(w, http.StatusOK, students)
}

// handleCreateStudent handles POST /students. Any user_id in the body is
// discarded; ownership always comes from the session.
func (a *Adapter) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var st api.Student
	if !a.decodeBody(w, r, &st) {
		return
	}
	if st.Name == "" {
		transport.WriteAPIError(w, api.NewInvalidRequestError("nome", "nome is required"))
		return
	}

	created, err := a.store.CreateStudent(r.Context(), &st)
	if err != nil {
		a.writeStoreError(w, err, "create_student", "")
		return
	}
	transport.WriteJSON(w, http.StatusCreated, created)
}

// handleUpdateStudent handles PUT /students/{id}. A record owned by
// another user is indistinguishable from a missing one: both are 404.
func (a *Adapter) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var st api.Student
	if !a.decodeBody(w, r, &st) {
		return
	}

	updated, err := a.store.UpdateStudent(r.Context(), id, &st)
	if err != nil {
		a.writeStoreError(w, err, "update_student", studentNotFoundMsg(id))
		return
	}
	transport.WriteJSON(w, http.StatusOK, updated)
}

// handleUpdatePayments handles PATCH /students/{id}/payments. The map in
// the body replaces the stored one wholesale, so the operation is
// idempotent.
func (a *Adapter) handleUpdatePayments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var patch api.PaymentsPatch
	if !a.decodeBody(w, r, &patch) {
		return
	}
	if patch.Payments == nil {
		transport.WriteAPIError(w, api.NewInvalidRequestError("pagamentos", "pagamentos is required"))
		return
	}

	updated, err := a.store.UpdatePayments(r.Context(), id, patch.Payments)
	if err != nil {
		a.writeStoreError(w, err, "update_payments", studentNotFoundMsg(id))
		return
	}
	transport.WriteJSON(w, http.StatusOK, updated)
}

// handleGetDojoConfig handles GET /dojo-config. A tenant with no stored
// row gets the empty default, never a 404.
func (a *Adapter) handleGetDojoConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.store.GetDojoConfig(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "get_dojo_config", "")
		return
	}
	transport.WriteJSON(w, http.StatusOK, cfg)
}

// handlePutDojoConfig handles PUT /dojo-config.
func (a *Adapter) handlePutDojoConfig(w http.ResponseWriter, r *http.Request) {
	var cfg api.DojoConfig
	if !a.decodeBody(w, r, &cfg) {
		return
	}
	if cfg.Modalities == nil {
		cfg.Modalities = map[string]string{}
	}
	if cfg.Instructors == nil {
		cfg.Instructors = map[string]string{}
	}

	if err := a.store.SaveDojoConfig(r.Context(), &cfg); err != nil {
		a.writeStoreError(w, err, "save_dojo_config", "")
		return
	}
	transport.WriteJSON(w, http.StatusOK, &cfg)
}

// handleGetFinancialConfig handles GET /financial-config.
func (a *Adapter) handleGetFinancialConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.store.GetFinancialConfig(r.Context())
	if err != nil {
		a.writeStoreError(w, err, "get_financial_config", "")
		return
	}
	transport.WriteJSON(w, http.StatusOK, cfg)
}

// handlePutFinancialConfig handles PUT /financial-config. The document is
// opaque to the backend; it is stored and served back verbatim.
func (a *Adapter) handlePutFinancialConfig(w http.ResponseWriter, r *http.Request) {
	var cfg api.FinancialConfig
	if !a.decodeBody(w, r, &cfg) {
		return
	}
	if cfg == nil {
		cfg = api.FinancialConfig{}
	}

	if err := a.store.SaveFinancialConfig(r.Context(), cfg); err != nil {
		a.writeStoreError(w, err, "save_financial_config", "")
		return
	}
	transport.WriteJSON(w, http.StatusOK, cfg)
}

// handleHealthz handles GET /healthz. It pings the store so a wedged
// database shows up as 503 rather than a healthy banner.
func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := a.store.HealthCheck(r.Context()); err != nil {
		a.config.Logger.Error("health check failed", slog.String("error", err.Error()))
		transport.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody decodes a JSON request body into dst, enforcing the body
// size limit and the Content-Type contract. It writes the error response
// itself and reports whether decoding succeeded.
func (a *Adapter) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && ct != "application/json; charset=utf-8" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteAPIError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()))
		return false
	}
	return true
}

// writeStoreError maps a store failure to the wire. ErrNotFound becomes a
// 404 with notFoundMsg when one applies; everything else is counted and
// returned as an opaque 500.
func (a *Adapter) writeStoreError(w http.ResponseWriter, err error, op, notFoundMsg string) {
	if notFoundMsg != "" && errors.Is(err, storage.ErrNotFound) {
		transport.WriteAPIError(w, api.NewNotFoundError(notFoundMsg))
		return
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		transport.WriteAPIError(w, apiErr)
		return
	}

	observability.StoreErrorsTotal.WithLabelValues(op).Inc()
	a.config.Logger.Error("store operation failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	transport.WriteAPIError(w, api.NewServerError("internal error"))
}

func studentNotFoundMsg(id int64) string {
	return "student " + strconv.FormatInt(id, 10) + " not found"
}

// pathID parses the {id} path segment. Malformed IDs are a client error,
// not a missing record.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}
