package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/julienschmidt/httprouter"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

const (
	PathExecute      = "/execute"
	PathHealth       = "/health"
	HeaderRequestID  = "X-Request-ID"
	maxBodyBytes     = 10 << 20
	contentTypeJSON  = "application/json"
	contentTypePlain = "text/plain; charset=utf-8"
	healthBody       = "OK"
	logMsgRequest    = "request served"
	logAttrRequestID = "request_id"
	logAttrStatus    = "status"
	logAttrError     = "error"
	logAttrDuration  = "duration_ms"
	logAttrRemote    = "remote_addr"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	errMalformedBody = errors.New("request body is not a JSON object")
	errInvalidVuID   = errors.New("'vuID' must be an integer")
)

// Executor runs one query request. *dispatch.Dispatcher satisfies it.
type Executor interface {
	Handle(ctx context.Context, req loadproxy.QueryRequest) error
}

// Readiness reports whether requests can be served. *pool.Pool satisfies it.
type Readiness interface {
	Ready() bool
}

type executeBody struct {
	Query string              `json:"query"`
	VuID  jsoniter.RawMessage `json:"vuID"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the execute and health endpoints.
type Handler struct {
	executor  Executor
	readiness Readiness
	router    *httprouter.Router

	logger           loadproxy.Logger
	contextualLogger loadproxy.ContextualLogger
}

// Option defines a functional option for configuring a Handler.
type Option func(*Handler) error

// WithLogger sets the logger. Served requests are logged at debug level, failures at warn or error level.
func WithLogger(logger loadproxy.Logger) Option {
	return func(h *Handler) error {
		h.logger = logger
		return nil
	}
}

// WithContextualLogger sets a logger that also receives the request context.
func WithContextualLogger(logger loadproxy.ContextualLogger) Option {
	return func(h *Handler) error {
		h.contextualLogger = logger
		return nil
	}
}

// NewHandler wires the routes. A nil readiness means always ready.
func NewHandler(executor Executor, readiness Readiness, options ...Option) (*Handler, error) {
	if executor == nil {
		return nil, errors.New("nil executor supplied")
	}

	h := &Handler{
		executor:  executor,
		readiness: readiness,
		router:    httprouter.New(),
	}

	for _, option := range options {
		if err := option(h); err != nil {
			return nil, err
		}
	}

	h.router.POST(PathExecute, h.execute)
	h.router.GET(PathHealth, h.health)

	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	w.Header().Set(HeaderRequestID, requestID)

	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", contentTypePlain)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, healthBody)
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start := time.Now()
	ctx := r.Context()
	requestID := w.Header().Get(HeaderRequestID)

	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil {
		err = req.Validate()
	}

	if err == nil && h.readiness != nil && !h.readiness.Ready() {
		err = loadproxy.ErrPoolNotReady
	}

	if err == nil {
		err = h.executor.Handle(ctx, req)
	}

	status := statusFor(err)

	if err != nil {
		writeJSON(w, status, errorResponse{Error: errorMessage(err)})
	} else {
		writeJSON(w, status, successResponse{Success: true})
	}

	h.logServed(ctx, requestID, status, err, time.Since(start), r.RemoteAddr)
}

// decodeRequest accepts vuID as a JSON integer or as a string holding an integer.
func decodeRequest(body io.Reader) (loadproxy.QueryRequest, error) {
	var payload executeBody
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return loadproxy.QueryRequest{}, errors.Join(loadproxy.ErrBadRequest, errMalformedBody, err)
	}

	req := loadproxy.QueryRequest{Query: payload.Query}

	raw := string(payload.VuID)
	if raw == "" || raw == "null" {
		return req, nil
	}

	var vuID loadproxy.WorkerID
	if err := json.Unmarshal(payload.VuID, &vuID); err == nil {
		req.VuID = &vuID
		return req, nil
	}

	var text string
	if err := json.Unmarshal(payload.VuID, &text); err == nil {
		if parsed, parseErr := strconv.ParseInt(text, 10, 64); parseErr == nil {
			req.VuID = &parsed
			return req, nil
		}
	}

	return loadproxy.QueryRequest{}, errors.Join(loadproxy.ErrBadRequest, errInvalidVuID)
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case loadproxy.IsBadRequest(err):
		return http.StatusBadRequest
	case errors.Is(err, loadproxy.ErrPoolNotReady), errors.Is(err, loadproxy.ErrPoolClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, loadproxy.ErrQueryTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage strips the sentinel prefix that errors.Join puts on the first line.
func errorMessage(err error) string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		causes := joined.Unwrap()
		if len(causes) > 1 {
			return errors.Join(causes[1:]...).Error()
		}
	}

	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		_, _ = fmt.Fprintf(w, `{"error":%q}`, err.Error())
	}
}
