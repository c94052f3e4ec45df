package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"mercator-hq/tabular/pkg/tabular"
	"mercator-hq/tabular/pkg/telemetry/logging"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID on download responses.
const RequestIDHeader = "X-Request-ID"

// Handler serves the catalog over HTTP:
//
//	GET /exports          JSON list of definitions
//	GET /exports/{name}   CSV download
//
// Downloads accept encoding, line_ending and quote_escaping query
// parameters overriding the definition.
type Handler struct {
	service *Service
	mux     *http.ServeMux
	logger  *slog.Logger
}

// NewHandler creates the export HTTP handler.
func NewHandler(service *Service) *Handler {
	h := &Handler{
		service: service,
		mux:     http.NewServeMux(),
		logger:  slog.Default().With("component", "export.handler"),
	}
	h.mux.HandleFunc("GET /exports", h.list)
	h.mux.HandleFunc("GET /exports/{name}", h.download)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// definitionView is the JSON shape of a listed definition.
type definitionView struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Columns     []tabular.Column `json:"columns"`
	Encoding    string           `json:"encoding,omitempty"`
	Schedule    string           `json:"schedule,omitempty"`
	URL         string           `json:"url"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	defs := h.service.Catalog().Search(r.URL.Query().Get("q"))

	views := make([]definitionView, 0, len(defs))
	for _, def := range defs {
		views = append(views, definitionView{
			Name:        def.Name,
			Description: def.Description,
			Columns:     def.Mapping().Columns(),
			Encoding:    def.Encoding,
			Schedule:    def.Schedule,
			URL:         "/exports/" + def.Name,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"exports": views})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(w, r)
	ctx := logging.WithRequestID(r.Context(), requestID)
	if logging.GetTrigger(ctx) == "" {
		ctx = logging.WithTrigger(ctx, "http")
	}

	overrides, err := parseOverrides(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, requestID, err)
		return
	}

	res, err := h.service.RunWith(ctx, r.PathValue("name"), overrides)
	if err != nil {
		writeError(w, statusFor(err), requestID, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset="+res.Charset)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Name+".csv"))
	w.Header().Set("Content-Length", strconv.FormatInt(res.Size(), 10))
	w.Header().Set("X-Export-Rows", strconv.Itoa(res.Rows))
	w.WriteHeader(http.StatusOK)

	if _, err := res.Reader.WriteTo(w); err != nil {
		h.logger.WarnContext(ctx, "download interrupted", "error", err)
	}
}

// requestIDFor returns the request ID set by upstream middleware or the
// client, generating one otherwise, and echoes it on the response.
func requestIDFor(w http.ResponseWriter, r *http.Request) string {
	id := logging.GetRequestID(r.Context())
	if id == "" {
		id = r.Header.Get(RequestIDHeader)
	}
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	return id
}

func parseOverrides(r *http.Request) (Overrides, error) {
	q := r.URL.Query()
	o := Overrides{
		Encoding:   q.Get("encoding"),
		LineEnding: q.Get("line_ending"),
	}

	if v := q.Get("quote_escaping"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return o, fmt.Errorf("invalid quote_escaping %q", v)
		}
		o.QuoteEscaping = &b
	}
	if o.Encoding != "" {
		if _, err := tabular.LookupEncoding(o.Encoding); err != nil {
			return o, err
		}
	}
	if o.LineEnding != "" {
		if _, err := tabular.ParseLineEnding(o.LineEnding); err != nil {
			return o, err
		}
	}
	return o, nil
}

func statusFor(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, tabular.ErrTooManyRows):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, status int, requestID string, err error) {
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "export failed"
	}
	writeJSON(w, status, errorResponse{Error: msg, RequestID: requestID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
