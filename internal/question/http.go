package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/quiz-bank/pkg/http/errors"
)

const defaultImportMaxBytes = 1 << 20

// HTTPHandlers provides REST endpoints for the question bank.
type HTTPHandlers struct {
	store          *Store
	importMaxBytes int64
	providers      map[string]Provider
	logger         zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for question endpoints.
func NewHTTPHandlers(store *Store, importMaxBytes int64, logger zerolog.Logger) *HTTPHandlers {
	if importMaxBytes <= 0 {
		importMaxBytes = defaultImportMaxBytes
	}
	return &HTTPHandlers{
		store:          store,
		importMaxBytes: importMaxBytes,
		providers:      make(map[string]Provider),
		logger:         logger.With().Str("component", "question_http").Logger(),
	}
}

// WithProvider makes a trivia provider available under
// POST /v1/questions/fetch/{name}.
func (h *HTTPHandlers) WithProvider(name string, p Provider) *HTTPHandlers {
	h.providers[name] = p
	return h
}

// Register mounts the question routes on mux.
func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/questions", h.List)
	mux.HandleFunc("POST /v1/questions", h.Create)
	mux.HandleFunc("POST /v1/questions/import", h.Import)
	mux.HandleFunc("GET /v1/questions/export", h.Export)
	mux.HandleFunc("POST /v1/questions/fetch/{provider}", h.Fetch)
	mux.HandleFunc("GET /v1/questions/{id}", h.Get)
	mux.HandleFunc("PUT /v1/questions/{id}", h.Update)
	mux.HandleFunc("DELETE /v1/questions/{id}", h.Delete)
}

type listResponse struct {
	Questions   []Question `json:"questions"`
	Total       int        `json:"total"`
	IsImporting bool       `json:"is_importing"`
}

// List handles GET /v1/questions
func (h *HTTPHandlers) List(w http.ResponseWriter, r *http.Request) {
	qs := h.store.Questions()
	httperrors.RespondJSON(w, http.StatusOK, listResponse{
		Questions:   qs,
		Total:       len(qs),
		IsImporting: h.store.IsImporting(),
	})
}

// Get handles GET /v1/questions/{id}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	q, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Question not found")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, q)
}

// Create handles POST /v1/questions
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	q := h.store.Add(r.Context(), in)
	h.logger.Info().Str("question_id", q.ID).Msg("question created")
	httperrors.RespondJSON(w, http.StatusCreated, q)
}

// Update handles PUT /v1/questions/{id}
func (h *HTTPHandlers) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	q := Question{ID: r.PathValue("id"), Question: in.Question, Options: in.Options, Answer: in.Answer}
	if !h.store.Update(r.Context(), q) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Question not found")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, q)
}

// Delete handles DELETE /v1/questions/{id}. Deleting an unknown id is a no-op.
func (h *HTTPHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.store.Delete(r.Context(), id) {
		h.logger.Info().Str("question_id", id).Msg("question deleted")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /v1/questions/import. The body is either the raw JSON
// file or a multipart form carrying it in the "file" field.
func (h *HTTPHandlers) Import(w http.ResponseWriter, r *http.Request) {
	if h.store.IsImporting() {
		httperrors.RespondConflict(w, httperrors.ErrCodeImportInProgress, "An import is already running")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.importMaxBytes)

	src, err := importSource(r)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, err.Error())
		return
	}

	res, err := h.store.Import(r.Context(), src)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		httperrors.RespondJSON(w, http.StatusOK, res)
	case errors.As(err, &tooLarge):
		httperrors.RespondPayloadTooLarge(w, fmt.Sprintf("Import file exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, ErrImportInProgress):
		httperrors.RespondConflict(w, httperrors.ErrCodeImportInProgress, "An import is already running")
	case errors.Is(err, ErrImportRead):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeReadFailed, "Could not read the import file")
	case errors.Is(err, ErrInvalidFormat):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidFormat, err.Error())
	default:
		h.logger.Error().Err(err).Msg("import failed")
		httperrors.RespondInternalError(w, "Import failed")
	}
}

// Export handles GET /v1/questions/export
func (h *HTTPHandlers) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": h.store.ExportFilename(),
	}))
	if err := h.store.Export(w); err != nil {
		h.logger.Error().Err(err).Msg("export failed")
	}
}

// Fetch handles POST /v1/questions/fetch/{provider}: it pulls a batch from a
// trivia provider and imports it like a file.
func (h *HTTPHandlers) Fetch(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")
	provider, ok := h.providers[name]
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownProvider, fmt.Sprintf("Unknown trivia provider: %s", name))
		return
	}
	if h.store.IsImporting() {
		httperrors.RespondConflict(w, httperrors.ErrCodeImportInProgress, "An import is already running")
		return
	}

	var req FetchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
			return
		}
	}
	if err := req.Validate(); err != nil {
		var ve *ValidationError
		errors.As(err, &ve)
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, ve.Message, ve.Field)
		return
	}

	inputs, err := provider.Fetch(r.Context(), req)
	if err != nil {
		h.logger.Warn().Err(err).Str("provider", name).Msg("trivia fetch failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamFailed, "Trivia provider request failed")
		return
	}

	res, err := h.store.ImportInputs(r.Context(), name, inputs)
	switch {
	case err == nil:
		httperrors.RespondJSON(w, http.StatusOK, res)
	case errors.Is(err, ErrImportInProgress):
		httperrors.RespondConflict(w, httperrors.ErrCodeImportInProgress, "An import is already running")
	default:
		httperrors.RespondBadRequest(w, httperrors.ErrCodeReadFailed, err.Error())
	}
}

func (h *HTTPHandlers) decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return Input{}, false
	}
	if err := ValidateInput(in); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, ve.Message, ve.Field)
			return Input{}, false
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
		return Input{}, false
	}
	return in, true
}

// importSource picks the reader holding the uploaded file.
func importSource(r *http.Request) (io.Reader, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New(`multipart body has no "file" field`)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		if part.FormName() == "file" {
			return part, nil
		}
	}
}
