package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/bibleref/core/bible"
	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/internal/index"
	"github.com/FocuswithJustin/bibleref/internal/logging"
	"github.com/FocuswithJustin/bibleref/internal/server"
)

// APIResponse is the standard API response format.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthInfo represents health check response.
type HealthInfo struct {
	Status    string       `json:"status"`
	Version   string       `json:"version"`
	Driver    string       `json:"driver"`
	Index     *index.Stats `json:"index,omitempty"`
	WSClients int          `json:"websocket_clients"`
}

// BookInfo describes one canonical book and the spellings that name it.
type BookInfo struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Spanish   string   `json:"spanish"`
	OSIS      string   `json:"osis"`
	USFM      string   `json:"usfm"`
	Spellings []string `json:"spellings"`
}

// DocumentRequest is the body of POST /documents.
type DocumentRequest struct {
	Source string `json:"source"`
	Body   string `json:"body"`
}

// DocumentEvent is broadcast to WebSocket clients when a document is indexed.
type DocumentEvent struct {
	Type       string `json:"type"`
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Citations  int    `json:"citations"`
	Timestamp  string `json:"timestamp"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, r, http.StatusOK, map[string]interface{}{
		"name":    "bibleref API",
		"version": Version,
		"endpoints": map[string]string{
			"health":    "GET /health",
			"books":     "GET /books?level=N&lang=en|es",
			"extract":   "POST /extract",
			"rewrite":   "POST /rewrite",
			"documents": "GET, POST /documents",
			"document":  "GET, DELETE /documents/{id}",
			"websocket": "GET /ws",
			"metrics":   "GET /metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := HealthInfo{
		Status:    "healthy",
		Version:   Version,
		WSClients: s.hub.ClientCount(),
	}
	if s.store != nil {
		st, err := s.store.Stats(r.Context())
		if err != nil {
			logging.ErrorContext(r.Context(), "index stats failed", "error", err)
			info.Status = "degraded"
		} else {
			info.Index = &st
			info.Driver = st.Driver
		}
	}
	respond(w, r, http.StatusOK, info)
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	level := bible.MaxLevel
	if v := r.URL.Query().Get("level"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < int(bible.LevelFull) || n > int(bible.MaxLevel) {
			respondError(w, r, http.StatusBadRequest, "INVALID_INPUT", "level must be 0, 1 or 2")
			return
		}
		level = bible.Level(n)
	}
	lang := r.URL.Query().Get("lang")
	if lang != "" {
		tag, err := parseLang(lang)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		lang = tag.String()
	}

	spellings := make(map[bible.BookID][]string)
	for _, sp := range s.registry.Spellings(level) {
		if sp.Book == 0 {
			continue
		}
		if lang != "" {
			if base, _ := sp.Language.Base(); base.String() != lang {
				continue
			}
		}
		spellings[sp.Book] = append(spellings[sp.Book], sp.Text)
	}

	books := make([]BookInfo, 0, len(bible.Books()))
	for _, b := range bible.Books() {
		books = append(books, BookInfo{
			ID:        int(b.ID),
			Name:      b.Name,
			Spanish:   b.Spanish,
			OSIS:      b.OSIS,
			USFM:      b.USFM,
			Spellings: spellings[b.ID],
		})
	}
	respondList(w, r, books, len(books))
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.extract(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, res)
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var req RewriteRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.rewrite(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, res)
}

// handleDocuments lists documents, or with ?ref= lists the citations that
// overlap the given passage.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("ref"); q != "" {
		key := strings.ToLower(strings.Join(strings.Fields(q), " "))
		hits, err := s.queries.GetOrLoad(key, func() ([]index.Citation, error) {
			return s.store.QueryText(r.Context(), q)
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if hits == nil {
			hits = []index.Citation{}
		}
		respondList(w, r, hits, len(hits))
		return
	}

	docs, err := s.store.List(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if docs == nil {
		docs = []*index.Document{}
	}
	respondList(w, r, docs, len(docs))
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Body == "" {
		respondError(w, r, http.StatusBadRequest, "INVALID_INPUT", "body is required")
		return
	}

	start := time.Now()
	doc, err := s.store.Add(r.Context(), req.Source, req.Body)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	s.metrics.observeScan("index", time.Since(start), len(doc.Citations))
	s.queries.Purge()

	s.hub.Broadcast(DocumentEvent{
		Type:       "document_indexed",
		DocumentID: doc.ID,
		Source:     doc.Source,
		Citations:  len(doc.Citations),
	})
	w.Header().Set("Location", "/documents/"+doc.ID)
	respond(w, r, http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateDocumentID(id); err != nil {
		respondErr(w, r, err)
		return
	}
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ValidateDocumentID(id); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	s.queries.Purge()
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into v. It writes the error response and
// returns false when the body is missing, too large or malformed.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if !server.ValidateContentType(r.Header.Get("Content-Type"), server.JSONContentTypes) {
		respondError(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE",
			"Content-Type must be application/json")
		return false
	}
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE",
				"Request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return false
		}
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// respondErr maps an error from the engine or the index to a status code.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, errors.ErrUnsupported):
		respondError(w, r, http.StatusUnprocessableEntity, "UNSUPPORTED", err.Error())
	default:
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeResponse(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta(r, 0),
	})
}

func respondList(w http.ResponseWriter, r *http.Request, data interface{}, total int) {
	writeResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta(r, total),
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeResponse(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: meta(r, 0),
	})
}

func meta(r *http.Request, total int) *APIMeta {
	m := &APIMeta{
		Total:     total,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if r != nil {
		m.RequestID = logging.GetRequestID(r.Context())
	}
	return m
}

func writeResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
