package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bookloan/internal/httpx"
)

const msgDeleted = "Book deleted successfully"

type HTTPHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewHTTPHandler(service *Service, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

// DeleteResult is the payload returned after a book is removed.
type DeleteResult struct {
	Message string `json:"message"`
	Book    Book   `json:"book"`
}

// Register mounts the book routes under prefix, e.g. "/api/v1".
func (h *HTTPHandler) Register(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/books", h.Create)
	mux.HandleFunc("POST "+prefix+"/books/{$}", h.Create)
	mux.HandleFunc("GET "+prefix+"/books", h.List)
	mux.HandleFunc("GET "+prefix+"/books/{$}", h.List)
	mux.HandleFunc("GET "+prefix+"/books/{id}", h.Get)
	mux.HandleFunc("PATCH "+prefix+"/books/{id}", h.Update)
	mux.HandleFunc("DELETE "+prefix+"/books/{id}", h.Delete)
}

// Create handles POST /books/
// @Summary Create book
// @Description Register a new book copy. Loan fields always start empty.
// @Tags books
// @Accept json
// @Produce json
// @Param request body CreateInput true "Book"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Router /books/ [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if details := httpx.ValidateStruct(in); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// List handles GET /books/
// @Summary List books
// @Tags books
// @Produce json
// @Param on_loan query bool false "Only books with this loan state"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books/ [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	var q ListQuery
	if raw := r.URL.Query().Get("on_loan"); raw != "" {
		onLoan, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "on_loan must be true or false", nil)
			return
		}
		q.OnLoan = &onLoan
	}

	books, err := h.service.List(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, map[string]any{"total": len(books)})
}

// Get handles GET /books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Update handles PATCH /books/{id}
// @Summary Lend or return a book
// @Description on_loan=true requires loanee_id, on_loan=false forbids it.
// @Tags books
// @Accept json
// @Produce json
// @Param id path string true "Book id"
// @Param request body UpdateInput true "Loan change"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Router /books/{id} [patch]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	in.Normalize()
	if details := httpx.ValidateStruct(in); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	b, err := h.service.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Delete handles DELETE /books/{id}
// @Summary Delete book
// @Tags books
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, DeleteResult{Message: msgDeleted, Book: b}, nil)
}

func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, httpx.ErrBodyTooLarge) {
		httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
		return
	}
	httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrAlreadyExists):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", "Book with this id already exists", nil)
	case errors.As(err, &verr):
		httpx.JSONError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", verr.Message,
			[]httpx.ErrorDetail{{Field: verr.Field, Message: verr.Message}})
	default:
		h.logger.ErrorContext(r.Context(), "book request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httpx.RequestIDFrom(r),
			"error", err,
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
