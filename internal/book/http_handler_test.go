package book

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookloan/internal/httpx"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

func newTestMux(t *testing.T) (*http.ServeMux, *MockRepository) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	svc := NewServiceWithClock(repo, func() time.Time { return fixedNow })
	handler := NewHTTPHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	handler.Register(mux, "/api/v1")
	return mux, repo
}

func serve(mux http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestHTTPHandler_Create(t *testing.T) {
	t.Run("success ignores loan fields", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Insert(gomock.Any(), Book{ID: "100000", Title: "T", Author: "A"}).
			DoAndReturn(func(_ context.Context, b Book) (Book, error) { return b, nil })

		w, env := serve(mux, http.MethodPost, "/api/v1/books/",
			`{"id":"100000","title":"T","author":"A","on_loan":true,"loanee_id":"200000"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "100000", got["id"])
		assert.Equal(t, false, got["on_loan"])
		assert.Nil(t, got["loan_date"])
		assert.Nil(t, got["loanee_id"])
		assert.Contains(t, got, "loan_date")
		assert.Contains(t, got, "loanee_id")
	})

	t.Run("duplicate id", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(Book{}, ErrAlreadyExists)

		w, env := serve(mux, http.MethodPost, "/api/v1/books/", `{"id":"100000","title":"T","author":"A"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Book with this id already exists", env.Error.Message)
	})

	t.Run("id with wrong length", func(t *testing.T) {
		mux, _ := newTestMux(t)

		w, env := serve(mux, http.MethodPost, "/api/v1/books/", `{"id":"1000","title":"T","author":"A"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "id", env.Error.Details[0].Field)
	})

	t.Run("malformed body", func(t *testing.T) {
		mux, _ := newTestMux(t)

		w, _ := serve(mux, http.MethodPost, "/api/v1/books/", `{"id":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty title and author are accepted", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Insert(gomock.Any(), Book{ID: "100000"}).
			DoAndReturn(func(_ context.Context, b Book) (Book, error) { return b, nil })

		w, _ := serve(mux, http.MethodPost, "/api/v1/books/", `{"id":"100000","title":"","author":""}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing title", func(t *testing.T) {
		mux, _ := newTestMux(t)

		w, env := serve(mux, http.MethodPost, "/api/v1/books/", `{"id":"100000","author":"A"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "title", env.Error.Details[0].Field)
	})

	t.Run("chunked body over the size limit", func(t *testing.T) {
		mux, _ := newTestMux(t)
		handler := httpx.RequestSizeLimitMiddleware(16)(mux)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/books/",
			strings.NewReader(`{"id":"100000","title":"A long enough title","author":"A"}`))
		r.ContentLength = -1
		r.TransferEncoding = []string{"chunked"}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "PAYLOAD_TOO_LARGE", env.Error.Code)
	})
}

func TestHTTPHandler_List(t *testing.T) {
	t.Run("all books", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().List(gomock.Any(), ListQuery{}).Return([]Book{{ID: "100000"}, {ID: "100001"}}, nil)

		w, env := serve(mux, http.MethodGet, "/api/v1/books/", "")

		require.Equal(t, http.StatusOK, w.Code)
		var got []Book
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Len(t, got, 2)
	})

	t.Run("filter on loan", func(t *testing.T) {
		mux, repo := newTestMux(t)
		onLoan := true
		repo.EXPECT().List(gomock.Any(), ListQuery{OnLoan: &onLoan}).Return([]Book{}, nil)

		w, _ := serve(mux, http.MethodGet, "/api/v1/books?on_loan=true", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad filter", func(t *testing.T) {
		mux, _ := newTestMux(t)

		w, _ := serve(mux, http.MethodGet, "/api/v1/books/?on_loan=maybe", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

		w, env := serve(mux, http.MethodGet, "/api/v1/books/", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	})
}

func TestHTTPHandler_Update(t *testing.T) {
	available := Book{ID: "100000", Title: "T", Author: "A"}

	t.Run("lend", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().GetByID(gomock.Any(), "100000").Return(available, nil)
		repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b Book) (Book, error) {
			return b, nil
		})

		w, env := serve(mux, http.MethodPatch, "/api/v1/books/100000", `{"on_loan":true,"loanee_id":"200000"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var got Book
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.True(t, got.OnLoan)
		require.NotNil(t, got.LoaneeID)
		assert.Equal(t, "200000", *got.LoaneeID)
		assert.NotNil(t, got.LoanDate)
	})

	t.Run("return with empty loanee", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().GetByID(gomock.Any(), "100000").Return(available, nil)
		repo.EXPECT().Save(gomock.Any(), available).Return(available, nil)

		w, _ := serve(mux, http.MethodPatch, "/api/v1/books/100000", `{"on_loan":false,"loanee_id":""}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("return with loanee is rejected", func(t *testing.T) {
		mux, _ := newTestMux(t)

		w, env := serve(mux, http.MethodPatch, "/api/v1/books/100000", `{"on_loan":false,"loanee_id":"200000"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "loanee_id should not be included when setting on_loan to False", env.Error.Message)
	})

	t.Run("lend without loanee is rejected", func(t *testing.T) {
		mux, _ := newTestMux(t)

		w, env := serve(mux, http.MethodPatch, "/api/v1/books/100000", `{"on_loan":true}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "loanee_id should be included when setting on_loan to True", env.Error.Message)
	})

	t.Run("missing on_loan", func(t *testing.T) {
		mux, _ := newTestMux(t)

		w, env := serve(mux, http.MethodPatch, "/api/v1/books/100000", `{"loanee_id":"200000"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "on_loan", env.Error.Details[0].Field)
	})

	t.Run("loanee with wrong length", func(t *testing.T) {
		mux, _ := newTestMux(t)

		w, env := serve(mux, http.MethodPatch, "/api/v1/books/100000", `{"on_loan":true,"loanee_id":"12345"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "loanee_id", env.Error.Details[0].Field)
	})

	t.Run("unknown id", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().GetByID(gomock.Any(), "999").Return(Book{}, ErrNotFound)

		w, env := serve(mux, http.MethodPatch, "/api/v1/books/999", `{"on_loan":true,"loanee_id":"123456"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Book not found", env.Error.Message)
	})
}

func TestHTTPHandler_Get(t *testing.T) {
	mux, repo := newTestMux(t)
	repo.EXPECT().GetByID(gomock.Any(), "100000").Return(Book{ID: "100000"}, nil)
	repo.EXPECT().GetByID(gomock.Any(), "999999").Return(Book{}, ErrNotFound)

	w, _ := serve(mux, http.MethodGet, "/api/v1/books/100000", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = serve(mux, http.MethodGet, "/api/v1/books/999999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Delete(gomock.Any(), "100000").Return(Book{ID: "100000", Title: "T", Author: "A"}, nil)

		w, env := serve(mux, http.MethodDelete, "/api/v1/books/100000", "")

		require.Equal(t, http.StatusOK, w.Code)
		var got DeleteResult
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "Book deleted successfully", got.Message)
		assert.Equal(t, "100000", got.Book.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		mux, repo := newTestMux(t)
		repo.EXPECT().Delete(gomock.Any(), "999999").Return(Book{}, ErrNotFound)

		w, env := serve(mux, http.MethodDelete, "/api/v1/books/999999", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
}
