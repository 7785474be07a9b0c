package praticachave

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpmiddleware "github.com/teccampos/incubadora/internal/http/middleware"
	"github.com/teccampos/incubadora/internal/repo"
)

type stubStore struct {
	rows []PraticaChave
}

func (s *stubStore) Create(ctx context.Context, payload json.RawMessage, createdBy string) (int64, error) {
	id := int64(len(s.rows) + 1)
	s.rows = append(s.rows, PraticaChave{ID: id, PraticaChave: payload, CreatedAt: time.Now(), CreatedBy: createdBy})
	return id, nil
}

func (s *stubStore) List(ctx context.Context) ([]PraticaChave, error) {
	return s.rows, nil
}

func newRouter(store *stubStore, user repo.User) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(httpmiddleware.WithUser(req.Context(), user)))
		})
	})
	Mount(r, NewHandler(NewService(store)))
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateRecordsCreatorAndEchoesInput(t *testing.T) {
	store := &stubStore{}
	user := repo.User{ID: uuid.New(), Email: "mentor@x.org", IsActive: true}
	router := newRouter(store, user)

	body := `{"pratica_chave":{"titulo":"Pitch semanal","nivel":2}}`
	rr := do(router, http.MethodPost, "/pratica-chave", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, body, rr.Body.String())

	rr = do(router, http.MethodGet, "/pratica-chave", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var items []PraticaChave
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "mentor@x.org", items[0].CreatedBy)
	assert.JSONEq(t, body, string(items[0].PraticaChave))
	assert.False(t, items[0].CreatedAt.IsZero())
}

func TestCreateRejectsMissingPayload(t *testing.T) {
	store := &stubStore{}
	router := newRouter(store, repo.User{ID: uuid.New(), Email: "a@x.org", IsActive: true})

	for _, body := range []string{``, `{}`, `{"pratica_chave":"texto"}`} {
		rr := do(router, http.MethodPost, "/pratica-chave", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "body %q", body)
	}
	assert.Empty(t, store.rows)
}

func TestListEmptyIsArray(t *testing.T) {
	router := newRouter(&stubStore{rows: []PraticaChave{}}, repo.User{ID: uuid.New(), Email: "a@x.org", IsActive: true})
	rr := do(router, http.MethodGet, "/pratica-chave", "")
	assert.JSONEq(t, `[]`, rr.Body.String())
}
