package questionario

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/teccampos/incubadora/internal/http/middleware"
	"github.com/teccampos/incubadora/internal/repo"
)

func newTestRouter(store *memStore, user *repo.User) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user != nil {
				req = req.WithContext(httpmiddleware.WithUser(req.Context(), *user))
			}
			next.ServeHTTP(w, req)
		})
	})
	Mount(r, NewHandler(NewService(store)))
	return r
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPostQuestionarioReturnsNull(t *testing.T) {
	ana := repo.User{ID: uuid.New(), Email: "ana@x.org", IsActive: true}
	store := newMemStore(ana)
	router := newTestRouter(store, &ana)

	rr := doRequest(router, http.MethodPost, "/questionario", `{"empresa":"Acme"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.TrimSpace(rr.Body.String()) != "null" {
		t.Fatalf("expected null body, got %s", rr.Body.String())
	}
	if store.users[ana.ID].QuestionarioFinalizado {
		t.Fatal("draft save must not finalize")
	}

	rr = doRequest(router, http.MethodPost, "/questionario?finalizado=true", `{"empresa":"Acme"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !store.users[ana.ID].QuestionarioFinalizado {
		t.Fatal("expected questionario finalizado")
	}
}

func TestPostQuestionarioValidation(t *testing.T) {
	ana := repo.User{ID: uuid.New(), Email: "ana@x.org", IsActive: true}
	router := newTestRouter(newMemStore(ana), &ana)

	if rr := doRequest(router, http.MethodPost, "/questionario?finalizado=talvez", `{}`); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad finalizado, got %d", rr.Code)
	}
	if rr := doRequest(router, http.MethodPost, "/questionario", `[1,2]`); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for non-object body, got %d", rr.Code)
	}
	if rr := doRequest(router, http.MethodPost, "/questionario", ``); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty body, got %d", rr.Code)
	}
}

func TestUnauthenticatedRequestsGet401(t *testing.T) {
	router := newTestRouter(newMemStore(), nil)
	if rr := doRequest(router, http.MethodGet, "/verification/verify-login", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestReviewEndpoint(t *testing.T) {
	target := repo.User{ID: uuid.New(), Email: "ana@x.org", IsActive: true, QuestionarioFinalizado: true}
	store := newMemStore(target)
	router := newTestRouter(store, &consultor)

	rr := doRequest(router, http.MethodPut, "/questionario/questionario/"+target.ID.String(), `{"aprovado_por":"consultor@x.org"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["is_incubado"] != true || body["email"] != "ana@x.org" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, leaked := body["hashed_password"]; leaked {
		t.Fatal("password hash must not be exposed")
	}

	rr = doRequest(router, http.MethodPut, "/questionario/questionario/"+uuid.NewString(), `{"aprovado_por":"x"}`)
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "null" {
		t.Fatalf("expected 200 null for missing user, got %d %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(router, http.MethodPut, "/questionario/questionario/nao-e-uuid", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rr.Code)
	}
}

func TestReviewDraftConflict(t *testing.T) {
	draft := repo.User{ID: uuid.New(), Email: "ana@x.org", IsActive: true}
	router := newTestRouter(newMemStore(draft), &consultor)

	rr := doRequest(router, http.MethodPut, "/questionario/questionario/"+draft.ID.String(), `{"aprovado_por":"x"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestReviewRejectedUserConflict(t *testing.T) {
	rejected := repo.User{ID: uuid.New(), Email: "bia@x.org", IsActive: false, QuestionarioFinalizado: true}
	store := newMemStore(rejected)
	router := newTestRouter(store, &consultor)

	rr := doRequest(router, http.MethodPut, "/questionario/questionario/"+rejected.ID.String(), `{"aprovado_por":"x"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if store.users[rejected.ID].IsIncubado {
		t.Fatal("rejected user must not become incubado")
	}
}

func TestConsultorOnlyEndpointsForbidden(t *testing.T) {
	target := repo.User{ID: uuid.New(), Email: "ana@x.org", IsActive: true, QuestionarioFinalizado: true}
	participante := repo.User{ID: uuid.New(), Email: "bia@x.org", IsActive: true}
	store := newMemStore(target, participante)
	router := newTestRouter(store, &participante)

	requests := []struct{ method, path, body string }{
		{http.MethodPut, "/questionario/questionario/" + target.ID.String(), `{"aprovado_por":"bia"}`},
		{http.MethodGet, "/plano/aprovar", ""},
		{http.MethodGet, "/plano/aprovados", ""},
		{http.MethodGet, "/plano/rejeitados", ""},
	}
	for _, tc := range requests {
		rr := doRequest(router, tc.method, tc.path, tc.body)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", tc.method, tc.path, rr.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["message"] != "Sem permissão" {
			t.Fatalf("%s %s: unexpected body %s", tc.method, tc.path, rr.Body.String())
		}
	}
	if store.reviews != 0 || store.users[target.ID].IsIncubado {
		t.Fatal("forbidden review must not mutate data")
	}
}

func TestPlanListingEndpoint(t *testing.T) {
	pending := repo.User{ID: uuid.New(), Email: "ana@x.org", IsActive: true, QuestionarioFinalizado: true, QuestionarioJSON: json.RawMessage(`{"a":1}`)}
	router := newTestRouter(newMemStore(pending), &consultor)

	rr := doRequest(router, http.MethodGet, "/plano/aprovar", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var plans []PlanSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &plans); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(plans) != 1 || plans[0].QuestionarioID != pending.ID || string(plans[0].Questionario) != `{"a":1}` {
		t.Fatalf("unexpected plans %+v", plans)
	}

	rr = doRequest(router, http.MethodGet, "/plano/rejeitados", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", rr.Body.String())
	}
}

func TestVerificationEndpoints(t *testing.T) {
	ana := repo.User{ID: uuid.New(), Email: "ana@x.org", IsActive: true, QuestionarioFinalizado: true, QuestionarioJSON: json.RawMessage(`{"a":1}`)}
	router := newTestRouter(newMemStore(ana), &ana)

	rr := doRequest(router, http.MethodGet, "/verification/verify-login", "")
	if strings.TrimSpace(rr.Body.String()) != "true" {
		t.Fatalf("expected true, got %s", rr.Body.String())
	}

	rr = doRequest(router, http.MethodGet, "/verification/questionario-preenchido", "")
	if strings.TrimSpace(rr.Body.String()) != `{"a":1}` {
		t.Fatalf("expected stored questionnaire, got %s", rr.Body.String())
	}

	bia := repo.User{ID: uuid.New(), Email: "bia@x.org", IsActive: true}
	router = newTestRouter(newMemStore(bia), &bia)
	rr = doRequest(router, http.MethodGet, "/verification/questionario-preenchido", "")
	if strings.TrimSpace(rr.Body.String()) != "null" {
		t.Fatalf("expected null, got %s", rr.Body.String())
	}
	rr = doRequest(router, http.MethodGet, "/verification/verify-login", "")
	if strings.TrimSpace(rr.Body.String()) != "false" {
		t.Fatalf("expected false, got %s", rr.Body.String())
	}
}
