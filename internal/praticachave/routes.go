package praticachave

import "github.com/go-chi/chi/v5"

// Mount adiciona rotas de prática-chave no router.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
