package agenda

import "github.com/go-chi/chi/v5"

// Mount adiciona rotas da agenda no router.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
