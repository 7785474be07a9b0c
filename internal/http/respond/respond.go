// Package respond concentra a escrita de respostas JSON da API.
//
// As respostas de sucesso são o próprio payload, sem envelope, porque o
// frontend consome os objetos diretamente. Erros seguem {"code","message"}.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// maxBody limita o corpo aceito nos endpoints JSON.
const maxBody = 1 << 20

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JSON escreve payload com o status informado. Payload nil vira `null`.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error escreve erro normalizado.
func Error(w http.ResponseWriter, status int, code, message string, details interface{}) {
	JSON(w, status, ErrorBody{Code: code, Message: message, Details: details})
}

// Forbidden responde 403 com a mensagem exibida pelo frontend.
func Forbidden(w http.ResponseWriter) {
	JSON(w, http.StatusForbidden, map[string]string{"message": "Sem permissão"})
}

// Unauthorized responde 401.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "AUTH", message, nil)
}

// Internal registra o erro e responde 500 sem detalhes.
func Internal(w http.ResponseWriter, err error, label string) {
	log.Error().Err(err).Str("label", label).Msg("handler error")
	Error(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

// ErrEmptyBody indica corpo ausente.
var ErrEmptyBody = errors.New("corpo vazio")

// Decode lê o corpo JSON em dst, rejeitando corpos vazios e lixo após o objeto.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	if dec.More() {
		return errors.New("conteúdo extra após o JSON")
	}
	return nil
}

// DecodeObject lê um objeto JSON arbitrário mantendo os valores crus.
func DecodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := Decode(r, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("esperado objeto JSON")
	}
	return obj, nil
}

// Validation responde 422 com o motivo da falha de leitura do corpo.
func Validation(w http.ResponseWriter, err error) {
	msg := "corpo inválido"
	if err != nil {
		msg = strings.TrimSpace(err.Error())
	}
	Error(w, http.StatusUnprocessableEntity, "VALIDATION", msg, nil)
}
