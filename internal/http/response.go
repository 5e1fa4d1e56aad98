package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Envelope é o formato único das respostas de health, ready e webhook.
type Envelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Data: data})
}

// WriteError responde com data nulo e o erro normalizado.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	write(w, status, Envelope{Error: &ErrorBody{Code: code, Message: message, Details: details}})
}

// writeAck é a resposta que o Telegram espera no webhook, fora do envelope.
func writeAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Debug().Err(err).Msg("http: falha ao escrever resposta")
	}
}
