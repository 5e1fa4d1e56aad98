package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError repete o envelope do pacote http, que não pode ser importado daqui.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Data  any `json:"data"`
		Error any `json:"error"`
	}{
		Error: map[string]string{"code": code, "message": message},
	})
}
