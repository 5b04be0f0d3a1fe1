package httpserver

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the body of every probe endpoint.
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusResponse(status string, data any) Response {
	return Response{Status: status, Timestamp: time.Now().UTC(), Data: data}
}
