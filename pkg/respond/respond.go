package respond

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string, details ...string) {
	payload := map[string]interface{}{"error": message}
	if len(details) > 0 {
		payload["details"] = details
	}
	JSON(w, r, code, payload)
}
