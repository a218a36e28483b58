package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// problemTypeBase prefixes the slugged title so clients can switch on a
// stable error taxonomy ("ecusim:error:method-not-allowed" and so on).
const problemTypeBase = "ecusim:error:"

// Problem is an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:     problemTypeBase + problemSlug(title),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

func problemSlug(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}
