// Package ctrlmaint exposes the operator side of the dedup workflow over
// JSON: listing candidate duplicate pairs and applying merges or ignores.
package ctrlmaint

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/hatarist/scrobbler/dedupe"
	"github.com/hatarist/scrobbler/server/ctrlbase"
)

type Controller struct {
	*ctrlbase.Controller
	Resolver *dedupe.Resolver
}

type maintResponse struct {
	code int
	body interface{}
}

func respond(body interface{}) *maintResponse {
	return &maintResponse{code: http.StatusOK, body: body}
}

func respondError(code int, message string) *maintResponse {
	return &maintResponse{code: code, body: map[string]string{"error": message}}
}

type maintHandler func(r *http.Request) *maintResponse

func (c *Controller) H(h maintHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := h(r)
		if resp == nil {
			log.Println("error: maintenance handler returned a nil response")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.code)
		if err := json.NewEncoder(w).Encode(resp.body); err != nil {
			log.Printf("error writing maintenance response: %v\n", err)
		}
	})
}

// WithAdminAuth guards the maintenance surface with HTTP basic auth against
// the web credential. protocol credentials don't work here.
func (c *Controller) WithAdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="scrobbler maintenance"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		user := c.DB.GetUserFromName(username)
		if user == nil || !user.IsAdmin || !user.CheckWebPassword(password) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
