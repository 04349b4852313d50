// Package ctrlproto serves the legacy Audioscrobbler submission protocol:
// form or query encoded requests answered with plaintext token lines, one
// token per line, newline terminated.
package ctrlproto

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/hatarist/scrobbler/server/ctrlbase"
)

// protocol response tokens. a rejection is always one of these, never a
// server error, the client is expected to retry.
const (
	respOK          = "OK"
	respBadAuth     = "BADAUTH"
	respBadSession  = "BADSESSION"
	respBadRequest  = "BADREQUEST"
	respBadPassword = "BADPASSWORD"
	respFailed      = "FAILED"
)

type Controller struct {
	*ctrlbase.Controller
}

type protoResponse struct {
	code  int
	lines []string
}

func respond(lines ...string) *protoResponse {
	return &protoResponse{code: http.StatusOK, lines: lines}
}

func respondBadRequest() *protoResponse {
	return &protoResponse{code: http.StatusBadRequest, lines: []string{respBadRequest}}
}

func respondFailed() *protoResponse {
	return &protoResponse{code: http.StatusInternalServerError, lines: []string{respFailed}}
}

type protoHandler func(r *http.Request) *protoResponse

func (c *Controller) H(h protoHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := h(r)
		if resp == nil {
			log.Println("error: proto handler returned a nil response")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(resp.code)
		if _, err := io.WriteString(w, strings.Join(resp.lines, "\n")+"\n"); err != nil {
			log.Printf("error writing proto response: %v\n", err)
		}
	})
}
