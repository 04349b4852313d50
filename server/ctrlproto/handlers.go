package ctrlproto

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	scrobbler "github.com/hatarist/scrobbler"
	"github.com/hatarist/scrobbler/auth"
	"github.com/hatarist/scrobbler/ingest"
	"github.com/hatarist/scrobbler/server/ctrlproto/params"
)

// ServeHandshake answers the `hs` handshake with the session id and the two
// submission endpoints the client should post to.
func (c *Controller) ServeHandshake(r *http.Request) *protoResponse {
	if r.URL.Query().Get("hs") == "" {
		// no handshake marker, just someone poking the index
		return respond(fmt.Sprintf("%s v%s", scrobbler.Name, scrobbler.Version))
	}
	req, err := params.ParseAuth(r.URL.Query())
	if err != nil {
		return respondBadRequest()
	}
	user, _ := auth.Authenticate(c.DB, req.Username, req.Timestamp, req.Auth)
	if user == nil {
		return respond(respBadAuth)
	}
	sessionID, err := auth.GetOrCreateSession(c.DB, user)
	if err != nil {
		log.Printf("error creating session for %q: %v\n", user.Name, err)
		return respondFailed()
	}
	return respond(
		respOK,
		sessionID,
		c.AbsoluteURL(r, "/np_1.2"),
		c.AbsoluteURL(r, "/protocol_1.2"),
	)
}

func (c *Controller) ServePasswordCheck(r *http.Request) *protoResponse {
	req, err := params.ParseAuth(r.URL.Query())
	if err != nil {
		return respondBadRequest()
	}
	user, _ := auth.Authenticate(c.DB, req.Username, req.Timestamp, req.Auth)
	if user == nil {
		return respond(respBadPassword)
	}
	return respond(respOK)
}

func (c *Controller) ServeNowPlaying(r *http.Request) *protoResponse {
	if err := r.ParseForm(); err != nil {
		return respondBadRequest()
	}
	req, err := params.ParseNowPlaying(r.PostForm)
	if err != nil {
		return respondBadRequest()
	}
	user := auth.ValidateSession(c.DB, req.SessionID)
	if user == nil {
		return respond(respBadSession)
	}
	switch err := ingest.RecordNowPlaying(c.DB, user, req.Submission); {
	case errors.Is(err, ingest.ErrBadRequest):
		return respondBadRequest()
	case err != nil:
		log.Printf("error recording now playing for %q: %v\n", user.Name, err)
		return respondFailed()
	}
	return respond(respOK)
}

func (c *Controller) ServeScrobble(r *http.Request) *protoResponse {
	if err := r.ParseForm(); err != nil {
		return respondBadRequest()
	}
	sessionID, subs, err := params.ParseScrobbles(r.PostForm)
	if err != nil {
		return respondBadRequest()
	}
	user := auth.ValidateSession(c.DB, sessionID)
	if user == nil {
		return respond(respBadSession)
	}
	switch err := ingest.RecordScrobbles(c.DB, user, subs); {
	case errors.Is(err, ingest.ErrBadRequest):
		return respondBadRequest()
	case err != nil:
		log.Printf("error recording scrobbles for %q: %v\n", user.Name, err)
		return respondFailed()
	}
	return respond(respOK)
}

func serveStatic(payload string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.WriteString(w, payload); err != nil {
			log.Printf("error writing static response: %v\n", err)
		}
	}
}

func (c *Controller) ServeXMLRPC(w http.ResponseWriter, r *http.Request) {
	serveStatic(pongResponse)(w, r)
}

func (c *Controller) ServeUpdateCheck(w http.ResponseWriter, r *http.Request) {
	serveStatic(updateCheckResponse)(w, r)
}

func (c *Controller) ServeRadioHandshake(w http.ResponseWriter, r *http.Request) {
	serveStatic(radioHandshakeResponse)(w, r)
}
