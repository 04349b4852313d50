package ctrlmaint

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/hatarist/scrobbler/dedupe"
)

func showIgnored(r *http.Request) bool {
	ignored, _ := strconv.ParseBool(r.URL.Query().Get("show_ignored"))
	return ignored
}

// muxVarInt reads a numeric path variable. the routes constrain these to
// digits already, so a parse failure here is a programming error.
func muxVarInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(mux.Vars(r)[key])
	return v
}

func (c *Controller) ServeArtistDiffs(r *http.Request) *maintResponse {
	diffs, err := c.Resolver.ArtistDiffs(showIgnored(r))
	if err != nil {
		log.Printf("error listing artist diffs: %v\n", err)
		return respondError(http.StatusInternalServerError, "internal error")
	}
	return respond(map[string]interface{}{"diffs": diffs})
}

func (c *Controller) ServeTrackDiffs(r *http.Request) *maintResponse {
	diffs, err := c.Resolver.TrackDiffs(showIgnored(r))
	if err != nil {
		log.Printf("error listing track diffs: %v\n", err)
		return respondError(http.StatusInternalServerError, "internal error")
	}
	return respond(map[string]interface{}{"diffs": diffs})
}

func (c *Controller) ServeResolveArtists(r *http.Request) *maintResponse {
	id := muxVarInt(r, "id")
	dir := dedupe.Direction(muxVarInt(r, "direction"))
	replaced, err := c.Resolver.ResolveArtists(id, dir)
	switch {
	case errors.Is(err, dedupe.ErrNotFound):
		return respondError(http.StatusNotFound, "diff not found")
	case err != nil:
		log.Printf("error resolving artist diff %d: %v\n", id, err)
		return respondError(http.StatusInternalServerError, "internal error")
	}
	return respond(map[string]int{"replaced": replaced})
}

func (c *Controller) ServeResolveTracks(r *http.Request) *maintResponse {
	id := muxVarInt(r, "id")
	dir := dedupe.Direction(muxVarInt(r, "direction"))
	replaced, err := c.Resolver.ResolveTracks(id, dir)
	switch {
	case errors.Is(err, dedupe.ErrNotFound):
		return respondError(http.StatusNotFound, "diff not found")
	case err != nil:
		log.Printf("error resolving track diff %d: %v\n", id, err)
		return respondError(http.StatusInternalServerError, "internal error")
	}
	return respond(map[string]int{"replaced": replaced})
}
