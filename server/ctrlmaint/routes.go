package ctrlmaint

import "github.com/gorilla/mux"

func AddRoutes(c *Controller, r *mux.Router) {
	r.Use(c.WithAdminAuth)

	r.Handle("/artists", c.H(c.ServeArtistDiffs)).Methods("GET")
	r.Handle("/artists/{id:[0-9]+}/{direction:[0-2]}", c.H(c.ServeResolveArtists)).Methods("POST")
	r.Handle("/tracks", c.H(c.ServeTrackDiffs)).Methods("GET")
	r.Handle("/tracks/{id:[0-9]+}/{direction:[0-2]}", c.H(c.ServeResolveTracks)).Methods("POST")
}
