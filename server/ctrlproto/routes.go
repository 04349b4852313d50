package ctrlproto

import "github.com/gorilla/mux"

func AddRoutes(c *Controller, r *mux.Router) {
	r.Handle("/", c.H(c.ServeHandshake)).Methods("GET", "POST")
	r.Handle("/np_1.2", c.H(c.ServeNowPlaying)).Methods("POST")
	r.Handle("/protocol_1.2", c.H(c.ServeScrobble)).Methods("POST")
	r.Handle("/ass/pwcheck.php", c.H(c.ServePasswordCheck)).Methods("GET", "POST")

	// compatibility stubs
	r.HandleFunc("/1.0/rw/xmlrpc.php", c.ServeXMLRPC).Methods("POST")
	r.HandleFunc("/ass/upgrade.xml.php", c.ServeUpdateCheck).Methods("GET", "POST")
	r.HandleFunc("/radio/handshake.php", c.ServeRadioHandshake).Methods("GET")
}
