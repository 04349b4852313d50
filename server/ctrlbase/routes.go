package ctrlbase

import (
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func AddRoutes(c *Controller, r *mux.Router, logHTTP bool) {
	if logHTTP {
		r.Use(c.WithLogging)
	}
	r.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))

	r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "OK")
	})
}
