package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
)

func (app *application) serverError(w http.ResponseWriter, err error) {
	trace := fmt.Sprintf("%s\n%s", err.Error(), debug.Stack())
	_ = app.errorLog.Output(2, trace)
	app.clientError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) clientError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		app.clientError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	if app.redis != nil {
		if err := app.redis.Ping(r.Context()).Err(); err != nil {
			app.clientError(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]string{"status": "ok"}})
}
