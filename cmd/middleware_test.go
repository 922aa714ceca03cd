package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doulaBack/internal/models"
	"doulaBack/utils"
)

func newTestApp(t *testing.T) *application {
	t.Helper()
	tokens, err := utils.NewManager("test-secret")
	require.NoError(t, err)
	discard := log.New(io.Discard, "", 0)
	return &application{tokens: tokens, infoLog: discard, errorLog: discard}
}

func TestJWTMiddleware(t *testing.T) {
	app := newTestApp(t)
	var gotRole any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = r.Context().Value(roleKey)
		w.WriteHeader(http.StatusNoContent)
	})
	admin := app.JWTMiddleware(next, models.RoleAdmin)
	authenticated := app.JWTMiddleware(next, models.RoleAuthenticated)

	token := func(role string) string {
		tok, err := app.tokens.NewJWT("user-1", role, time.Hour)
		require.NoError(t, err)
		return "Bearer " + tok
	}
	serve := func(h http.Handler, auth string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(admin, ""))
	assert.Equal(t, http.StatusUnauthorized, serve(admin, "Bearer nope"))
	assert.Equal(t, http.StatusForbidden, serve(admin, token(models.RoleAuthenticated)))
	assert.Equal(t, http.StatusNoContent, serve(authenticated, token(models.RoleAuthenticated)))
	assert.Equal(t, http.StatusNoContent, serve(admin, token(models.RoleAdmin)))
	assert.Equal(t, models.RoleAdmin, gotRole)
}

func TestRecoverPanic(t *testing.T) {
	app := newTestApp(t)
	h := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
}
