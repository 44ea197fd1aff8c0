package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warwick-one-metre/rasa-teld/astrometry"
	"github.com/warwick-one-metre/rasa-teld/mount"
	"github.com/warwick-one-metre/rasa-teld/telescope"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sim := mount.NewSimulator(mount.SimulatorConfig{
		SlewDuration: 10 * time.Millisecond,
		HomeDuration: 5 * time.Millisecond,
	})
	sup := telescope.NewSupervisor(sim, telescope.Config{
		Site:         astrometry.Site{Latitude: 0.5, Longitude: -0.3},
		TickInterval: 2 * time.Millisecond,
	})
	srv := NewServer(sup)
	sup.StatusCallback = srv.statusCallback

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return srv
}

func TestStatusHandler(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.StatusHandler(rec, httptest.NewRequest("GET", "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Disabled", doc["state_label"])
	assert.NotContains(t, doc, "pointing")
}

func TestCommandHandler(t *testing.T) {
	srv := newTestServer(t)

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/command", strings.NewReader(body))
		srv.CommandHandler(rec, req)
		return rec
	}

	rec := post(`{"command": "ping"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result": "Succeeded"}`, rec.Body.String())

	rec = post(`{"command": "slew_altaz", "alt": 0.5, "az": 1.0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result": "NotEnabled"}`, rec.Body.String())

	rec = post(`{"command": "self_destruct"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(`{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommandHandlerFullSlew(t *testing.T) {
	srv := newTestServer(t)

	post := func(body string) string {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/command", strings.NewReader(body))
		srv.CommandHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Result string `json:"result"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out.Result
	}

	require.Equal(t, "Succeeded", post(`{"command": "initialize"}`))
	require.Equal(t, "Succeeded", post(`{"command": "track_altaz", "alt": 0.7, "az": 2.0}`))
	require.Equal(t, "Succeeded", post(`{"command": "shutdown"}`))
}

func TestTextCommand(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.textCommand("ping", nil)
	require.NoError(t, err)
	assert.Equal(t, telescope.ResultSucceeded, result)

	result, err = srv.textCommand("init", nil)
	require.NoError(t, err)
	require.Equal(t, telescope.ResultSucceeded, result)

	// Angles on the text interface are degrees.
	result, err = srv.textCommand("slew_altaz", []string{"45", "180"})
	require.NoError(t, err)
	assert.Equal(t, telescope.ResultSucceeded, result)

	doc := srv.document()
	require.NotNil(t, doc.Pointing)
	assert.InDelta(t, 45.0, doc.Pointing.Alt, 0.01)
	assert.InDelta(t, 180.0, doc.Pointing.Az, 0.01)

	_, err = srv.textCommand("slew_altaz", []string{"45"})
	assert.Error(t, err)
	_, err = srv.textCommand("slew_altaz", []string{"x", "y"})
	assert.Error(t, err)
	_, err = srv.textCommand("warp", nil)
	assert.Error(t, err)
}
