package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warwick-one-metre/rasa-teld/power"
	"github.com/warwick-one-metre/rasa-teld/telescope"
)

// statusDocument is the wire form of a status report, extended with the PDU
// snapshot when power monitoring is enabled.
type statusDocument struct {
	telescope.Status
	Power *power.Status `json:"power,omitempty"`
}

type Server struct {
	sup *telescope.Supervisor
	pm  *power.Monitor

	statusMu   sync.RWMutex
	statusCond *sync.Cond
	status     telescope.Status
}

func NewServer(sup *telescope.Supervisor) *Server {
	s := &Server{sup: sup}
	s.statusCond = sync.NewCond(s.statusMu.RLocker())
	return s
}

// statusCallback receives a report after every supervisor tick and wakes any
// websocket clients waiting for the next one.
func (s *Server) statusCallback(status telescope.Status) {
	s.statusMu.Lock()
	s.status = status
	s.statusCond.Broadcast()
	s.statusMu.Unlock()
}

func (s *Server) document() statusDocument {
	s.statusMu.RLock()
	doc := statusDocument{Status: s.status}
	s.statusMu.RUnlock()
	if doc.StateLabel == "" {
		// No tick has run yet.
		doc.Status = s.sup.Status()
	}
	if s.pm != nil {
		p := s.pm.Status()
		doc.Power = &p
	}
	return doc
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) ListenHTTP(ctx context.Context, addr string) error {
	r := mux.NewRouter()
	r.HandleFunc("/api/status", s.StatusHandler).Methods("GET")
	r.HandleFunc("/api/command", s.CommandHandler).Methods("POST")
	r.HandleFunc("/api/ws", s.StatusSocketHandler)
	r.Handle("/metrics", promhttp.Handler())

	// No write timeout: commands block for the duration of a slew and the
	// websocket stays open indefinitely.
	srv := &http.Server{
		Handler:     r,
		Addr:        addr,
		ReadTimeout: 15 * time.Second,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}

func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.document()); err != nil {
		log.Print(err)
	}
}

// Command is one inbound command. Angles are radians.
type Command struct {
	Command string  `json:"command"`
	RA      float64 `json:"ra"`
	Dec     float64 `json:"dec"`
	Alt     float64 `json:"alt"`
	Az      float64 `json:"az"`
	DRA     float64 `json:"dra"`
	DDec    float64 `json:"ddec"`
	DAlt    float64 `json:"dalt"`
	DAz     float64 `json:"daz"`
	Enabled bool    `json:"enabled"`
}

// dispatch runs a command to completion on the caller's goroutine. Motion
// commands block until the supervisor resolves them.
func (s *Server) dispatch(cmd Command) (telescope.Result, bool) {
	switch cmd.Command {
	case "initialize":
		return s.sup.Initialize(), true
	case "shutdown":
		return s.sup.Shutdown(), true
	case "stop":
		return s.sup.Stop(), true
	case "slew_radec":
		return s.sup.SlewRaDec(cmd.RA, cmd.Dec), true
	case "track_radec":
		return s.sup.TrackRaDec(cmd.RA, cmd.Dec), true
	case "slew_altaz":
		return s.sup.SlewAltAz(cmd.Alt, cmd.Az), true
	case "track_altaz":
		return s.sup.TrackAltAz(cmd.Alt, cmd.Az), true
	case "offset_radec":
		return s.sup.OffsetRaDec(cmd.DRA, cmd.DDec), true
	case "offset_altaz":
		return s.sup.OffsetAltAz(cmd.DAlt, cmd.DAz), true
	case "ping":
		return s.sup.Ping(), true
	case "power_mount":
		return s.setPower(s.pm.SetMountPower, cmd.Enabled), true
	case "power_camera":
		return s.setPower(s.pm.SetCameraPower, cmd.Enabled), true
	}
	return 0, false
}

func (s *Server) setPower(set func(bool) error, enabled bool) telescope.Result {
	if s.pm == nil {
		return telescope.ResultNotEnabled
	}
	if err := set(enabled); err != nil {
		log.Printf("switching power: %v", err)
		return telescope.ResultFailed
	}
	return telescope.ResultSucceeded
}

func (s *Server) CommandHandler(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, ok := s.dispatch(cmd)
	if !ok {
		http.Error(w, "unknown command", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"result": result.String()})
}

// StatusSocketHandler streams a status document after every supervisor tick.
func (s *Server) StatusSocketHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	defer conn.Close()

	// Read and process incoming command messages; a read error means the
	// client went away.
	go func() {
		for {
			var cmd Command
			if err := conn.ReadJSON(&cmd); err != nil {
				cancel()
				return
			}
			// Motion commands block until they resolve, so each one gets
			// its own goroutine. Results surface through the status feed.
			go s.dispatch(cmd)
		}
	}()

	// Wake the cond wait below when the client disconnects or the server
	// shuts down.
	stop := context.AfterFunc(ctx, func() {
		s.statusMu.RLock()
		s.statusCond.Broadcast()
		s.statusMu.RUnlock()
	})
	defer stop()

	send := func(doc statusDocument) error {
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	if err := send(s.document()); err != nil {
		return
	}
	for {
		s.statusMu.RLock()
		s.statusCond.Wait()
		s.statusMu.RUnlock()
		if ctx.Err() != nil {
			return
		}
		if err := send(s.document()); err != nil {
			return
		}
	}
}
