package mount

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// SerialConfig describes the serial link to the mount controller.
type SerialConfig struct {
	Port string
	// Baud defaults to 115200.
	Baud int
	// ReadTimeout bounds a single command round trip. Defaults to 2s.
	ReadTimeout time.Duration
	// HomeTimeout bounds a full homing run. Defaults to 2m.
	HomeTimeout time.Duration
	// HomePollInterval is how often FindHome re-polls the controller.
	HomePollInterval time.Duration
}

// Serial drives the mount controller over its ASCII line protocol.
// One request is in flight at a time; every request line is answered with
// "OK [fields]" or "ERR <code> <text>".
type Serial struct {
	cfg  SerialConfig
	open func() (io.ReadWriteCloser, error)

	mu   sync.Mutex
	conn io.ReadWriteCloser
	r    *bufio.Reader
}

func NewSerial(cfg SerialConfig) *Serial {
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 2 * time.Second
	}
	if cfg.HomeTimeout == 0 {
		cfg.HomeTimeout = 2 * time.Minute
	}
	if cfg.HomePollInterval == 0 {
		cfg.HomePollInterval = 500 * time.Millisecond
	}
	s := &Serial{cfg: cfg}
	s.open = func() (io.ReadWriteCloser, error) {
		c := &serial.Config{Name: cfg.Port, Baud: cfg.Baud, ReadTimeout: cfg.ReadTimeout}
		port, err := serial.OpenPort(c)
		if err != nil {
			return nil, &Fault{Kind: FaultNotConnected, Msg: fmt.Sprintf("opening %q: %v", cfg.Port, err)}
		}
		return port, nil
	}
	return s
}

// NewSerialConn wraps an already-established connection, e.g. a pipe to a
// controller simulator. Used by tests.
func NewSerialConn(conn io.ReadWriteCloser, cfg SerialConfig) *Serial {
	s := NewSerial(cfg)
	s.open = func() (io.ReadWriteCloser, error) { return conn, nil }
	return s
}

func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil
	}
	conn, err := s.open()
	if err != nil {
		return err
	}
	s.conn = conn
	s.r = bufio.NewReader(conn)
	return nil
}

func (s *Serial) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn, s.r = nil, nil
	return err
}

// command sends one line and parses the controller's reply. The returned
// string is the reply payload after "OK".
func (s *Serial) command(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return "", &Fault{Kind: FaultNotConnected, Msg: "not connected"}
	}
	if _, err := fmt.Fprintf(s.conn, "%s\n", cmd); err != nil {
		return "", &Fault{Kind: FaultNotConnected, Msg: fmt.Sprintf("writing %q: %v", cmd, err)}
	}
	line, err := s.r.ReadString('\n')
	if err != nil {
		return "", &Fault{Kind: FaultTimeout, Msg: fmt.Sprintf("no response to %q: %v", cmd, err)}
	}
	return parseReply(strings.TrimSpace(line))
}

func parseReply(line string) (string, error) {
	switch {
	case line == "OK":
		return "", nil
	case strings.HasPrefix(line, "OK "):
		return line[3:], nil
	case strings.HasPrefix(line, "ERR "):
		rest := line[4:]
		code, msg := rest, ""
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			code, msg = rest[:i], rest[i+1:]
		}
		kind, known := kindForCode(code)
		if !known {
			// Old firmware sends free text after ERR.
			return "", &Fault{Kind: classifyText(rest), Msg: rest}
		}
		if msg == "" {
			msg = kind.String()
		}
		return "", &Fault{Kind: kind, Msg: msg}
	}
	return "", fmt.Errorf("unexpected reply %q", line)
}

func kindForCode(code string) (FaultKind, bool) {
	switch code {
	case "NOTCONN":
		return FaultNotConnected, true
	case "TIMEOUT":
		return FaultTimeout, true
	case "LIMITS":
		return FaultOutsideLimits, true
	case "BUSY":
		return FaultBusy, true
	}
	return FaultOther, false
}

func formatAngle(v float64) string {
	return strconv.FormatFloat(v, 'f', 9, 64)
}

// FindHome starts a homing run and polls until the controller reports the
// axes stationary again.
func (s *Serial) FindHome() error {
	if _, err := s.command("HOME"); err != nil {
		return err
	}
	deadline := time.Now().Add(s.cfg.HomeTimeout)
	for time.Now().Before(deadline) {
		st, err := s.Status()
		if err != nil {
			return err
		}
		if !st.Slewing {
			return nil
		}
		time.Sleep(s.cfg.HomePollInterval)
	}
	return &Fault{Kind: FaultTimeout, Msg: "no response from homing run"}
}

func (s *Serial) SetTracking(enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	_, err := s.command("TRACK " + v)
	return err
}

func (s *Serial) SlewToEquatorial(ra, dec float64) error {
	_, err := s.command("GOTO EQ " + formatAngle(ra) + " " + formatAngle(dec))
	return err
}

func (s *Serial) SlewToHorizontal(alt, az float64) error {
	_, err := s.command("GOTO HOR " + formatAngle(alt) + " " + formatAngle(az))
	return err
}

func (s *Serial) Jog(axis Axis, delta float64) error {
	_, err := s.command("JOG " + axis.String() + " " + formatAngle(delta))
	return err
}

func (s *Serial) AbortSlew() error {
	_, err := s.command("ABORT")
	return err
}

// Status queries the controller. The STAT payload is six fields:
// tracking slewing ra dec alt az.
func (s *Serial) Status() (Status, error) {
	payload, err := s.command("STAT")
	if err != nil {
		return Status{}, err
	}
	fields := strings.Fields(payload)
	if len(fields) != 6 {
		return Status{}, fmt.Errorf("malformed STAT reply %q", payload)
	}
	var st Status
	st.Tracking = fields[0] == "1"
	st.Slewing = fields[1] == "1"
	for i, dest := range []*float64{&st.RA, &st.Dec, &st.Alt, &st.Az} {
		v, err := strconv.ParseFloat(fields[2+i], 64)
		if err != nil {
			return Status{}, fmt.Errorf("malformed STAT field %q: %v", fields[2+i], err)
		}
		*dest = v
	}
	return st, nil
}
