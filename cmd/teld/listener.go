package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net"
	"strconv"
	"strings"

	"github.com/warwick-one-metre/rasa-teld/telescope"
)

// ListenText serves a line-oriented TCP command interface for scripts and
// interactive use. Angles on this interface are degrees; conversion to
// radians happens here at the boundary.
func (s *Server) ListenText(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("failed to accept: %v", err)
			continue
		}
		go s.handleText(conn)
	}
}

func (s *Server) handleText(conn net.Conn) {
	defer conn.Close()
	log.Printf("accepted connection from %v", conn.RemoteAddr())
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		if cmd == "status" {
			data, err := json.Marshal(s.document())
			if err != nil {
				fmt.Fprintf(conn, "ERR %v\n", err)
				continue
			}
			fmt.Fprintf(conn, "%s\n", data)
			continue
		}

		result, err := s.textCommand(cmd, args)
		if err != nil {
			fmt.Fprintf(conn, "ERR %v\n", err)
			continue
		}
		fmt.Fprintf(conn, "%s\n", result)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("reading from %v: %v", conn.RemoteAddr(), err)
	}
}

func (s *Server) textCommand(cmd string, args []string) (telescope.Result, error) {
	angles := func(n int) ([]float64, error) {
		if len(args) != n {
			return nil, fmt.Errorf("usage: %s takes %d arguments", cmd, n)
		}
		out := make([]float64, n)
		for i, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return nil, fmt.Errorf("bad angle %q", a)
			}
			out[i] = v * math.Pi / 180
		}
		return out, nil
	}

	switch cmd {
	case "ping":
		return s.sup.Ping(), nil
	case "init":
		return s.sup.Initialize(), nil
	case "shutdown":
		return s.sup.Shutdown(), nil
	case "stop":
		return s.sup.Stop(), nil
	case "slew_radec", "track_radec", "slew_altaz", "track_altaz", "offset_radec", "offset_altaz":
		v, err := angles(2)
		if err != nil {
			return 0, err
		}
		switch cmd {
		case "slew_radec":
			return s.sup.SlewRaDec(v[0], v[1]), nil
		case "track_radec":
			return s.sup.TrackRaDec(v[0], v[1]), nil
		case "slew_altaz":
			return s.sup.SlewAltAz(v[0], v[1]), nil
		case "track_altaz":
			return s.sup.TrackAltAz(v[0], v[1]), nil
		case "offset_radec":
			return s.sup.OffsetRaDec(v[0], v[1]), nil
		default:
			return s.sup.OffsetAltAz(v[0], v[1]), nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", cmd)
}
