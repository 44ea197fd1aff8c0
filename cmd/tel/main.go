// tel is the command-line client for the telescope daemon. Angles are given
// in degrees and converted to radians at the API boundary.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var addr string

func main() {
	root := &cobra.Command{
		Use:           "tel",
		Short:         "Control the telescope mount daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultAddr := os.Getenv("TELD_ADDR")
	if defaultAddr == "" {
		defaultAddr = "127.0.0.1:9002"
	}
	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "daemon HTTP address")

	root.AddCommand(
		simpleCommand("init", "Power up and home the mount", "initialize"),
		simpleCommand("shutdown", "Disable tracking and power down", "shutdown"),
		simpleCommand("stop", "Abort any in-progress motion", "stop"),
		simpleCommand("ping", "Check that the daemon is responding", "ping"),
		motionCommand("slew", "Slew to RA, Dec (degrees) without tracking", "slew_radec", "ra", "dec"),
		motionCommand("track", "Slew to RA, Dec (degrees) and track", "track_radec", "ra", "dec"),
		motionCommand("slew-altaz", "Slew to Alt, Az (degrees) without tracking", "slew_altaz", "alt", "az"),
		motionCommand("track-altaz", "Slew to Alt, Az (degrees) and track", "track_altaz", "alt", "az"),
		motionCommand("offset", "Offset by dRA, dDec (degrees)", "offset_radec", "dra", "ddec"),
		motionCommand("offset-altaz", "Offset by dAlt, dAz (degrees)", "offset_altaz", "dalt", "daz"),
		statusCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func simpleCommand(use, short, command string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return post(map[string]interface{}{"command": command})
		},
	}
}

func motionCommand(use, short, command, keyA, keyB string) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <%s> <%s>", use, keyA, keyB),
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("bad angle %q", args[0])
			}
			b, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("bad angle %q", args[1])
			}
			return post(map[string]interface{}{
				"command": command,
				keyA:      a * math.Pi / 180,
				keyB:      b * math.Pi / 180,
			})
		},
	}
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current telescope status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().Get("http://" + addr + "/api/status")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			var doc struct {
				StateLabel string `json:"state_label"`
				Pointing   *struct {
					RA             float64 `json:"ra"`
					Dec            float64 `json:"dec"`
					Alt            float64 `json:"alt"`
					Az             float64 `json:"az"`
					LST            float64 `json:"lst"`
					SunSeparation  float64 `json:"sun_separation"`
					MoonSeparation float64 `json:"moon_separation"`
				} `json:"pointing"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
				return err
			}
			fmt.Printf("State: %s\n", doc.StateLabel)
			if p := doc.Pointing; p != nil {
				fmt.Printf("RA:   %9.4f deg    Dec: %9.4f deg\n", p.RA, p.Dec)
				fmt.Printf("Alt:  %9.4f deg    Az:  %9.4f deg\n", p.Alt, p.Az)
				fmt.Printf("LST:  %9.4f h\n", p.LST)
				fmt.Printf("Sun:  %9.1f deg    Moon: %8.1f deg\n", p.SunSeparation, p.MoonSeparation)
			}
			return nil
		},
	}
}

func client() *http.Client {
	// Slews block until they finish, so the command request has no timeout.
	return &http.Client{}
}

func post(cmd map[string]interface{}) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	resp, err := client().Post("http://"+addr+"/api/command", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var out struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	fmt.Println(out.Result)
	if out.Result != "Succeeded" {
		os.Exit(1)
	}
	return nil
}
