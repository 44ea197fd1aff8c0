// teld-logger follows the daemon's websocket status feed and writes every
// report into InfluxDB for the observatory dashboards.
package main

import (
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"

	"github.com/warwick-one-metre/rasa-teld/power"
	"github.com/warwick-one-metre/rasa-teld/telescope"
)

// statusDocument mirrors the daemon's websocket payload.
type statusDocument struct {
	telescope.Status
	Power *power.Status `json:"power"`
}

func main() {
	server := os.Getenv("INFLUX_SERVER")
	if server == "" {
		server = "http://localhost:9999"
	}
	client := influxdb2.NewClient(server, os.Getenv("INFLUX_TOKEN"))
	defer client.Close()
	writeApi := client.WriteApi("warwick", "teld.raw")
	defer writeApi.Close()

	go func() {
		for err := range writeApi.Errors() {
			log.Printf("write error: %v", err)
		}
	}()

	for {
		if err := logData(writeApi); err != nil {
			log.Print(err)
		}
		time.Sleep(1 * time.Second)
	}
}

// statusFields maps one status document onto the flat field names the
// dashboards query. Pointing and power fields are only present when the
// document carries them.
func statusFields(doc statusDocument) map[string]interface{} {
	fields := map[string]interface{}{
		"state":       int(doc.State),
		"state_label": doc.StateLabel,
	}
	if p := doc.Pointing; p != nil {
		fields["ra"] = p.RA
		fields["dec"] = p.Dec
		fields["alt"] = p.Alt
		fields["az"] = p.Az
		fields["lst"] = p.LST
		fields["sun_separation"] = p.SunSeparation
		fields["moon_separation"] = p.MoonSeparation
	}
	if pw := doc.Power; pw != nil {
		fields["power_supply_ok"] = pw.SupplyOK
		fields["power_mount"] = pw.MountPowered
		fields["power_camera"] = pw.CameraPowered
	}
	return fields
}

func logData(writeApi api.WriteApi) error {
	url := os.Getenv("TELD_ADDRESS")
	if url == "" {
		url = "ws://localhost:9002/api/ws"
	}
	defer writeApi.Flush()
	var dialer websocket.Dialer
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	for {
		var doc statusDocument
		if err := conn.ReadJSON(&doc); err != nil {
			return err
		}
		writeApi.WritePoint(influxdb2.NewPoint("teld.status", nil, statusFields(doc), time.Now()))
	}
}
