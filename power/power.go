// Package power monitors and switches the observatory power distribution
// unit, a modbus RTU device with one coil per outlet and discrete inputs
// reporting the supply and outlet states.
package power

import (
	"context"
	"sync"

	"github.com/warwick-one-metre/rasa-teld/internal/modbus"
)

const (
	coilMount = iota
	coilCamera
)

type Status struct {
	SupplyOK      bool
	MountPowered  bool
	CameraPowered bool
}

type StatusCallback func(status Status)

// device is the slice of the modbus client the monitor talks to.
type device interface {
	ReadDiscreteInputs(address, quantity uint16) ([]byte, error)
	WriteCoil(coil int, value bool) error
}

// Monitor polls the PDU in the background and publishes snapshots through
// the callback. Switching commands go straight to the device. The mutex
// serializes device access; callbacks run outside it and may call back into
// the monitor.
type Monitor struct {
	statusCallback StatusCallback

	mu     sync.Mutex
	dev    device
	status Status
}

func Connect(ctx context.Context, port string, baud int, slaveID byte, statusCallback StatusCallback) (*Monitor, error) {
	client := &modbus.Client{
		Port:     port,
		BaudRate: baud,
		SlaveID:  slaveID,
	}
	m := &Monitor{dev: client, statusCallback: statusCallback}
	client.Poll = m.pollOnce
	return m, client.Connect(ctx)
}

func (m *Monitor) pollOnce() error {
	m.mu.Lock()
	inputs, err := m.dev.ReadDiscreteInputs(0, 3)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	bits := modbus.BytesToBits(inputs)
	status := Status{
		SupplyOK:      bits[0],
		MountPowered:  bits[1],
		CameraPowered: bits[2],
	}
	m.status = status
	m.mu.Unlock()

	if m.statusCallback != nil {
		m.statusCallback(status)
	}
	return nil
}

// Status returns the last polled snapshot.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Monitor) SetMountPower(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dev.WriteCoil(coilMount, enabled)
}

func (m *Monitor) SetCameraPower(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dev.WriteCoil(coilCamera, enabled)
}
