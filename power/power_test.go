package power

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePDU struct {
	inputs  []byte
	readErr error
	coils   map[int]bool
}

func (f *fakePDU) ReadDiscreteInputs(address, quantity uint16) ([]byte, error) {
	return f.inputs, f.readErr
}

func (f *fakePDU) WriteCoil(coil int, value bool) error {
	if f.coils == nil {
		f.coils = map[int]bool{}
	}
	f.coils[coil] = value
	return nil
}

func TestPollPublishesStatus(t *testing.T) {
	var got []Status
	m := &Monitor{dev: &fakePDU{inputs: []byte{0b101}}}
	m.statusCallback = func(s Status) { got = append(got, s) }

	require.NoError(t, m.pollOnce())
	want := Status{SupplyOK: true, MountPowered: false, CameraPowered: true}
	assert.Equal(t, want, m.Status())
	require.Len(t, got, 1)
	assert.Equal(t, want, got[0])
}

func TestPollError(t *testing.T) {
	m := &Monitor{dev: &fakePDU{readErr: errors.New("timeout")}}
	m.statusCallback = func(Status) { t.Error("callback invoked on a failed poll") }
	require.Error(t, m.pollOnce())
}

func TestCallbackMayReenter(t *testing.T) {
	fake := &fakePDU{inputs: []byte{0b111}}
	m := &Monitor{dev: fake}
	m.statusCallback = func(Status) {
		// Reading and switching from inside the callback must not block.
		_ = m.Status()
		_ = m.SetCameraPower(false)
	}

	done := make(chan error, 1)
	go func() { done <- m.pollOnce() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poll blocked inside the status callback")
	}
	assert.Equal(t, map[int]bool{coilCamera: false}, fake.coils)
}

func TestSetPower(t *testing.T) {
	fake := &fakePDU{}
	m := &Monitor{dev: fake}
	require.NoError(t, m.SetMountPower(true))
	require.NoError(t, m.SetCameraPower(true))
	require.NoError(t, m.SetMountPower(false))
	assert.Equal(t, map[int]bool{coilMount: false, coilCamera: true}, fake.coils)
}
