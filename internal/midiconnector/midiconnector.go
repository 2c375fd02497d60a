package midiconnector

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Devices returns the names of the available MIDI input ports. Problems
// opening the driver are logged and yield an empty list; a machine
// without MIDI support is not an error.
func Devices() []string {
	drv, err := rtmididrv.New()
	if err != nil {
		logrus.WithError(err).Warn("midi driver unavailable")
		return nil
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		logrus.WithError(err).Warn("could not list midi inputs")
		return nil
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// Listen opens the named input port and invokes onTap for every note-on,
// whatever the key. An empty name takes the first available port. The
// returned function tears down the subscription, the port and the driver.
func Listen(name string, onTap func()) (func(), error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("opening midi driver: %w", err)
	}

	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("listing midi inputs: %w", err)
	}

	var found drivers.In
	for _, in := range ins {
		if name == "" || in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		drv.Close()
		if name == "" {
			return nil, fmt.Errorf("no midi inputs available")
		}
		return nil, fmt.Errorf("midi input %q not found", name)
	}

	if err := found.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("opening midi input %q: %w", found.String(), err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, timestampms int32) {
		var ch, key, vel uint8
		if msg.GetNoteStart(&ch, &key, &vel) {
			onTap()
		}
	}, midi.HandleError(func(listenErr error) {
		logrus.WithError(listenErr).Warn("midi listener error")
	}))
	if err != nil {
		found.Close()
		drv.Close()
		return nil, fmt.Errorf("subscribing to midi input: %w", err)
	}

	logrus.WithField("device", found.String()).Info("midi tap input connected")
	return func() {
		stop()
		found.Close()
		drv.Close()
	}, nil
}
