package engine

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/mbeaumont/tide/internal/source"
)

// FillFunc is the real-time callback: it must fill out with exactly
// frames interleaved stereo samples (silence when there is nothing to
// play) within one buffer period, without blocking or allocating.
type FillFunc func(out []float32, frames int)

// Device binds a FillFunc to an audio output. Start and Stop gate whether
// the callback is invoked; Stop returns only once no callback is in
// flight, so the caller may safely replace whatever the callback reads.
type Device interface {
	Start() error
	Stop() error
	Close() error
}

// DeviceFactory creates the output device for an engine. Tests substitute
// a manual device that pumps the callback on demand.
type DeviceFactory func(sampleRate int, buffer time.Duration, fill FillFunc) (Device, error)

// maxFillFrames bounds a single callback invocation; larger speaker
// requests are split into chunks of this size.
const maxFillFrames = 8192

// The beep speaker is process-global; it is initialized once, at the rate
// of the first engine.
var speakerReady bool

var _ Device = (*speakerDevice)(nil)
var _ beep.Streamer = (*speakerDevice)(nil)

// speakerDevice plays a FillFunc through the beep speaker. It registers
// itself as an endless streamer; Start/Stop flip a gate under the speaker
// lock, which is also what guarantees Stop is synchronous with the
// callback.
type speakerDevice struct {
	fill FillFunc
	buf  []float32

	// running is read by Stream on the device thread and written by
	// Start/Stop; both happen under the speaker lock.
	running bool
}

// NewSpeakerDevice initializes the speaker at the given rate and buffer
// size and registers a silent, stopped device on it.
func NewSpeakerDevice(sampleRate int, buffer time.Duration, fill FillFunc) (Device, error) {
	sr := beep.SampleRate(sampleRate)
	if !speakerReady {
		if err := speaker.Init(sr, sr.N(buffer)); err != nil {
			return nil, fmt.Errorf("speaker init: %w", err)
		}
		speakerReady = true
	}
	d := &speakerDevice{
		fill: fill,
		buf:  make([]float32, maxFillFrames*source.NumChannels),
	}
	speaker.Play(d)
	return d, nil
}

// Stream implements beep.Streamer. It runs on the device thread under the
// speaker lock.
func (d *speakerDevice) Stream(samples [][2]float64) (n int, ok bool) {
	if !d.running {
		for i := range samples {
			samples[i][0] = 0
			samples[i][1] = 0
		}
		return len(samples), true
	}

	done := 0
	for done < len(samples) {
		frames := min(len(samples)-done, maxFillFrames)
		buf := d.buf[:frames*source.NumChannels]
		d.fill(buf, frames)
		for i := 0; i < frames; i++ {
			samples[done+i][0] = float64(buf[2*i])
			samples[done+i][1] = float64(buf[2*i+1])
		}
		done += frames
	}
	return len(samples), true
}

// Err implements beep.Streamer. The device itself never fails; decode
// errors surface through the engine's event sink.
func (d *speakerDevice) Err() error { return nil }

func (d *speakerDevice) Start() error {
	speaker.Lock()
	d.running = true
	speaker.Unlock()
	return nil
}

func (d *speakerDevice) Stop() error {
	speaker.Lock()
	d.running = false
	speaker.Unlock()
	return nil
}

func (d *speakerDevice) Close() error {
	d.Stop()
	speaker.Clear()
	return nil
}
