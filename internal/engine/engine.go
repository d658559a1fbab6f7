// Package engine turns a queue of tracks into continuous audio output.
//
// Three execution contexts meet here: arbitrary caller goroutines using
// the control API, the output device's real-time callback, and the
// progress timer. The callback reads only atomics and the session
// pointer; everything slow (opening tracks, emitting events) happens on
// control goroutines or the advance worker.
package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mbeaumont/tide/internal/media"
	"github.com/mbeaumont/tide/internal/queue"
	"github.com/mbeaumont/tide/internal/source"
)

// OpenFunc resolves a track to an open decode session.
type OpenFunc func(t media.Track) (source.FrameSource, error)

// Tap receives the post-volume samples of every callback invocation.
// Consumers must not block or allocate.
type Tap func(samples []float32, frames, channels int)

// session is one open decode session bound to the track it plays. The
// ended flag makes end-of-track fire exactly once per session.
type session struct {
	src   source.FrameSource
	track media.Track
	ended atomic.Bool
}

// Options configures a new engine. Zero values select defaults.
type Options struct {
	SampleRate       int           // output rate, default 44100
	DeviceBuffer     time.Duration // device buffer period, default 100ms
	ProgressInterval time.Duration // progress event period, default 250ms

	// Volume is the initial volume in [0, 1]. Nil selects the default
	// 0.8; a pointer to 0 starts muted.
	Volume *float64

	Open      OpenFunc      // default: local path, then stream URL
	NewDevice DeviceFactory // default: the beep speaker
	Logger    *zap.Logger
}

// Engine owns the playback state machine, the open decode session, the
// output device and the repeat/shuffle policy. Construct one per process
// with New and pass it to whoever needs it; there is no global instance.
type Engine struct {
	mu sync.Mutex // serializes control operations and session swaps

	queue  *queue.Queue
	device Device
	open   OpenFunc
	log    *zap.Logger

	sampleRate       int
	progressInterval time.Duration

	state  atomic.Int32
	volume atomic.Uint64 // float64 bits
	repeat atomic.Int32

	sess atomic.Pointer[session]
	tap  atomic.Pointer[Tap]

	advance  chan struct{} // single-slot end-of-track signal
	done     chan struct{}
	workerWG sync.WaitGroup

	progressStop chan struct{}
	progressWG   sync.WaitGroup

	subsMu sync.RWMutex
	subs   []*Subscription

	closed bool
}

// New creates an engine over q, opens the output device, and starts the
// advance worker. The engine starts Stopped.
func New(q *queue.Queue, opts Options) (*Engine, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = source.DefaultSampleRate
	}
	if opts.DeviceBuffer <= 0 {
		opts.DeviceBuffer = 100 * time.Millisecond
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 250 * time.Millisecond
	}
	vol := 0.8
	if opts.Volume != nil {
		vol = clampVolume(*opts.Volume)
	}
	if opts.Open == nil {
		opts.Open = defaultOpener(opts.SampleRate)
	}
	if opts.NewDevice == nil {
		opts.NewDevice = NewSpeakerDevice
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	e := &Engine{
		queue:            q,
		open:             opts.Open,
		log:              opts.Logger,
		sampleRate:       opts.SampleRate,
		progressInterval: opts.ProgressInterval,
		advance:          make(chan struct{}, 1),
		done:             make(chan struct{}),
	}
	e.state.Store(int32(StateStopped))
	e.volume.Store(math.Float64bits(vol))

	dev, err := opts.NewDevice(opts.SampleRate, opts.DeviceBuffer, e.fill)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}
	e.device = dev

	e.workerWG.Add(1)
	go e.advanceLoop()

	return e, nil
}

// defaultOpener tries the local path first and falls back to the stream
// URL, per-track. Whatever the last backend reported is returned when
// both fail.
func defaultOpener(sampleRate int) OpenFunc {
	return func(t media.Track) (source.FrameSource, error) {
		var firstErr error
		if t.Path != "" {
			s, err := source.Open(t.Path, sampleRate)
			if err == nil {
				return s, nil
			}
			firstErr = err
		}
		if t.StreamURL != "" {
			s, err := source.OpenURL(context.Background(), t.StreamURL, sampleRate)
			if err == nil {
				return s, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("%w: track %q has no locator", source.ErrNotFound, t.ID)
		}
		return nil, firstErr
	}
}

// Queue returns the queue the engine navigates. Mutations are safe at any
// time; the engine copies out tracks before playing them.
func (e *Engine) Queue() *queue.Queue { return e.queue }

// State returns the current playback state.
func (e *Engine) State() PlaybackState {
	return PlaybackState(e.state.Load())
}

func (e *Engine) setState(s PlaybackState) {
	e.state.Store(int32(s))
}

// Volume returns the current volume in [0, 1].
func (e *Engine) Volume() float64 {
	return math.Float64frombits(e.volume.Load())
}

// RepeatMode returns the current repeat policy.
func (e *Engine) RepeatMode() RepeatMode {
	return RepeatMode(e.repeat.Load())
}

// Shuffle reports whether the queue is shuffled.
func (e *Engine) Shuffle() bool {
	return e.queue.Shuffled()
}

// CurrentTrack returns a copy of the playing track, or nil when stopped.
func (e *Engine) CurrentTrack() *media.Track {
	sess := e.sess.Load()
	if sess == nil {
		return nil
	}
	t := sess.track
	return &t
}

// Position returns the playback position of the open session.
func (e *Engine) Position() time.Duration {
	sess := e.sess.Load()
	if sess == nil {
		return 0
	}
	return source.Duration(sess.src.CurrentFrame(), sess.src.SampleRate())
}

// Duration returns the total duration of the open session, 0 if unknown.
func (e *Engine) Duration() time.Duration {
	sess := e.sess.Load()
	if sess == nil {
		return 0
	}
	return source.Duration(sess.src.TotalFrames(), sess.src.SampleRate())
}

// SetTap installs the raw-audio tap, or removes it when fn is nil. The
// tap sees post-volume samples, synchronously from the device callback.
func (e *Engine) SetTap(fn Tap) {
	if fn == nil {
		e.tap.Store(nil)
		return
	}
	e.tap.Store(&fn)
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Close stops playback, tears down the worker and the device, and closes
// all subscriptions. The engine must not be used afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.stopLocked()
	e.mu.Unlock()

	close(e.done)
	e.workerWG.Wait()

	err := e.device.Close()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()

	return err
}

func (e *Engine) publish(fn func(*Subscription)) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		fn(sub)
	}
}

func (e *Engine) publishStarted(t media.Track) {
	e.publish(func(s *Subscription) { s.sendStarted(StartedEvent{Track: t}) })
}

func (e *Engine) publishPaused() {
	e.publish(func(s *Subscription) { s.sendPaused(PausedEvent{}) })
}

func (e *Engine) publishStopped() {
	e.publish(func(s *Subscription) { s.sendStopped(StoppedEvent{}) })
}

func (e *Engine) publishProgress(pos, dur time.Duration) {
	e.publish(func(s *Subscription) { s.sendProgress(ProgressEvent{Position: pos, Duration: dur}) })
}

func (e *Engine) publishTrackChanged(t media.Track) {
	e.publish(func(s *Subscription) { s.sendTrack(TrackChangedEvent{Track: t}) })
}

func (e *Engine) publishVolume(v float64) {
	e.publish(func(s *Subscription) { s.sendVolume(VolumeChangedEvent{Volume: v}) })
}

func (e *Engine) publishMode() {
	ev := ModeChangedEvent{Repeat: e.RepeatMode(), Shuffle: e.queue.Shuffled()}
	e.publish(func(s *Subscription) { s.sendMode(ev) })
}

func (e *Engine) publishError(op string, err error) {
	e.log.Warn("playback error", zap.String("op", op), zap.Error(err))
	e.publish(func(s *Subscription) { s.sendError(ErrorEvent{Op: op, Err: err}) })
}

func clampVolume(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
