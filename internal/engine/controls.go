package engine

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mbeaumont/tide/internal/media"
	"github.com/mbeaumont/tide/internal/source"
)

// Play starts or resumes playback. No-op when already playing; when
// stopped it pulls the queue's current track.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.State() {
	case StatePlaying:
		return nil
	case StatePaused:
		if err := e.device.Start(); err != nil {
			return fmt.Errorf("%w: %v", ErrDevice, err)
		}
		e.setState(StatePlaying)
		e.startProgressLocked()
		if sess := e.sess.Load(); sess != nil {
			e.publishStarted(sess.track)
		}
		return nil
	default:
		t := e.queue.Current()
		if t == nil {
			return ErrEmptyQueue
		}
		return e.playTrackLocked(*t)
	}
}

// Pause suspends playback. No-op unless playing.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() != StatePlaying {
		return nil
	}
	if err := e.device.Stop(); err != nil {
		return fmt.Errorf("%w: %v", ErrDevice, err)
	}
	e.setState(StatePaused)
	e.stopProgressLocked()
	e.publishPaused()
	return nil
}

// Stop tears down the open session and transitions to Stopped. Idempotent
// and safe to call from any goroutine.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	if e.State() == StateStopped && e.sess.Load() == nil {
		return nil
	}
	if err := e.device.Stop(); err != nil {
		e.log.Warn("device stop", zap.Error(err))
	}
	if old := e.sess.Swap(nil); old != nil {
		if err := old.src.Close(); err != nil {
			e.log.Warn("close source", zap.Error(err))
		}
	}
	// A pending end-of-track signal belongs to the session just torn
	// down; dropping it keeps Stop terminal.
	select {
	case <-e.advance:
	default:
	}
	e.setState(StateStopped)
	e.stopProgressLocked()
	e.publishStopped()
	return nil
}

// TogglePlayPause pauses when playing, otherwise plays.
func (e *Engine) TogglePlayPause() error {
	if e.State() == StatePlaying {
		return e.Pause()
	}
	return e.Play()
}

// PlayTrack replaces the open session with one for t and starts playback.
// It is the substitution primitive every navigation path goes through.
func (e *Engine) PlayTrack(t media.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playTrackLocked(t)
}

func (e *Engine) playTrackLocked(t media.Track) error {
	if e.closed {
		return ErrClosed
	}
	// The device is stopped before the session swap, so no callback can
	// be reading the old session while it is closed.
	if err := e.device.Stop(); err != nil {
		e.log.Warn("device stop", zap.Error(err))
	}
	e.stopProgressLocked()
	if old := e.sess.Swap(nil); old != nil {
		if err := old.src.Close(); err != nil {
			e.log.Warn("close source", zap.Error(err))
		}
	}

	if t.Path == "" && t.StreamURL != "" {
		e.setState(StateBuffering)
	}

	src, err := e.open(t)
	if err != nil {
		e.setState(StateStopped)
		e.publishError("open track", err)
		return err
	}
	e.sess.Store(&session{src: src, track: t})

	if err := e.device.Start(); err != nil {
		if old := e.sess.Swap(nil); old != nil {
			old.src.Close()
		}
		e.setState(StateStopped)
		err = fmt.Errorf("%w: %v", ErrDevice, err)
		e.publishError("start device", err)
		return err
	}

	e.setState(StatePlaying)
	e.startProgressLocked()
	e.publishTrackChanged(t)
	e.publishStarted(t)
	return nil
}

// PlayNext advances the queue and plays the result; when the queue is
// exhausted it stops.
func (e *Engine) PlayNext() error {
	if t := e.queue.Next(); t != nil {
		return e.PlayTrack(*t)
	}
	return e.Stop()
}

// PlayPrevious steps the queue back and plays the result; no-op at the
// beginning.
func (e *Engine) PlayPrevious() error {
	if t := e.queue.Previous(); t != nil {
		return e.PlayTrack(*t)
	}
	return nil
}

// Seek repositions the open session to the given position.
func (e *Engine) Seek(pos time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.sess.Load()
	if sess == nil {
		return ErrNoTrackLoaded
	}
	rate := sess.src.SampleRate()
	if rate <= 0 {
		return source.ErrSeekFailed
	}
	frame := int64(pos) * int64(rate) / int64(time.Second)
	if err := sess.src.Seek(frame); err != nil {
		return err
	}
	// Seeking backwards revives an exhausted session.
	sess.ended.Store(false)
	e.publishProgress(source.Duration(frame, rate), source.Duration(sess.src.TotalFrames(), rate))
	return nil
}

// SetVolume clamps v to [0, 1], stores it for the audio path, and emits a
// volume-changed event.
func (e *Engine) SetVolume(v float64) {
	v = clampVolume(v)
	e.volume.Store(math.Float64bits(v))
	e.publishVolume(v)
}

// SetRepeatMode sets the repeat policy.
func (e *Engine) SetRepeatMode(m RepeatMode) {
	e.repeat.Store(int32(m))
	e.publishMode()
}

// SetShuffle engages or releases the queue's shuffle permutation.
func (e *Engine) SetShuffle(enabled bool) {
	if enabled {
		e.queue.Shuffle()
	} else {
		e.queue.Unshuffle()
	}
	e.publishMode()
}
