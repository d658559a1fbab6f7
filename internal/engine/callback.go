package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/mbeaumont/tide/internal/source"
)

// fill is the real-time callback. It reads only atomics and the session
// pointer, performs no allocation, takes no engine lock, and never blocks:
// when there is nothing to play it fills silence and returns. End of track
// is only *detected* here; the actual advance runs on the worker.
func (e *Engine) fill(out []float32, frames int) {
	if frames*source.NumChannels > len(out) {
		frames = len(out) / source.NumChannels
	}
	n := frames * source.NumChannels

	if e.State() != StatePlaying {
		zeroSamples(out[:n])
		return
	}
	sess := e.sess.Load()
	if sess == nil {
		zeroSamples(out[:n])
		return
	}

	read := sess.src.ReadFrames(out, frames)

	vol := float32(e.Volume())
	for i := 0; i < read*source.NumChannels; i++ {
		out[i] *= vol
	}
	zeroSamples(out[read*source.NumChannels : n])

	if read > 0 {
		if tap := e.tap.Load(); tap != nil {
			callTap(*tap, out[:read*source.NumChannels], read)
		}
	}

	// A short read means the decoder is exhausted; a zero read on a
	// broken stream is treated the same way rather than surfacing an
	// error from this context.
	total := sess.src.TotalFrames()
	if read < frames || (total > 0 && sess.src.CurrentFrame() >= total) {
		if sess.ended.CompareAndSwap(false, true) {
			select {
			case e.advance <- struct{}{}:
			default:
			}
		}
	}
}

// callTap isolates the tap consumer: a panicking visualizer must not
// corrupt audio delivery.
func callTap(tap Tap, samples []float32, frames int) {
	defer func() {
		_ = recover()
	}()
	tap(samples, frames, source.NumChannels)
}

func zeroSamples(s []float32) {
	for i := range s {
		s[i] = 0
	}
}

// advanceLoop drains end-of-track signals on a non-real-time goroutine
// and performs the track substitution the callback must not.
func (e *Engine) advanceLoop() {
	defer e.workerWG.Done()
	for {
		select {
		case <-e.done:
			return
		case <-e.advance:
			e.handleTrackEnd()
		}
	}
}

// handleTrackEnd applies the continuation policy: repeat-one rewinds the
// open session, otherwise the queue advances, repeat-all wraps, and with
// nothing left the engine stops. It runs entirely under the engine lock
// so a Stop or Close that won the lock first makes the signal stale, and
// a stale signal must not restart playback.
func (e *Engine) handleTrackEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.sess.Load()
	if e.closed || sess == nil || e.State() == StateStopped {
		return
	}

	if e.RepeatMode() == RepeatOne {
		if err := sess.src.Seek(0); err == nil {
			sess.ended.Store(false)
			return
		}
		// An unseekable session cannot loop; fall through to the
		// queue policy.
		e.log.Warn("repeat-one rewind failed", zap.String("track", sess.track.ID))
	}

	if t := e.queue.Next(); t != nil {
		if err := e.playTrackLocked(*t); err != nil {
			e.stopLocked()
		}
		return
	}
	if e.RepeatMode() == RepeatAll && !e.queue.IsEmpty() {
		if t := e.queue.JumpTo(0); t != nil {
			if err := e.playTrackLocked(*t); err != nil {
				e.stopLocked()
			}
			return
		}
	}
	e.stopLocked()
}

// startProgressLocked launches the progress timer if it is not running.
func (e *Engine) startProgressLocked() {
	if e.progressStop != nil {
		return
	}
	stop := make(chan struct{})
	e.progressStop = stop
	e.progressWG.Add(1)
	go func() {
		defer e.progressWG.Done()
		ticker := time.NewTicker(e.progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if e.State() == StatePlaying {
					e.publishProgress(e.Position(), e.Duration())
				}
			}
		}
	}()
}

// stopProgressLocked cancels the timer and waits for the in-flight
// iteration, so no progress event fires after a stop has completed.
func (e *Engine) stopProgressLocked() {
	if e.progressStop == nil {
		return
	}
	close(e.progressStop)
	e.progressWG.Wait()
	e.progressStop = nil
}
