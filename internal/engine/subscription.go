package engine

const eventBufferSize = 16

// Subscription provides event channels for one subscriber. Sends are
// non-blocking: a subscriber that falls behind loses events rather than
// stalling the engine.
type Subscription struct {
	Started       <-chan StartedEvent
	Paused        <-chan PausedEvent
	Stopped       <-chan StoppedEvent
	Progress      <-chan ProgressEvent
	TrackChanged  <-chan TrackChangedEvent
	VolumeChanged <-chan VolumeChangedEvent
	ModeChanged   <-chan ModeChangedEvent
	Errors        <-chan ErrorEvent
	Done          <-chan struct{}

	startedCh  chan StartedEvent
	pausedCh   chan PausedEvent
	stoppedCh  chan StoppedEvent
	progressCh chan ProgressEvent
	trackCh    chan TrackChangedEvent
	volumeCh   chan VolumeChangedEvent
	modeCh     chan ModeChangedEvent
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		startedCh:  make(chan StartedEvent, eventBufferSize),
		pausedCh:   make(chan PausedEvent, eventBufferSize),
		stoppedCh:  make(chan StoppedEvent, eventBufferSize),
		progressCh: make(chan ProgressEvent, eventBufferSize),
		trackCh:    make(chan TrackChangedEvent, eventBufferSize),
		volumeCh:   make(chan VolumeChangedEvent, eventBufferSize),
		modeCh:     make(chan ModeChangedEvent, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.Started = s.startedCh
	s.Paused = s.pausedCh
	s.Stopped = s.stoppedCh
	s.Progress = s.progressCh
	s.TrackChanged = s.trackCh
	s.VolumeChanged = s.volumeCh
	s.ModeChanged = s.modeCh
	s.Errors = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals the subscriber to stop reading.
func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendStarted(e StartedEvent) {
	select {
	case s.startedCh <- e:
	default:
	}
}

func (s *Subscription) sendPaused(e PausedEvent) {
	select {
	case s.pausedCh <- e:
	default:
	}
}

func (s *Subscription) sendStopped(e StoppedEvent) {
	select {
	case s.stoppedCh <- e:
	default:
	}
}

func (s *Subscription) sendProgress(e ProgressEvent) {
	select {
	case s.progressCh <- e:
	default:
	}
}

func (s *Subscription) sendTrack(e TrackChangedEvent) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendVolume(e VolumeChangedEvent) {
	select {
	case s.volumeCh <- e:
	default:
	}
}

func (s *Subscription) sendMode(e ModeChangedEvent) {
	select {
	case s.modeCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
