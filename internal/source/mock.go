package source

import "sync"

// Mock is a test double for FrameSource. It produces a constant sample
// value for a configurable number of frames.
type Mock struct {
	mu sync.Mutex

	rate    int
	total   int64
	cur     int64
	sample  float32
	seekErr error
	closed  bool
	seeks   []int64
}

// NewMock creates a mock session of totalFrames frames at sampleRate,
// producing sample for every channel of every frame.
func NewMock(sampleRate int, totalFrames int64, sample float32) *Mock {
	return &Mock{rate: sampleRate, total: totalFrames, sample: sample}
}

func (m *Mock) ReadFrames(dst []float32, frames int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || frames <= 0 {
		return 0
	}
	if frames*NumChannels > len(dst) {
		frames = len(dst) / NumChannels
	}
	if remaining := m.total - m.cur; int64(frames) > remaining {
		frames = int(remaining)
	}
	for i := 0; i < frames*NumChannels; i++ {
		dst[i] = m.sample
	}
	m.cur += int64(frames)
	return frames
}

func (m *Mock) Seek(frame int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seeks = append(m.seeks, frame)
	if m.seekErr != nil {
		return m.seekErr
	}
	if frame < 0 || frame >= m.total {
		return ErrSeekFailed
	}
	m.cur = frame
	return nil
}

func (m *Mock) SampleRate() int { return m.rate }

func (m *Mock) Channels() int { return NumChannels }

func (m *Mock) TotalFrames() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

func (m *Mock) CurrentFrame() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

func (m *Mock) Streaming() bool { return false }

func (m *Mock) Err() error { return nil }

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cur = 0
	m.total = 0
	return nil
}

// Test helpers

func (m *Mock) SetSeekError(err error) { m.seekErr = err }

func (m *Mock) SeekCalls() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.seeks...)
}

func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements FrameSource at compile time.
var _ FrameSource = (*Mock)(nil)
