package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"
)

// httpClient is shared by all remote opens. Fetching happens on the
// control thread that asked for the track, never on the audio path.
var httpClient = &http.Client{Timeout: 60 * time.Second}

// OpenURL fetches a remote stream into a temporary file and opens a
// decode session on it. The session reports Streaming() == true and
// removes the temporary file on Close.
func OpenURL(ctx context.Context, rawURL string, sampleRate int) (FrameSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}

	format := DetectFormat(path.Base(u.Path))
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, rawURL, resp.Status)
	}

	tmp, err := os.CreateTemp("", "tide-stream-*"+path.Ext(u.Path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	name := tmp.Name()
	s, err := newDecodeSession(tmp, format, sampleRate)
	if err != nil {
		tmp.Close()
		os.Remove(name)
		return nil, err
	}
	s.streaming = true
	s.cleanup = func() { os.Remove(name) }
	return s, nil
}
