package scanner

import (
	"io"
	"time"

	"golang.org/x/time/rate"
)

// newLimiter returns a byte-rate limiter with a one second burst, or nil
// when bytesPerSec is zero.
func newLimiter(bytesPerSec int) *rate.Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
}

// throttledReader paces reads through a shared limiter. It sleeps out each
// reservation rather than waiting on a context: scans are not cancellable
// mid-read.
type throttledReader struct {
	r   io.Reader
	lim *rate.Limiter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return t.r.Read(p)
	}
	if burst := t.lim.Burst(); len(p) > burst {
		p = p[:burst]
	}
	res := t.lim.ReserveN(time.Now(), len(p))
	if !res.OK() {
		// Only possible if the limiter was reconfigured below len(p).
		return 0, io.ErrShortBuffer
	}
	time.Sleep(res.Delay())
	return t.r.Read(p)
}

// throttle wraps r when lim is non-nil.
func throttle(r io.Reader, lim *rate.Limiter) io.Reader {
	if lim == nil {
		return r
	}
	return &throttledReader{r: r, lim: lim}
}
