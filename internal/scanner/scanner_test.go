package scanner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/pinrecover/internal/extraction"
)

var sig = []byte{0x03, 0x0C, 0x06, 0x07}

// record returns an 8-byte payload followed by the binary signature.
func record(payload string) []byte {
	return append([]byte(payload), sig...)
}

// zerosWith returns size zero bytes with insert copied at offset.
func zerosWith(size, offset int, insert []byte) []byte {
	data := make([]byte, size)
	copy(data[offset:], insert)
	return data
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "8000000000000100")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func newScanner(t *testing.T, cfg Config, opts ...Option) *Scanner {
	t.Helper()
	s, err := New(cfg, extraction.Default(), opts...)
	require.NoError(t, err)
	return s
}

func smallConfig() Config {
	return Config{ChunkSize: 64, Overlap: 32}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)

	_, err = New(DefaultConfig(), extraction.New())
	assert.Error(t, err, "extractor without strategies")

	_, err = New(Config{ChunkSize: 64, Overlap: 8}, extraction.Default())
	assert.ErrorContains(t, err, "longest strategy span")

	_, err = New(Config{ChunkSize: 32, Overlap: 32}, extraction.Default())
	assert.ErrorContains(t, err, "smaller than chunk size")

	_, err = New(Config{ChunkSize: 64, Overlap: 32, ReadRateBytes: -1}, extraction.Default())
	assert.Error(t, err)

	s, err := New(DefaultConfig(), extraction.Default())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), s.Config())
}

func TestScan_ScenarioA_KeywordNearChunkBoundary(t *testing.T) {
	data := zerosWith(40000, 31990, []byte(`"pinCode":"56789012"`))
	s := newScanner(t, DefaultConfig())

	pin, ok := s.Scan(context.Background(), writeFile(t, data))
	require.True(t, ok)
	assert.Equal(t, "56789012", pin.Value())
}

func TestScan_ScenarioB_GarbagePayload(t *testing.T) {
	data := zerosWith(4096, 100, record("ABCDEFGH"))
	s := newScanner(t, DefaultConfig())

	res := s.ScanFile(context.Background(), writeFile(t, data))
	assert.False(t, res.Found())
	assert.ErrorIs(t, res.Err, ErrNotFound)
	assert.Equal(t, "not_found", res.Outcome())
	assert.Empty(t, res.Match.Candidate)
}

func TestScan_ScenarioC_EmptyFile(t *testing.T) {
	s := newScanner(t, DefaultConfig())

	res := s.ScanFile(context.Background(), writeFile(t, nil))
	assert.False(t, res.Found())
	assert.ErrorIs(t, res.Err, ErrNotFound)
	assert.Zero(t, res.Windows)
	assert.Zero(t, res.BytesRead)
}

func TestScan_SignatureStraddlesChunkBoundary(t *testing.T) {
	// Two signature bytes end chunk 1, two start chunk 2.
	payloadAt := DefaultChunkSize - 10
	data := zerosWith(DefaultChunkSize*2, payloadAt, record("12345678"))
	s := newScanner(t, DefaultConfig())

	res := s.ScanFile(context.Background(), writeFile(t, data))
	require.True(t, res.Found())
	assert.Equal(t, "12345678", res.Match.Candidate.Value())
	assert.Equal(t, extraction.SignatureStrategyName, res.Match.Strategy)
	assert.Equal(t, int64(payloadAt), res.Offset)
	assert.Equal(t, 2, res.Windows)
}

func TestScan_KeywordStraddlesChunkBoundary(t *testing.T) {
	at := DefaultChunkSize - 5
	data := zerosWith(DefaultChunkSize+1000, at, []byte(`"pinCode": "4321"`))
	s := newScanner(t, DefaultConfig())

	res := s.ScanFile(context.Background(), writeFile(t, data))
	require.True(t, res.Found())
	assert.Equal(t, "4321", res.Match.Candidate.Value())
	assert.Equal(t, extraction.KeywordStrategyName, res.Match.Strategy)
	assert.Equal(t, int64(at), res.Offset)
	assert.Equal(t, 2, res.Windows)
}

func TestScan_EverySplitPoint(t *testing.T) {
	cfg := smallConfig()
	markers := map[string][]byte{
		"signature": record("24681357"),
		"keyword":   []byte(`"pinCode":"2468"`),
	}
	want := map[string]string{
		"signature": "24681357",
		"keyword":   "2468",
	}

	for name, marker := range markers {
		t.Run(name, func(t *testing.T) {
			s := newScanner(t, cfg)
			for pos := 0; pos+len(marker) <= 300; pos++ {
				data := zerosWith(300, pos, marker)
				res := s.ScanReader(context.Background(), bytes.NewReader(data))
				require.Truef(t, res.Found(), "marker at %d not found", pos)
				assert.Equalf(t, want[name], res.Match.Candidate.Value(), "marker at %d", pos)
				assert.Equalf(t, int64(pos), res.Offset, "marker at %d", pos)
			}
		})
	}
}

func TestScan_KeywordValueCutByChunkEnd(t *testing.T) {
	// Strategies see one window at a time. Digits cut by the chunk end are
	// accepted when at least four of them made it into the window; shorter
	// runs are rejected and the next window, which carries the key in its
	// overlap, yields the whole value.
	marker := []byte(`"pinCode":"56789012"`)
	digitsAt := len(`"pinCode":"`)

	tests := []struct {
		name        string
		inFirst     int
		want        string
		wantWindows int
	}{
		{"six digits in first chunk", 6, "567890", 1},
		{"four digits in first chunk", 4, "5678", 1},
		{"three digits in first chunk", 3, "56789012", 2},
		{"no digits in first chunk", 0, "56789012", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := DefaultChunkSize - digitsAt - tt.inFirst
			data := zerosWith(DefaultChunkSize+1000, at, marker)
			s := newScanner(t, DefaultConfig())

			res := s.ScanReader(context.Background(), bytes.NewReader(data))
			require.True(t, res.Found())
			assert.Equal(t, tt.want, res.Match.Candidate.Value())
			assert.Equal(t, int64(at), res.Offset)
			assert.Equal(t, tt.wantWindows, res.Windows)
		})
	}
}

func TestScan_KeywordTruncatesLongRun(t *testing.T) {
	data := zerosWith(1024, 200, []byte(`"pinCode": "123456789"`))
	s := newScanner(t, DefaultConfig())

	pin, ok := s.Scan(context.Background(), writeFile(t, data))
	require.True(t, ok)
	assert.Equal(t, "12345678", pin.Value())
}

func TestScan_ShortPayloadKeepsSearching(t *testing.T) {
	data := zerosWith(2048, 0, nil)
	copy(data[100:], record("12\x00\x00\x00\x00\x00\x00"))
	copy(data[500:], record("1234\x00\x00\x00\x00"))

	s := newScanner(t, DefaultConfig())
	res := s.ScanFile(context.Background(), writeFile(t, data))
	require.True(t, res.Found())
	assert.Equal(t, "1234", res.Match.Candidate.Value())
	assert.Equal(t, int64(500), res.Offset)
}

func TestScan_BinaryWinsOverKeyword(t *testing.T) {
	data := zerosWith(2048, 10, []byte(`"pinCode":"1111"`))
	copy(data[900:], record("22222222"))

	s := newScanner(t, DefaultConfig())
	res := s.ScanFile(context.Background(), writeFile(t, data))
	require.True(t, res.Found())
	assert.Equal(t, "22222222", res.Match.Candidate.Value())
	assert.Equal(t, extraction.SignatureStrategyName, res.Match.Strategy)
}

func TestScan_Idempotent(t *testing.T) {
	data := zerosWith(100000, 70000, record("9876\x00\x00\x00\x00"))
	path := writeFile(t, data)
	s := newScanner(t, DefaultConfig())

	first := s.ScanFile(context.Background(), path)
	second := s.ScanFile(context.Background(), path)
	require.True(t, first.Found())
	assert.Equal(t, first.Match, second.Match)
	assert.Equal(t, first.Offset, second.Offset)
	assert.Equal(t, first.Windows, second.Windows)
}

func TestScan_OneByteReads(t *testing.T) {
	data := zerosWith(5000, 4000, []byte(`"pinCode" : "007007"`))
	s := newScanner(t, Config{ChunkSize: 256, Overlap: 64})

	res := s.ScanReader(context.Background(), iotest.OneByteReader(bytes.NewReader(data)))
	require.True(t, res.Found())
	assert.Equal(t, "007007", res.Match.Candidate.Value())
	assert.Equal(t, int64(4000), res.Offset)
}

func TestScan_OpenFailure(t *testing.T) {
	boom := errors.New("permission denied")
	s := newScanner(t, DefaultConfig(), WithOpener(OpenerFunc(func(string) (io.ReadCloser, error) {
		return nil, boom
	})))

	res := s.ScanFile(context.Background(), "/mnt/system/save")
	assert.ErrorIs(t, res.Err, ErrOpen)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, "open_error", res.Outcome())

	_, ok := s.Scan(context.Background(), "/mnt/system/save")
	assert.False(t, ok)
}

func TestScan_MissingFile(t *testing.T) {
	s := newScanner(t, DefaultConfig())

	res := s.ScanFile(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, res.Err, ErrOpen)
	assert.ErrorIs(t, res.Err, os.ErrNotExist)
}

func TestScan_ReadFailureDiscardsPartialChunk(t *testing.T) {
	boom := errors.New("device error")
	// The PIN arrives in the same read call that fails.
	r := io.MultiReader(
		bytes.NewReader([]byte(`"pinCode":"5555"`)),
		iotest.ErrReader(boom),
	)
	s := newScanner(t, DefaultConfig())

	res := s.ScanReader(context.Background(), r)
	assert.False(t, res.Found())
	assert.ErrorIs(t, res.Err, ErrRead)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, "read_error", res.Outcome())
	assert.Zero(t, res.Windows)
}

func TestScan_ReadFailureAfterFullWindow(t *testing.T) {
	boom := errors.New("device error")
	r := io.MultiReader(
		bytes.NewReader(make([]byte, 64)),
		iotest.ErrReader(boom),
	)
	s := newScanner(t, smallConfig())

	res := s.ScanReader(context.Background(), r)
	assert.ErrorIs(t, res.Err, ErrRead)
	assert.Equal(t, 1, res.Windows)
	assert.Equal(t, int64(64), res.BytesRead)
}

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

func TestScan_ClosesFileOnEveryPath(t *testing.T) {
	tests := []struct {
		name   string
		reader func() io.Reader
	}{
		{"found", func() io.Reader { return bytes.NewReader([]byte(`"pinCode":"1234"`)) }},
		{"not found", func() io.Reader { return bytes.NewReader(make([]byte, 100)) }},
		{"read error", func() io.Reader { return iotest.ErrReader(errors.New("eio")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := &trackingCloser{Reader: tt.reader()}
			s := newScanner(t, DefaultConfig(), WithOpener(OpenerFunc(func(string) (io.ReadCloser, error) {
				return tc, nil
			})))
			s.ScanFile(context.Background(), "save")
			assert.True(t, tc.closed)
		})
	}
}

func TestScan_ConcurrentUse(t *testing.T) {
	path := writeFile(t, zerosWith(50000, 33000, record("31415926")))
	s := newScanner(t, DefaultConfig())

	var wg sync.WaitGroup
	results := make([]extraction.Candidate, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Scan(context.Background(), path)
		}(i)
	}
	wg.Wait()

	for _, pin := range results {
		assert.Equal(t, "31415926", pin.Value())
	}
}

func TestScan_CatalogStrategy(t *testing.T) {
	ks, err := extraction.NewKeywordStrategy("parental", `"parentalPin"`)
	require.NoError(t, err)
	ex := extraction.Default()
	ex.Append(ks)

	s, err := New(DefaultConfig(), ex)
	require.NoError(t, err)

	data := zerosWith(4096, 3000, []byte(`"parentalPin":"8080"`))
	res := s.ScanReader(context.Background(), bytes.NewReader(data))
	require.True(t, res.Found())
	assert.Equal(t, "parental", res.Match.Strategy)
}

func TestResult_Outcome(t *testing.T) {
	tests := []struct {
		res  Result
		want string
	}{
		{Result{Match: extraction.Match{Candidate: "1234"}}, "found"},
		{Result{Err: ErrNotFound}, "not_found"},
		{Result{Err: errors.Join(ErrOpen, os.ErrNotExist)}, "open_error"},
		{Result{Err: ErrRead}, "read_error"},
		{Result{Err: ErrAlloc}, "alloc_error"},
		{Result{}, "not_found"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.res.Outcome())
	}
}
