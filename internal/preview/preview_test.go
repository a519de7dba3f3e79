package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/blockvol/grid"
	"github.com/robert-malhotra/blockvol/internal/synth"
	"github.com/robert-malhotra/blockvol/volume"
)

// fixture writes the synthetic temperature field to a fresh directory and
// returns it with one interior probe point and its expected value.
func fixture(t *testing.T) (dir string, p grid.Point, want float64) {
	t.Helper()
	cfg := synth.Default()
	src, err := synth.New(cfg)
	require.NoError(t, err)
	ds, err := src.Load(context.Background(), "temperature")
	require.NoError(t, err)

	dir = t.TempDir()
	sink, err := volume.NewDirSink(dir)
	require.NoError(t, err)
	_, err = sink.WriteDataset("temperature", ds)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	p = ds.Block(0).Center()
	return dir, p, cfg.Fields["temperature"](p)
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHTTP(t *testing.T) {
	dir, p, want := fixture(t)
	ts := httptest.NewServer(New(dir, quiet()).Handler())
	defer ts.Close()

	status, body := get(t, ts.URL+"/manifest.json")
	require.Equal(t, http.StatusOK, status)
	var m volume.Manifest
	require.NoError(t, json.Unmarshal(body, &m))
	require.Len(t, m.Entries, 1)
	assert.Equal(t, "temperature", m.Entries[0].Prefix())

	status, _ = get(t, ts.URL+"/volumes/temperature.bin")
	assert.Equal(t, http.StatusOK, status)
	status, _ = get(t, ts.URL+"/volumes/manifest.json")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = get(t, fmt.Sprintf("%s/probe/temperature?x=%g&y=%g&z=%g", ts.URL, p[0], p[1], p[2]))
	require.Equal(t, http.StatusOK, status, string(body))
	var res ProbeResult
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Values, 1)
	assert.InDelta(t, want, res.Values[0], 1e-5)
	assert.Equal(t, []int{0}, res.Blocks)

	status, _ = get(t, ts.URL+"/probe/temperature?x=a&y=0&z=0")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = get(t, ts.URL+"/probe/pressure?x=0&y=0&z=0")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProbeOutside(t *testing.T) {
	dir, _, _ := fixture(t)
	s := New(dir, quiet())
	res, err := s.Probe(Probe{Prefix: "temperature", Points: []grid.Point{{5, 5, 5}}})
	require.NoError(t, err)
	assert.Equal(t, []int{-1}, res.Blocks)

	l, err := s.volume("temperature")
	require.NoError(t, err)
	assert.Equal(t, l.idx.Sentinel(), res.Values[0])
}

func TestProbeNonFiniteValues(t *testing.T) {
	c := []float64{0, 1, 2}
	samples := make([]float64, 8)
	for i := range samples {
		samples[i] = math.Inf(1)
	}
	bld := grid.NewBuilder("flux")
	require.NoError(t, bld.AddFaceCentered(samples, [3]int{2, 2, 2}, c, c, c))
	ds, err := bld.Build()
	require.NoError(t, err)

	dir := t.TempDir()
	sink, err := volume.NewDirSink(dir)
	require.NoError(t, err)
	_, err = sink.WriteDataset("flux", ds)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	ts := httptest.NewServer(New(dir, quiet()).Handler())
	defer ts.Close()

	// the sentinel of an all-infinite field is itself infinite
	status, body := get(t, ts.URL+"/probe/flux?x=5&y=5&z=5")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"prefix":"flux","values":[null],"blocks":[-1]}`, string(body))

	status, body = get(t, ts.URL+"/probe/flux?x=0.5&y=0.5&z=0.5")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"prefix":"flux","values":[null],"blocks":[0]}`, string(body))
}

func TestConcurrentProbesLoadOnce(t *testing.T) {
	dir, p, want := fixture(t)
	s := New(dir, quiet())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Probe(Probe{Prefix: "temperature", Points: []grid.Point{p}})
			if assert.NoError(t, err) {
				assert.InDelta(t, want, res.Values[0], 1e-5)
			}
		}()
	}
	wg.Wait()

	first, err := s.volume("temperature")
	require.NoError(t, err)
	again, err := s.volume("temperature")
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestWebSocket(t *testing.T) {
	dir, p, want := fixture(t)
	s := New(dir, quiet())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Probe{Prefix: "temperature", Points: []grid.Point{p, {9, 9, 9}}}))
	var res ProbeResult
	require.NoError(t, conn.ReadJSON(&res))
	require.Len(t, res.Values, 2)
	assert.InDelta(t, want, res.Values[0], 1e-5)
	assert.Equal(t, -1, res.Blocks[1])

	require.NoError(t, conn.WriteJSON(Probe{Prefix: "pressure"}))
	res = ProbeResult{}
	require.NoError(t, conn.ReadJSON(&res))
	assert.Contains(t, res.Error, "not in manifest")

	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 10*time.Millisecond)
	s.Broadcast(Update{Type: "manifest", Manifest: []string{"temperature"}})
	var u Update
	require.NoError(t, conn.ReadJSON(&u))
	assert.Equal(t, "manifest", u.Type)
	assert.Equal(t, []string{"temperature"}, u.Manifest)
}
