// Package preview serves an output directory to a browser front end: the
// manifest, the raw volume files, and point probes answered through a block
// index. Probes also run over a websocket so a viewer can stream cursor
// positions without a request per point.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/singleflight"

	"github.com/robert-malhotra/blockvol/grid"
	"github.com/robert-malhotra/blockvol/volume"
)

// ErrNotFound is returned for prefixes missing from the manifest.
var ErrNotFound = errors.New("volume not in manifest")

// loaded is one indexed volume, keyed by its manifest id.
type loaded struct {
	id   uuid.UUID
	meta *volume.Metadata
	idx  *grid.Index
}

// Server serves one output directory.
type Server struct {
	dir string
	log *slog.Logger

	loadGroup singleflight.Group

	mu    sync.RWMutex
	cache map[string]*loaded

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	upgrader websocket.Upgrader
}

// New returns a server over dir. A nil logger uses slog.Default.
func New(dir string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		dir:     dir,
		log:     log,
		cache:   map[string]*loaded{},
		clients: map[*websocket.Conn]*sync.Mutex{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /manifest.json", s.handleManifest)
	mux.HandleFunc("GET /volumes/{name}", s.handleFile)
	mux.HandleFunc("GET /probe/{prefix}", s.handleProbe)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	m, err := volume.LoadManifest(s.dir)
	if err != nil {
		s.fail(w, err)
		return
	}
	m.Sort()
	s.writeJSON(w, m)
}

// handleFile serves the json and bin files the manifest lists, and nothing
// else from the directory.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	m, err := volume.LoadManifest(s.dir)
	if err != nil {
		s.fail(w, err)
		return
	}
	for _, e := range m.Entries {
		if name == e.JSON || name == e.Binary {
			http.ServeFile(w, r, filepath.Join(s.dir, name))
			return
		}
	}
	http.NotFound(w, r)
}

// Probe is a point query against one volume.
type Probe struct {
	Prefix string       `json:"prefix"`
	Points []grid.Point `json:"points"`
}

// ProbeResult answers a Probe. Block is -1 for points outside every block.
type ProbeResult struct {
	Prefix string    `json:"prefix"`
	Values []float64 `json:"values"`
	Blocks []int     `json:"blocks"`
	Error  string    `json:"error,omitempty"`
}

// MarshalJSON writes non-finite values as null, which JSON cannot carry.
func (r *ProbeResult) MarshalJSON() ([]byte, error) {
	type plain ProbeResult
	values := make([]*float64, len(r.Values))
	for i, v := range r.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			values[i] = &r.Values[i]
		}
	}
	return json.Marshal(&struct {
		*plain
		Values []*float64 `json:"values"`
	}{(*plain)(r), values})
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	var p grid.Point
	for axis, key := range []string{"x", "y", "z"} {
		v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("bad %s: %v", key, err), http.StatusBadRequest)
			return
		}
		p[axis] = v
	}
	res, err := s.Probe(Probe{Prefix: r.PathValue("prefix"), Points: []grid.Point{p}})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, res)
}

// Probe evaluates every point of q through a fresh cursor.
func (s *Server) Probe(q Probe) (*ProbeResult, error) {
	l, err := s.volume(q.Prefix)
	if err != nil {
		return nil, err
	}
	res := &ProbeResult{
		Prefix: q.Prefix,
		Values: make([]float64, len(q.Points)),
		Blocks: make([]int, len(q.Points)),
	}
	cur := l.idx.NewCursor()
	for i, p := range q.Points {
		res.Values[i] = cur.Interpolate(p)
		res.Blocks[i] = -1
		if id, ok := cur.Locate(p); ok {
			res.Blocks[i] = id
		}
	}
	return res, nil
}

// volume returns the indexed volume for prefix, loading it at most once per
// manifest id even under concurrent requests.
func (s *Server) volume(prefix string) (*loaded, error) {
	m, err := volume.LoadManifest(s.dir)
	if err != nil {
		return nil, err
	}
	e, ok := m.Find(prefix)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, prefix)
	}

	s.mu.RLock()
	l, ok := s.cache[prefix]
	s.mu.RUnlock()
	if ok && l.id == e.ID {
		return l, nil
	}

	v, err, _ := s.loadGroup.Do(prefix+"/"+e.ID.String(), func() (any, error) {
		start := time.Now()
		ds, meta, err := volume.Read(s.dir, prefix)
		if err != nil {
			return nil, err
		}
		idx, err := ds.Index()
		if err != nil {
			return nil, err
		}
		l := &loaded{id: meta.ID, meta: meta, idx: idx}
		s.mu.Lock()
		s.cache[prefix] = l
		s.mu.Unlock()
		s.log.Info("volume loaded", "prefix", prefix, "blocks", ds.Len(), "took", time.Since(start))
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*loaded), nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = connMu
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	for {
		var q Probe
		if err := conn.ReadJSON(&q); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read", "err", err)
			}
			return
		}
		res, err := s.Probe(q)
		if err != nil {
			res = &ProbeResult{Prefix: q.Prefix, Error: err.Error()}
		}
		connMu.Lock()
		err = conn.WriteJSON(res)
		connMu.Unlock()
		if err != nil {
			s.log.Warn("websocket write", "err", err)
			return
		}
	}
}

// Update is pushed to every websocket client when the manifest changes.
type Update struct {
	Type     string   `json:"type"`
	Manifest []string `json:"manifest"`
}

// Broadcast sends u to every connected client, dropping clients that fail.
func (s *Server) Broadcast(u Update) {
	s.clientsMu.RLock()
	var dead []*websocket.Conn
	for conn, mu := range s.clients {
		mu.Lock()
		err := conn.WriteJSON(u)
		mu.Unlock()
		if err != nil {
			dead = append(dead, conn)
		}
	}
	s.clientsMu.RUnlock()

	if len(dead) == 0 {
		return
	}
	s.clientsMu.Lock()
	for _, conn := range dead {
		delete(s.clients, conn)
		conn.Close()
	}
	s.clientsMu.Unlock()
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Watch polls the manifest every interval and broadcasts its prefixes when
// its modification time changes. It returns when ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		info, err := os.Stat(filepath.Join(s.dir, volume.ManifestName))
		if err != nil || !info.ModTime().After(last) {
			continue
		}
		last = info.ModTime()
		m, err := volume.LoadManifest(s.dir)
		if err != nil {
			s.log.Warn("manifest reload", "err", err)
			continue
		}
		m.Sort()
		u := Update{Type: "manifest"}
		for _, e := range m.Entries {
			u.Manifest = append(u.Manifest, e.Prefix())
		}
		s.log.Info("manifest changed", "volumes", len(u.Manifest), "clients", s.Clients())
		s.Broadcast(u)
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, os.ErrNotExist):
		status = http.StatusNotFound
	case errors.Is(err, volume.ErrChecksum), errors.Is(err, volume.ErrFormat):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	http.Error(w, strings.TrimSpace(err.Error()), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.fail(w, fmt.Errorf("encoding response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.log.Warn("response write", "err", err)
	}
}
