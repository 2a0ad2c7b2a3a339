package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/openism/pulsewire/pkg/slicer"
)

type ImageContainer struct {
	name string
	data []byte
}

// Producer renders one image on demand.
type Producer interface {
	Name() string
	GetImage() *ImageContainer
	AddPlotOption(opt PlotOptions)
}

// StatsSource exposes decode statistics for one protocol.
type StatsSource interface {
	Name() string
	Snapshot() slicer.Stats
}

// Server exposes decode statistics as JSON and registered plots as PNGs over
// HTTP. Images are rendered when requested, never in the background.
type Server struct {
	mu              sync.RWMutex
	producers       map[string]Producer
	stats           map[string]StatsSource
	port            int
	srv             *http.Server
	refreshInterval time.Duration
}

func NewServer(port int, refreshInterval time.Duration) *Server {
	return &Server{
		producers:       make(map[string]Producer),
		stats:           make(map[string]StatsSource),
		port:            port,
		srv:             &http.Server{Addr: fmt.Sprintf(":%d", port)},
		refreshInterval: refreshInterval,
	}
}

func (s *Server) Register(p Producer) {
	s.mu.Lock()
	s.producers[p.Name()] = p
	s.mu.Unlock()
}

func (s *Server) RegisterStats(src StatsSource) {
	s.mu.Lock()
	s.stats[src.Name()] = src
	s.mu.Unlock()
}

func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	handler := httprouter.New()

	handler.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s.mu.RLock()
		keys := make([]string, 0, len(s.producers))
		for key := range s.producers {
			keys = append(keys, key)
		}
		s.mu.RUnlock()
		sort.Strings(keys)

		w.Header().Add("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Pulsewire</title></head>`))
		w.Write([]byte(fmt.Sprintf(`
		<script type="text/javascript">
			var toggleRefresh = true;
			function toggleOn() {
				toggleRefresh = !toggleRefresh;
			}
			window.onload = function() {
				for (var i = 0; i < %d; i++) {
					var img = document.getElementById('graph-' + i);
					setInterval(function(image) {
						if (toggleRefresh) {
							image.src = image.src.split("?")[0] + "?" + new Date().getTime();
						}
					}, %d, img);
				}
			}
		</script>`, len(keys), s.refreshInterval.Milliseconds())))
		w.Write([]byte(`<body style='background-color: black'>`))
		w.Write([]byte(`<button onclick="toggleOn()">Refresh?</button>`))
		w.Write([]byte(`<div style="display: flex; flex-direction: row; flex-wrap: wrap">`))
		for idx, key := range keys {
			w.Write([]byte(fmt.Sprintf(`<div><img id="graph-%d" src="/img/%s?%d" /></div>`,
				idx, key, time.Now().UnixMicro())))
		}
		w.Write([]byte(`</div>`))
		w.Write([]byte(`</body></html>`))
	})

	handler.GET("/stats", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s.mu.RLock()
		snap := make(map[string]slicer.Stats, len(s.stats))
		for name, src := range s.stats {
			snap[name] = src.Snapshot()
		}
		s.mu.RUnlock()

		w.Header().Add("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	})

	handler.GET("/img/:img", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		s.mu.RLock()
		p, ok := s.producers[params.ByName("img")]
		s.mu.RUnlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		img := p.GetImage()
		if img == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Add("Content-Type", "image/png")
		w.Write(img.data)
	})

	s.srv.Handler = handler

	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
