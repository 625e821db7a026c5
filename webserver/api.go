package webserver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"time"

	"TCAGo/config"
	. "TCAGo/global"
	"TCAGo/telecom"
)

func StartWS(cfg *config.Config, sessions *telecom.Registry) {
	r := http.NewServeMux()
	ws := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.HTTPPort)
	srv := &http.Server{Addr: ws, Handler: r, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second, IdleTimeout: 15 * time.Second}

	wireAPIPathHandlers(r, cfg, sessions)

	WtGrp.Add(1)
	go func() {
		defer WtGrp.Done()
		log.Fatal(srv.ListenAndServe())
	}()

	fmt.Print("Loading API Webserver...")
	fmt.Println("Success: HTTP", ws)

	fmt.Printf("Prometheus metrics available at http://%s/metrics\n", ws)

	fmt.Println("TCAGo is ready to serve!")
}

func wireAPIPathHandlers(r *http.ServeMux, cfg *config.Config, sessions *telecom.Registry) {
	r.HandleFunc("GET /api/v1/session", serveSession(sessions))
	r.HandleFunc("GET /api/v1/stats", serveStats(sessions))
	r.HandleFunc("GET /api/v1/config", serveConfig(cfg))

	r.Handle("GET /metrics", Prometrics.Handler())
	r.HandleFunc("GET /", serveHome)
}

func serveConfig(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		response, _ := json.Marshal(cfg)
		_, err := w.Write(response)
		if err != nil {
			LogError(LTWebserver, err.Error())
		}
	}
}

func serveHome(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write(fmt.Appendf(nil, "<h1>%s API Webserver</h1>\n", AdapterNameVersion))
}

func serveSession(sessions *telecom.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		response, _ := json.Marshal(sessions.Summaries())
		_, err := w.Write(response)
		if err != nil {
			LogError(LTWebserver, err.Error())
		}
	}
}

func serveStats(sessions *telecom.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		BToMB := func(b uint64) uint64 {
			return b / 1000 / 1000
		}

		data := struct {
			CPUCount        int
			GoRoutinesCount int
			Alloc           uint64
			System          uint64
			GCCycles        uint32
			SessionsCount   int
		}{
			CPUCount:        runtime.NumCPU(),
			GoRoutinesCount: runtime.NumGoroutine(),
			Alloc:           BToMB(m.Alloc),
			System:          BToMB(m.Sys),
			GCCycles:        m.NumGC,
			SessionsCount:   sessions.Count(),
		}

		response, _ := json.Marshal(data)
		_, err := w.Write(response)
		if err != nil {
			LogError(LTWebserver, err.Error())
		}
	}
}
