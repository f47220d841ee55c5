package app

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"engagekit/pkg/logger"
)

// startHTTP starts the diagnostics listener when enabled and returns a
// channel carrying any fatal server error. Disabled yields a nil channel
// that never fires.
func (a *App) startHTTP() <-chan error {
	if !a.cfg.Metrics.Enabled || a.cfg.Metrics.Addr == "" {
		return nil
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthzHandler)
	r.HandleFunc("/readyz", a.readyzHandler)
	r.HandleFunc("/statusz", a.statuszHandler)
	r.Handle("/metrics", promhttp.Handler())

	a.srv = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("diagnostics_listening", "addr", a.cfg.Metrics.Addr)
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// healthzHandler handles the /healthz endpoint.
func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{\"status\":\"ok\"}"))
}

// readyzHandler handles the /readyz endpoint.
func (a *App) readyzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if a.st == nil || !a.st.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("{\"status\":\"not ready\"}"))
		return
	}
	w.WriteHeader(http.StatusOK)
	ver := a.opts.Version
	if ver == "" {
		ver = "dev"
	}
	_, _ = w.Write([]byte("{\"status\":\"ok\",\"version\":\"" + ver + "\"}"))
}

// statuszHandler reports live queue depths for operators.
func (a *App) statuszHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"inbound_depth":   a.inbound.Len(),
		"inbound_dropped": a.inbound.Dropped(),
		"dispatch_depth":  a.dispatch.Len(),
		"paused":          a.pause.Paused(),
	})
}
