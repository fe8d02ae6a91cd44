package main

import (
	"bytes"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"platehub/internal/catalog"
	"platehub/pkg/utils"
)

// mirror-server publishes a catalog CSV for catalog.HTTPSource.
func main() {
	addr := flag.String("addr", ":9000", "listen address")
	path := flag.String("catalog", "data/plates.csv", "catalog CSV to serve")
	flag.Parse()

	log := utils.NewLogger(utils.LogConfig{Level: "info"}, os.Stderr).With("component", "mirror")

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(*path, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("mirror listening", "addr", *addr, "catalog", *path)
	if err := srv.ListenAndServe(); err != nil {
		log.Error("mirror stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(path string, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /plates.csv", func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(path)
		if err != nil {
			log.Error("read catalog", "error", err)
			http.Error(w, "cannot read catalog", http.StatusInternalServerError)
			return
		}
		// refuse to publish a file clients could not load
		if _, err := catalog.Load(bytes.NewReader(b)); err != nil {
			log.Error("catalog invalid", "error", err)
			http.Error(w, "catalog invalid: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	})
	return mux
}
