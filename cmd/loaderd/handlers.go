package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/yeungadrian/PortfolioBuilderAPI/internal/dataset"
	"github.com/yeungadrian/PortfolioBuilderAPI/internal/platform/observability"
	"github.com/yeungadrian/PortfolioBuilderAPI/internal/storage"
	"github.com/yeungadrian/PortfolioBuilderAPI/internal/timeseries"
)

// newMux builds the JSON API surface. Every endpoint is a thin adapter over a
// loader operation; tables are rendered in records orientation.
func newMux(loader *dataset.Loader, logger *observability.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /api/v1/instruments", func(w http.ResponseWriter, r *http.Request) {
		t, err := loader.Instruments(r.Context())
		respond(w, r, logger, t, err)
	})

	mux.HandleFunc("GET /api/v1/benchmark", func(w http.ResponseWriter, r *http.Request) {
		window, err := windowParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := loader.Benchmark(r.Context(), window)
		respond(w, r, logger, t, err)
	})

	mux.HandleFunc("GET /api/v1/prices", func(w http.ResponseWriter, r *http.Request) {
		window, err := windowParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := loader.Prices(r.Context(), listParam(r, "codes"), window)
		respond(w, r, logger, t, err)
	})

	mux.HandleFunc("GET /api/v1/returns", func(w http.ResponseWriter, r *http.Request) {
		window, err := windowParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		freq, err := frequencyParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := loader.Returns(r.Context(), listParam(r, "codes"), window, freq)
		respond(w, r, logger, t, err)
	})

	mux.HandleFunc("GET /api/v1/factors", func(w http.ResponseWriter, r *http.Request) {
		window, err := windowParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		freq, err := frequencyParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := loader.Factors(r.Context(), listParam(r, "factors"), window, freq)
		respond(w, r, logger, t, err)
	})

	return mux
}

// windowParam reads the start/end query parameters in YYYY-MM-DD form.
func windowParam(r *http.Request) (timeseries.Window, error) {
	return timeseries.NewWindow(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
}

// frequencyParam reads the frequency query parameter, defaulting to daily.
func frequencyParam(r *http.Request) (timeseries.Frequency, error) {
	s := r.URL.Query().Get("frequency")
	if s == "" {
		return timeseries.Daily, nil
	}
	return timeseries.ParseFrequency(s)
}

// listParam reads a comma-separated query parameter, dropping empty entries.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, v := range strings.Split(r.URL.Query().Get(name), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func respond(w http.ResponseWriter, r *http.Request, logger *observability.Logger, t *timeseries.Table, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, timeseries.ErrColumnNotFound) {
			status = http.StatusNotFound
		}
		logger.LogError(r.Context(), "request failed", err, "path", r.URL.Path, "status", status)
		writeError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(t.Records()); err != nil {
		logger.LogError(r.Context(), "failed to encode response", err, "path", r.URL.Path)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
