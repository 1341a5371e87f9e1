package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/logging"
	"github.com/JonMunkholm/csvclean/internal/sink"
)

// maxMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const maxMemory = 32 << 20

var errNoFile = errors.New("no file provided")

// Response headers set by handleClean.
const (
	HeaderRunID       = "X-Clean-Run-ID"
	HeaderSinkFailed  = "X-Clean-Sink-Failed"
	HeaderSinkWritten = "X-Clean-Sink-Written"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"limiter": s.limiter.Status(),
	})
}

// handleClean runs the pipeline on the posted CSV and streams the result
// back as text/csv. With forward=true the cleaned rows also go to every
// configured sink before the response is written.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	if err := s.limiter.Acquire(r.Context()); err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer s.limiter.Release()

	opts, err := s.options(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	t, err := s.readTable(w, r)
	if err != nil {
		s.metrics.ObserveRun(nil, err)
		respondError(w, r, err, 0)
		return
	}

	report, err := core.Clean(r.Context(), t, opts)
	s.metrics.ObserveRun(report, err)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	if r.URL.Query().Get("forward") == "true" {
		written, failed, err := s.forward(r, t)
		if err != nil && s.cfg.Sink.FailOnError {
			respondError(w, r, err, http.StatusBadGateway)
			return
		}
		w.Header().Set(HeaderSinkWritten, strconv.Itoa(written))
		w.Header().Set(HeaderSinkFailed, strconv.Itoa(failed))
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set(HeaderRunID, report.RunID)
	if err := t.Write(w); err != nil {
		logging.FromContext(r.Context()).Error("write response failed", "run_id", report.RunID, "error", err)
	}
}

// forward writes t to the configured sinks and returns row totals.
func (s *Server) forward(r *http.Request, t *core.Table) (written, failed int, err error) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	sinks, err := sink.Open(ctx, s.cfg)
	if err != nil {
		logger.Error("open sinks failed", "error", err)
		return 0, t.NumRows(), err
	}
	defer sink.CloseAll(sinks)

	results, err := sink.WriteAll(ctx, sinks, t)
	s.metrics.ObserveSinks(results)
	for _, res := range results {
		written += res.Written
		failed += res.Failed()
	}
	if err != nil {
		logger.Error("sink errors", "error", err, "written", written, "failed", failed)
	}
	return written, failed, err
}

// handleProfile reports the shape of the posted CSV without cleaning it.
// Clients sending Accept: text/html get the HTML report.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.limiter.Acquire(r.Context()); err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer s.limiter.Release()

	t, err := s.readTable(w, r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	p := t.Profile()
	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ProfileReport(p).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render profile failed", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// options reads threshold and method from the query string, falling back
// to the configured defaults.
func (s *Server) options(r *http.Request) (core.Options, error) {
	q := r.URL.Query()
	opts := core.Options{Threshold: s.cfg.Clean.Threshold}

	if v := q.Get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, &core.ArgumentError{Name: "threshold", Value: v, Msg: "must be a number"}
		}
		opts.Threshold = f
	}

	method := s.cfg.Clean.Method
	if v := q.Get("method"); v != "" {
		method = v
	}
	m, err := core.ParseFillMethod(method)
	if err != nil {
		return opts, err
	}
	opts.Method = m

	return opts, opts.Validate()
}

// readTable parses the request body as CSV. Multipart bodies must carry
// the file in the "file" field; anything else is read as raw CSV.
func (s *Server) readTable(w http.ResponseWriter, r *http.Request) (*core.Table, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Input.MaxFileSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return readCSV(r.Body)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, tooLarge(err)
		}
		return nil, fmt.Errorf("%w: %v", errNoFile, err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()
	return readCSV(file)
}

func readCSV(r io.Reader) (*core.Table, error) {
	t, err := core.Read(r)
	if err != nil {
		return nil, tooLarge(err)
	}
	return t, nil
}

// tooLarge rewrites body-limit errors so they map to FILE004.
func tooLarge(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("file too large: %w", err)
	}
	return err
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
