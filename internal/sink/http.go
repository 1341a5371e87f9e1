package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/logging"
)

func init() {
	Register(Definition{
		Name:        "http",
		Description: "POST each row as a JSON object",
		Enabled:     func(cfg *config.Config) bool { return cfg.HTTP.Enabled },
		New: func(_ context.Context, cfg *config.Config) (Sink, error) {
			return NewHTTP(cfg.HTTP)
		},
	})
}

// maxBodyExcerpt bounds how much of an error response is kept.
const maxBodyExcerpt = 4096

// Field types accepted in a field mapping.
const (
	TypeAny     = ""
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBool    = "bool"
)

// Field maps one source column to one JSON property.
type Field struct {
	Name   string // JSON property
	Column string // source column
	Type   string // one of the Type* constants
}

// ParseFields turns a config mapping of property -> "column[:type]" into
// fields sorted by property name.
func ParseFields(m map[string]string) ([]Field, error) {
	fields := make([]Field, 0, len(m))
	for name, spec := range m {
		col, typ, _ := strings.Cut(spec, ":")
		switch typ {
		case TypeAny, TypeString, TypeNumber, TypeInteger, TypeBool:
		default:
			return nil, fmt.Errorf("field %q: unknown type %q", name, typ)
		}
		if col == "" {
			return nil, fmt.Errorf("field %q: empty column", name)
		}
		fields = append(fields, Field{Name: name, Column: col, Type: typ})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}

// HTTPSink posts each row to a REST endpoint and expects 201 Created.
type HTTPSink struct {
	client  *http.Client
	url     string
	fields  []Field
	headers map[string]string
}

// NewHTTP builds an HTTP sink from configuration.
func NewHTTP(cfg config.HTTPConfig) (*HTTPSink, error) {
	fields, err := ParseFields(cfg.Fields)
	if err != nil {
		return nil, &Error{Sink: "http", Op: "configure", Err: err}
	}
	return &HTTPSink{
		client:  &http.Client{Timeout: cfg.Timeout},
		url:     cfg.URL,
		fields:  fields,
		headers: cfg.Headers,
	}, nil
}

func (s *HTTPSink) Name() string { return "http" }

func (s *HTTPSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// boundField is a Field resolved against a table.
type boundField struct {
	Field
	col *core.Column
}

func (s *HTTPSink) bind(t *core.Table) ([]boundField, error) {
	if len(s.fields) == 0 {
		out := make([]boundField, t.NumCols())
		for i, c := range t.Columns() {
			out[i] = boundField{Field: Field{Name: c.Name, Column: c.Name}, col: c}
		}
		return out, nil
	}

	out := make([]boundField, len(s.fields))
	for i, f := range s.fields {
		c, ok := t.Column(f.Column)
		if !ok {
			return nil, fmt.Errorf("field %q: column %q not in table", f.Name, f.Column)
		}
		out[i] = boundField{Field: f, col: c}
	}
	return out, nil
}

// payload builds the JSON object for row i. Missing cells become null.
func payload(fields []boundField, i int) (map[string]any, error) {
	obj := make(map[string]any, len(fields))
	for _, f := range fields {
		v := f.col.Value(i)
		if v == nil {
			obj[f.Name] = nil
			continue
		}

		var err error
		switch f.Type {
		case TypeString:
			v, err = cast.ToStringE(v)
		case TypeNumber:
			v, err = cast.ToFloat64E(v)
		case TypeInteger:
			v, err = cast.ToInt64E(v)
		case TypeBool:
			v, err = cast.ToBoolE(v)
		}
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		obj[f.Name] = v
	}
	return obj, nil
}

// Write posts every row. Rows that fail to encode, fail in transport or
// get a status other than 201 are recorded and the loop moves on; only
// context cancellation stops it early.
func (s *HTTPSink) Write(ctx context.Context, t *core.Table) (*Result, error) {
	start := time.Now()
	res := &Result{Sink: s.Name()}
	logger := logging.WithFields(ctx, "sink", s.Name(), "url", s.url)

	fields, err := s.bind(t)
	if err != nil {
		return res, &Error{Sink: s.Name(), Op: "map fields", Err: err}
	}

	for i := 0; i < t.NumRows(); i++ {
		if err := ctx.Err(); err != nil {
			return res, &Error{Sink: s.Name(), Op: "post", Err: fmt.Errorf("cancelled at row %d: %w", i+1, err)}
		}
		res.Attempted++

		if f := s.post(ctx, fields, i); f != nil {
			res.Failures = append(res.Failures, *f)
			logger.Warn("row post failed",
				"row", f.Row,
				"status", f.Status,
				"body", f.Body,
				"error", f.Err,
			)
			continue
		}
		res.Written++
	}

	res.Duration = time.Since(start)
	logger.Info("http sink completed",
		"attempted", res.Attempted,
		"written", res.Written,
		"failed", res.Failed(),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (s *HTTPSink) post(ctx context.Context, fields []boundField, i int) *RowFailure {
	row := i + 1

	obj, err := payload(fields, i)
	if err != nil {
		return &RowFailure{Row: row, Err: err}
	}
	body, err := json.Marshal(obj)
	if err != nil {
		return &RowFailure{Row: row, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return &RowFailure{Row: row, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &RowFailure{Row: row, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt))
	return &RowFailure{
		Row:    row,
		Status: resp.StatusCode,
		Body:   string(excerpt),
		Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
	}
}
