package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/csvmap/internal/core"
)

// maxMultipartMemory is how much of a multipart upload is held in memory
// before the rest spills to a temporary file.
const maxMultipartMemory = 32 << 20

// upload is the CSV input of a parse, validate or import request.
type upload struct {
	body    io.Reader
	opts    core.ParseOptions
	cleanup func()
}

// readUpload accepts either a multipart form with a "file" part or a raw
// request body. Reader options come from the query string. A multipart
// "mapping" field holding a JSON object of field -> column is merged into
// any mapping given with "map" parameters.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	opts, err := parseOptions(r.URL.Query())
	if err != nil {
		return nil, err
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		opts.Size = r.ContentLength
		return &upload{body: r.Body, opts: opts, cleanup: func() {}}, nil
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		if isMaxBytes(err) {
			return nil, err
		}
		return nil, badRequest("invalid multipart form: %v", err)
	}
	cleanup := func() { r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile("file")
	if err != nil {
		cleanup()
		return nil, badRequest("no file provided in form field \"file\"")
	}
	opts.Size = header.Size

	if raw := r.FormValue("mapping"); raw != "" {
		var m map[string]int
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			file.Close()
			cleanup()
			return nil, badRequest("mapping must be a JSON object of field to column: %v", err)
		}
		if opts.Mapping == nil {
			opts.Mapping = make(core.Mapping, len(m))
		}
		for field, col := range m {
			opts.Mapping[field] = col
		}
	}

	return &upload{
		body: file,
		opts: opts,
		cleanup: func() {
			file.Close()
			cleanup()
		},
	}, nil
}

func isMaxBytes(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// parseOptions reads reader options from query parameters:
//
//	header=none|skip|use
//	policy=abort|skip
//	compare=ordinal|ignore-case|normalized
//	delimiter=%3B quote='   (a single character, or "tab")
//	limit=100
//	map=Name=0&map=Age=1   (repeatable, or comma separated)
func parseOptions(q url.Values) (core.ParseOptions, error) {
	var opts core.ParseOptions

	if v := q.Get("header"); v != "" {
		mode, err := core.ParseHeaderMode(v)
		if err != nil {
			return opts, badRequest("header: %v", err)
		}
		opts.HeaderMode = &mode
	}
	if v := q.Get("policy"); v != "" {
		policy, err := core.ParseErrorPolicy(v)
		if err != nil {
			return opts, badRequest("policy: %v", err)
		}
		opts.ErrorPolicy = &policy
	}
	if v := q.Get("compare"); v != "" {
		cmp, err := core.ParseHeaderComparison(v)
		if err != nil {
			return opts, badRequest("compare: %v", err)
		}
		opts.HeaderComparison = &cmp
	}
	if v := q.Get("delimiter"); v != "" {
		r, err := core.ParseRune(v)
		if err != nil {
			return opts, badRequest("delimiter: %v", err)
		}
		opts.Delimiter = r
	}
	if v := q.Get("quote"); v != "" {
		r, err := core.ParseRune(v)
		if err != nil {
			return opts, badRequest("quote: %v", err)
		}
		opts.Quote = r
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, badRequest("limit must be a non-negative integer")
		}
		opts.Limit = n
	}
	if pairs := q["map"]; len(pairs) > 0 {
		m, err := core.ParseMapping(pairs...)
		if err != nil {
			return opts, err
		}
		opts.Mapping = m
	}

	return opts, nil
}
