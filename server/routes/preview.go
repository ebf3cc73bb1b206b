// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"codeberg.org/agora/agora/core/preview"
	"codeberg.org/agora/agora/core/rendercache"
)

// API serves the markup endpoints.
type API struct {
	Service *preview.Service

	// BatchLimit is the largest number of items accepted by Batch.
	BatchLimit int
}

type snippetResponse struct {
	Snippet string   `json:"snippet"`
	Tokens  []string `json:"tokens"`
}

type batchResponse struct {
	Items []preview.Rendered `json:"items"`
}

// Preview renders the request markup as an HTML fragment.
//
// The body is either the raw markup or a JSON object with a "markup" field.
func (api *API) Preview(w http.ResponseWriter, r *http.Request) error {
	source, err := readMarkup(r)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	_, err = io.WriteString(w, api.Service.HTML(r.Context(), source))

	return err
}

// PlainText returns the request markup as plain text.
func (api *API) PlainText(w http.ResponseWriter, r *http.Request) error {
	source, err := readMarkup(r)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	_, err = io.WriteString(w, api.Service.PlainText(r.Context(), source))

	return err
}

// Snippet returns a one-line excerpt and the search tokens of the request
// markup. The optional "limit" query parameter sets the excerpt length in
// runes.
func (api *API) Snippet(w http.ResponseWriter, r *http.Request) error {
	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer, got %q", raw)
		}

		limit = n
	}

	source, err := readMarkup(r)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, snippetResponse{
		Snippet: api.Service.Snippet(r.Context(), source, limit),
		Tokens:  api.Service.Tokens(r.Context(), source),
	})

	return nil
}

// Batch renders a JSON array of markup strings in both forms.
func (api *API) Batch(w http.ResponseWriter, r *http.Request) error {
	if !isJSON(r) {
		return NewHTTPError(http.StatusUnsupportedMediaType, "batch requests must be application/json")
	}

	body, err := readBody(r)
	if err != nil {
		return err
	}

	if !gjson.ValidBytes(body) {
		return NewHTTPError(http.StatusBadRequest, "request body is not valid JSON")
	}

	items := gjson.GetBytes(body, "items")
	if !items.IsArray() {
		return NewHTTPError(http.StatusBadRequest, `field "items" must be an array`)
	}

	values := items.Array()
	if len(values) > api.BatchLimit {
		return NewHTTPError(http.StatusBadRequest, "batch of %d items exceeds the limit of %d", len(values), api.BatchLimit)
	}

	sources := make([]string, len(values))

	for i, value := range values {
		if value.Type != gjson.String {
			return NewHTTPError(http.StatusBadRequest, "items[%d] must be a string", i)
		}

		sources[i] = value.String()
	}

	results, err := api.Service.RenderBatch(r.Context(), sources)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, batchResponse{Items: results})

	return nil
}

// Stats reports render cache counters.
func (api *API) Stats(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, struct {
		Cache rendercache.Stats `json:"cache"`
	}{api.Service.Stats()})

	return nil
}

// Health reports that the server is up.
func Health(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	_, err := io.WriteString(w, "ok")

	return err
}

// readMarkup extracts the markup source from the request body.
func readMarkup(r *http.Request) (string, error) {
	body, err := readBody(r)
	if err != nil {
		return "", err
	}

	if !isJSON(r) {
		return string(body), nil
	}

	if !gjson.ValidBytes(body) {
		return "", NewHTTPError(http.StatusBadRequest, "request body is not valid JSON")
	}

	// A missing or null field is empty input.
	field := gjson.GetBytes(body, "markup")

	switch {
	case !field.Exists(), field.Type == gjson.Null:
		return "", nil
	case field.Type != gjson.String:
		return "", NewHTTPError(http.StatusBadRequest, `field "markup" must be a string`)
	}

	return field.String(), nil
}

// readBody reads the whole request body, mapping an exceeded size limit to
// 413 Request Entity Too Large.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err == nil {
		return body, nil
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return nil, NewHTTPError(http.StatusRequestEntityTooLarge, "request body exceeds %d bytes", maxErr.Limit)
	}

	return nil, fmt.Errorf("reading request body: %w", err)
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))

	return err == nil && mediaType == "application/json"
}
