package jobsearch

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/utils"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	maxErrorBody    = 300
)

// resultKeys lists the fields the API has been seen to return items under.
var resultKeys = []string{"data", "items", "jobs"}

type Item interface{}

// getItems makes GET request and returns the items of the response.
func (c *Client) getItems(req *http.Request) ([]Item, error) {
	req = c.setHeaders(req)

	resp, err := c.request(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %v: %w", err, apperr.ErrTransport)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s: %s: %w", resp.Status, utils.TruncateForLog(string(body), maxErrorBody), apperr.ErrTransport)
	}

	c.logger.Debug("got response from search api", zap.String("preview", utils.TruncateForLog(string(body), 500)))

	var response map[string]any
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	for _, key := range resultKeys {
		raw, ok := response[key].([]any)
		if !ok || len(raw) == 0 {
			continue
		}
		items := make([]Item, 0, len(raw))
		for _, item := range raw {
			items = append(items, item)
		}
		return items, nil
	}

	return nil, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
