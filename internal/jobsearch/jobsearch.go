// Package jobsearch ingests job leads from the LinkedIn data API published on RapidAPI.
package jobsearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/leads"
)

const (
	DefaultHost = "linkedin-data-api.p.rapidapi.com"
	userAgent   = "spigell/jobai"
)

type Client struct {
	apiKey     string
	host       string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// Params narrows a search. Keywords are required.
type Params struct {
	Keywords string `mapstructure:"keywords"`
	Location string `mapstructure:"location"`
}

// New returns a client. Without an api key the client serves demo leads.
func New(logger *zap.Logger, apiKey, host string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}

	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		host:   host,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		UserAgent: userAgent,
		APIURL:    "https://" + host,
	}
}

// Demo reports whether searches return built-in demo leads.
func (c *Client) Demo() bool {
	return c.apiKey == ""
}

func (c *Client) Search(ctx context.Context, params Params) (*leads.Leads, error) {
	params.Keywords = strings.TrimSpace(params.Keywords)
	params.Location = strings.TrimSpace(params.Location)
	if params.Keywords == "" {
		return nil, fmt.Errorf("keywords are required: %w", apperr.ErrValidation)
	}

	if c.Demo() {
		c.logger.Warn("no search api key configured, using demo leads")
		return demoLeads(params), nil
	}

	return c.search(ctx, params)
}
