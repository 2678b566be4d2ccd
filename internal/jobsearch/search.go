package jobsearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/leads"
)

const (
	SearchPath = "/search-jobs"
	// Worldwide. The API needs a location id next to the free text location.
	worldwideLocationID = "92000000"
	datePosted          = "past24Hours"
	sortOrder           = "mostRecent"
)

type jobItem struct {
	ID          string `mapstructure:"id"`
	URN         string `mapstructure:"urn"`
	Title       string `mapstructure:"title"`
	Company     any    `mapstructure:"company"`
	Description string `mapstructure:"description"`
	Snippet     string `mapstructure:"snippet"`
	URL         string `mapstructure:"url"`
	Link        string `mapstructure:"link"`
	PostedDate  string `mapstructure:"postedDate"`
	Date        string `mapstructure:"date"`
}

func (c *Client) search(ctx context.Context, params Params) (*leads.Leads, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+SearchPath, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = buildParams(params).Encode()

	c.logger.Info("searching jobs", zap.String("keywords", params.Keywords), zap.String("location", params.Location))

	items, err := c.getItems(req)
	if err != nil {
		return nil, err
	}

	var jobs []*jobItem
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &jobs,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}

	result := &leads.Leads{Items: make([]*leads.Lead, 0, len(jobs))}
	for i, job := range jobs {
		result.Items = append(result.Items, leads.New(job.draft(i)))
	}

	c.logger.Info("jobs found",
		zap.Int("total", result.Len()),
		zap.Int("with_email", result.CountByStatus()[leads.StatusReady]),
	)

	return result, nil
}

func buildParams(params Params) url.Values {
	q := url.Values{}
	q.Set("keywords", params.Keywords)
	if params.Location != "" {
		q.Set("locationId", worldwideLocationID)
		q.Set("location", params.Location)
	}
	q.Set("datePosted", datePosted)
	q.Set("sort", sortOrder)

	return q
}

func (j *jobItem) draft(index int) leads.Draft {
	id := firstNonEmpty(j.ID, j.URN, "job-"+strconv.Itoa(index))

	link := firstNonEmpty(j.URL, j.Link)
	if link == "" && j.ID != "" {
		link = "https://www.linkedin.com/jobs/view/" + j.ID
	}

	return leads.Draft{
		ID:          id,
		Title:       firstNonEmpty(j.Title, "Job Title"),
		Company:     firstNonEmpty(companyName(j.Company), "Unknown Company"),
		Description: firstNonEmpty(j.Description, j.Snippet),
		URL:         link,
		Posted:      firstNonEmpty(j.PostedDate, j.Date, "Recently"),
	}
}

// companyName accepts both a plain name and an object with a name field.
func companyName(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case map[string]any:
		if name, ok := typed["name"].(string); ok {
			return name
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
