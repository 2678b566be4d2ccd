package jobsearch

import (
	"fmt"

	"github.com/spigell/jobai/internal/leads"
)

func demoLeads(params Params) *leads.Leads {
	location := func(fallback string) string {
		if params.Location != "" {
			return params.Location
		}
		return fallback
	}

	drafts := []leads.Draft{
		{
			ID:      "demo-1",
			Title:   fmt.Sprintf("Hiring: %s Developer", params.Keywords),
			Company: "Tech Solutions Ltd",
			Description: fmt.Sprintf("Looking for experienced %s developers in %s.\nExperience: 2-5 years\nLocation: %s\nApply: careers@techsolutions.com",
				params.Keywords, location("India"), location("Remote")),
			URL:    "https://linkedin.com/posts/demo1",
			Posted: "2 hours ago",
		},
		{
			ID:      "demo-2",
			Title:   fmt.Sprintf("Urgent Requirement - %s", params.Keywords),
			Company: "InfoTech Pvt Ltd",
			Description: fmt.Sprintf("We are hiring %s professionals!\nLocation: %s\nExperience: 3+ years\nSend resume to: jobs@infotech.in",
				params.Keywords, location("Chennai/Bangalore")),
			URL:    "https://linkedin.com/posts/demo2",
			Posted: "5 hours ago",
		},
		{
			ID:      "demo-3",
			Title:   fmt.Sprintf("%s Opening - Fresh/Experienced", params.Keywords),
			Company: "Global Systems",
			Description: fmt.Sprintf("Multiple openings for %s!\nCompany: Global Systems\n%s\nhr@globalsystems.com",
				params.Keywords, location("Multiple locations")),
			URL:    "https://linkedin.com/posts/demo3",
			Posted: "1 day ago",
		},
	}

	result := &leads.Leads{Items: make([]*leads.Lead, 0, len(drafts))}
	for _, d := range drafts {
		result.Items = append(result.Items, leads.New(d))
	}
	return result
}
