package leads

import (
	"encoding/json"
	"os"
	"time"
)

// History records leads that were already sent so later runs skip them.
type History struct {
	Items []*SentLead `json:"items"`
}

type SentLead struct {
	ID      string    `json:"id"`
	Company string    `json:"company"`
	Email   string    `json:"email"`
	SentAt  time.Time `json:"sentAt"`
}

// LoadHistory reads the history file. A missing or empty file is an empty history.
func LoadHistory(path string) (*History, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return &History{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return &History{}, nil
	}

	var h History
	if err := json.NewDecoder(file).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Record appends every sent lead that is not in the history yet.
func (h *History) Record(leads []*Lead) int {
	known := make(map[string]struct{}, len(h.Items))
	for _, item := range h.Items {
		known[item.ID] = struct{}{}
	}

	added := 0
	for _, lead := range leads {
		if lead.Status != StatusSent {
			continue
		}
		if _, ok := known[lead.ID]; ok {
			continue
		}
		h.Items = append(h.Items, &SentLead{
			ID:      lead.ID,
			Company: lead.Company,
			Email:   lead.RecruiterEmail,
			SentAt:  lead.UpdatedAt,
		})
		known[lead.ID] = struct{}{}
		added++
	}
	return added
}

func (h *History) IDs() []string {
	ids := make([]string, 0, len(h.Items))
	for _, item := range h.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (h *History) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(h)
}
