package applications

import (
	"encoding/json"
	"os"
	"time"

	"github.com/eclipseagency/jobly/internal/forms"
	"github.com/eclipseagency/jobly/internal/screening"
)

// Application is one candidate submission waiting to be screened.
type Application struct {
	ID      string             `json:"id"`
	Answers []screening.Answer `json:"answers"`
}

type Applications struct {
	Items []*Application
}

func (a *Applications) Len() int {
	return len(a.Items)
}

func (a *Applications) IDs() []string {
	ids := make([]string, 0, len(a.Items))
	for _, app := range a.Items {
		ids = append(ids, app.ID)
	}
	return ids
}

// Exclude removes applications with the given ids, keeping the order of the
// rest, and returns the removed ids.
func (a *Applications) Exclude(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	var excluded []string
	kept := a.Items[:0]
	for _, app := range a.Items {
		if _, ok := drop[app.ID]; ok {
			excluded = append(excluded, app.ID)
			continue
		}
		kept = append(kept, app)
	}
	a.Items = kept
	return excluded
}

// Outcome is the screening result of one application. Error is set instead of
// Result when the application could not be screened.
type Outcome struct {
	ApplicationID string            `json:"applicationId"`
	Result        *screening.Result `json:"result,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// Status is the recommended status, or "invalid" for incomplete submissions.
func (o *Outcome) Status() string {
	switch {
	case o.Result == nil:
		return "error"
	case !o.Result.IsValid:
		return "invalid"
	default:
		return string(o.Result.RecommendedStatus)
	}
}

// History records applications that were already screened so reruns skip
// them.
type History struct {
	Items []*HistoryEntry
}

type HistoryEntry struct {
	ApplicationID string
	FormID        string
	Status        string
	ScreenedAt    time.Time
}

// LoadHistory reads a history file. A missing or empty file is an empty
// history.
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

	var history History
	if err := json.NewDecoder(file).Decode(&history); err != nil {
		return nil, err
	}
	return &history, nil
}

// Record appends the outcomes that produced a result.
func (h *History) Record(formID string, outcomes []Outcome, now time.Time) {
	for i := range outcomes {
		o := &outcomes[i]
		if o.Result == nil {
			continue
		}
		h.Items = append(h.Items, &HistoryEntry{
			ApplicationID: o.ApplicationID,
			FormID:        formID,
			Status:        o.Status(),
			ScreenedAt:    now.UTC(),
		})
	}
}

func (h *History) ApplicationIDs() []string {
	ids := make([]string, 0, len(h.Items))
	for _, entry := range h.Items {
		ids = append(ids, entry.ApplicationID)
	}
	return ids
}

func (h *History) ToFile(path string) error {
	return forms.WriteFile(path, h)
}
