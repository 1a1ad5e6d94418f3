package applications

import (
	"context"
	"errors"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eclipseagency/jobly/internal/screening"
)

// Screener screens one submission. *screening.Service implements it.
type Screener interface {
	Screen(ctx context.Context, form *screening.Form, answers []screening.Answer) (*screening.Result, error)
}

// Summary counts batch outcomes by status.
type Summary struct {
	Total       int `json:"total"`
	Shortlisted int `json:"shortlisted"`
	New         int `json:"new"`
	Rejected    int `json:"rejected"`
	Invalid     int `json:"invalid"`
}

func (s *Summary) add(o *Outcome) {
	s.Total++
	switch o.Status() {
	case string(screening.StatusShortlisted):
		s.Shortlisted++
	case string(screening.StatusNew):
		s.New++
	case string(screening.StatusRejected):
		s.Rejected++
	case "invalid":
		s.Invalid++
	}
}

type Batch struct {
	screener    Screener
	logger      *zap.Logger
	concurrency int
}

// NewBatch returns a Batch that screens at most concurrency applications at
// once. A non-positive concurrency means one per CPU.
func NewBatch(screener Screener, logger *zap.Logger, concurrency int) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Batch{screener: screener, logger: logger, concurrency: concurrency}
}

// Run screens every application against one form snapshot. Outcomes keep the
// input order. A form configuration defect aborts the whole batch before any
// application is screened.
func (b *Batch) Run(ctx context.Context, form *screening.Form, apps *Applications) ([]Outcome, Summary, error) {
	if err := screening.CheckForm(form); err != nil {
		return nil, Summary{}, err
	}

	outcomes := make([]Outcome, apps.Len())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, app := range apps.Items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			result, err := b.screener.Screen(ctx, form, app.Answers)
			if errors.Is(err, screening.ErrConfiguration) {
				return err
			}

			outcomes[i] = Outcome{ApplicationID: app.ID, Result: result}
			if err != nil {
				outcomes[i].Error = err.Error()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}

	var summary Summary
	for i := range outcomes {
		summary.add(&outcomes[i])
	}

	b.logger.Info("batch screened",
		zap.String("form_id", form.ID),
		zap.Int("total", summary.Total),
		zap.Int("shortlisted", summary.Shortlisted),
		zap.Int("new", summary.New),
		zap.Int("rejected", summary.Rejected),
		zap.Int("invalid", summary.Invalid),
	)

	return outcomes, summary, nil
}

// ReportByStatus groups application ids by outcome status.
func ReportByStatus(outcomes []Outcome) map[string][]string {
	report := make(map[string][]string)
	for i := range outcomes {
		status := outcomes[i].Status()
		report[status] = append(report[status], outcomes[i].ApplicationID)
	}
	return report
}
