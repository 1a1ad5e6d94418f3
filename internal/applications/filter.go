package applications

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Filter is one step applied to a batch before screening.
type Filter interface {
	Name() string
	Apply(ctx context.Context, apps *Applications) (*Applications, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// RunFilters executes the supplied filters sequentially.
func RunFilters(ctx context.Context, logger *zap.Logger, steps []Filter, apps *Applications) (*Applications, error) {
	for _, step := range steps {
		next, info, err := step.Apply(ctx, apps)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if logger != nil {
			logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		apps = next
	}

	return apps, nil
}

type duplicatesFilter struct{}

// NewDuplicates creates a filter that keeps only the first application per id.
func NewDuplicates() Filter {
	return duplicatesFilter{}
}

func (duplicatesFilter) Name() string { return "duplicates" }

func (duplicatesFilter) Apply(_ context.Context, apps *Applications) (*Applications, Step, error) {
	initial := apps.Len()
	seen := make(map[string]struct{}, initial)
	kept := make([]*Application, 0, initial)
	for _, app := range apps.Items {
		if _, dup := seen[app.ID]; dup {
			continue
		}
		seen[app.ID] = struct{}{}
		kept = append(kept, app)
	}
	apps.Items = kept

	return apps, Step{Initial: initial, Dropped: initial - apps.Len(), Left: apps.Len()}, nil
}

type historyFilter struct {
	path   string
	ignore bool
	logger *zap.Logger
}

// NewHistory creates a filter that removes applications already recorded in
// the history file. With ignore set every application is kept.
func NewHistory(path string, ignore bool, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &historyFilter{path: path, ignore: ignore, logger: logger}
}

func (f *historyFilter) Name() string { return "history" }

func (f *historyFilter) Apply(_ context.Context, apps *Applications) (*Applications, Step, error) {
	initial := apps.Len()
	if f.path == "" || f.ignore {
		if f.ignore {
			f.logger.Info("ignoring screening history", zap.String("reason", "force flag is set"))
		}
		return apps, Step{Initial: initial, Left: initial}, nil
	}

	history, err := LoadHistory(f.path)
	if err != nil {
		return apps, Step{}, fmt.Errorf("reading screening history: %w", err)
	}

	excluded := apps.Exclude(history.ApplicationIDs())
	if len(excluded) > 0 {
		f.logger.Info("excluding already screened applications",
			zap.Strings("excluded_applications", excluded),
			zap.Int("applications_left", apps.Len()),
		)
	}

	return apps, Step{Initial: initial, Dropped: len(excluded), Left: apps.Len()}, nil
}
