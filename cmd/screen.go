package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/eclipseagency/jobly/internal/applications"
	"github.com/eclipseagency/jobly/internal/forms"
	"github.com/eclipseagency/jobly/internal/interview"
	"github.com/eclipseagency/jobly/internal/logger"
	"github.com/eclipseagency/jobly/internal/screening"
	"github.com/eclipseagency/jobly/internal/screening/metrics"
	"github.com/eclipseagency/jobly/internal/secrets"
)

const (
	PromptSave           = "Save results"
	PromptNo             = "Exit without saving"
	PromptBack           = "back"
	PromptReportByStatus = "Report by status"
	PromptShowResult     = "Show an application result"
	PromptResultsToFile  = "Dump results to file"

	interactiveApplicationPrefix = "interactive-"
	tokenEnv                     = envPrefix + "_PORTAL_TOKEN"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptSave, PromptNo, PromptReportByStatus, PromptShowResult, PromptResultsToFile},
}

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen applications against a screening form",
	Run: func(cmd *cobra.Command, _ []string) {
		screen(cmd)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringP("form", "F", "", "screening form snapshot (JSON file)")
	screenCmd.Flags().String("job", "", "fetch the active screening form of this job from the portal")
	screenCmd.Flags().StringSliceP("answers", "a", nil, "answer submission files, one application per file")
	screenCmd.Flags().BoolP("interactive", "i", false, "answer the form questions in the terminal")
	screenCmd.Flags().StringP("output", "o", "", "write results to this file instead of stdout")
	screenCmd.Flags().BoolP("auto-approve", "y", false, "save results without asking")
	screenCmd.Flags().BoolP("force", "f", false, "screen applications already recorded in the history file")
	screenCmd.Flags().String("history-file", "", "file recording already screened applications")
	screenCmd.Flags().Bool("passing-gate", false, "reject submissions scoring below the form passing threshold")
	screenCmd.Flags().Int("concurrency", 0, "applications screened in parallel (default one per CPU)")

	viper.BindPFlag("history-file", screenCmd.Flags().Lookup("history-file"))
	viper.BindPFlag("screening.passing-gate", screenCmd.Flags().Lookup("passing-gate"))
	viper.BindPFlag("screening.concurrency", screenCmd.Flags().Lookup("concurrency"))
}

// Report is the document written by the screen command.
type Report struct {
	FormID      string                 `json:"formId"`
	JobID       string                 `json:"jobId"`
	FormVersion int                    `json:"formVersion"`
	Summary     applications.Summary   `json:"summary"`
	Outcomes    []applications.Outcome `json:"outcomes"`
}

func screen(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobly", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	form, err := loadForm(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading the screening form", zap.Error(err))
	}

	formLogger := logger.With(
		zap.String("form_id", form.ID),
		zap.String("job_id", form.JobID),
		zap.Int("form_version", form.Version),
	)
	formLogger.Info("screening form loaded", zap.Int("questions", len(form.Questions)))

	apps, err := collectApplications(cmd, form)
	if err != nil {
		logger.Fatal("reading applications", zap.Error(err))
	}

	force, _ := cmd.Flags().GetBool("force")
	apps, err = applications.RunFilters(ctx, logger, []applications.Filter{
		applications.NewDuplicates(),
		applications.NewHistory(config.HistoryFile, force, logger),
	}, apps)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if apps.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no applications left to screen"))
		return
	}

	registry := prometheus.NewRegistry()
	svc := screening.NewService(logger, metrics.New(registry), screeningOptions(config)...)
	batch := applications.NewBatch(svc, logger, config.Screening.Concurrency)

	outcomes, summary, err := batch.Run(ctx, form, apps)
	if err != nil {
		logger.Fatal("screening failed", zap.Error(err), zap.String("hint", "run jobly lint on the form"))
	}

	writeMetrics(config, registry, logger)

	report := &Report{
		FormID:      form.ID,
		JobID:       form.JobID,
		FormVersion: form.Version,
		Summary:     summary,
		Outcomes:    outcomes,
	}

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	for {
		action := PromptSave
		if !autoApprove {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		if err := handleAction(cmd, action, logger, config, report); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(cmd *cobra.Command, action string, logger *zap.Logger, config *Config, report *Report) error {
	switch action {
	case PromptSave:
		if err := saveReport(cmd, report, logger); err != nil {
			return err
		}
		if err := recordHistory(config.HistoryFile, report, logger); err != nil {
			return err
		}
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReportByStatus:
		pretty, _ := json.MarshalIndent(applications.ReportByStatus(report.Outcomes), "", "  ")
		logger.Info(string(pretty), zap.Int("applications count", len(report.Outcomes)))
		return nil
	case PromptShowResult:
		return showResult(cmd, report)
	case PromptResultsToFile:
		filename, err := forms.DumpToTmpFile("screening_*.json", report)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func showResult(cmd *cobra.Command, report *Report) error {
	items := make([]string, 0, len(report.Outcomes)+1)
	for i := range report.Outcomes {
		o := &report.Outcomes[i]
		items = append(items, fmt.Sprintf("%s %s", o.ApplicationID, o.Status()))
	}

	selectPrompt := promptui.Select{
		Label: "Choose an application and press ENTER",
		Items: append(items, PromptBack),
	}

	idx, selected, err := selectPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	return forms.Encode(cmd.OutOrStdout(), report.Outcomes[idx])
}

func saveReport(cmd *cobra.Command, report *Report, logger *zap.Logger) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return forms.Encode(cmd.OutOrStdout(), report)
	}

	if err := forms.WriteFile(output, report); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	logger.Info("results written", zap.String("filename", output))
	return nil
}

func recordHistory(path string, report *Report, logger *zap.Logger) error {
	if path == "" {
		return nil
	}

	history, err := applications.LoadHistory(path)
	if err != nil {
		return fmt.Errorf("reading screening history: %w", err)
	}

	history.Record(report.FormID, report.Outcomes, time.Now())
	if err := history.ToFile(path); err != nil {
		return fmt.Errorf("writing screening history: %w", err)
	}

	logger.Info("appended to history file", zap.String("filename", path))
	return nil
}

func loadForm(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (*screening.Form, error) {
	path, _ := cmd.Flags().GetString("form")
	jobID, _ := cmd.Flags().GetString("job")

	switch {
	case path != "" && jobID != "":
		return nil, errors.New("--form and --job are mutually exclusive")
	case path != "":
		return forms.LoadForm(path)
	case jobID != "":
		client, err := newPortalClient(config.Portal, logger)
		if err != nil {
			return nil, err
		}
		return client.FetchForm(ctx, jobID)
	default:
		return nil, errors.New("either --form or --job is required")
	}
}

func newPortalClient(cfg *PortalConfig, logger *zap.Logger) (*forms.Client, error) {
	token, err := resolveToken(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w (set %s, %s_TOKEN_FILE or portal.token-file)", err, tokenEnv, envPrefix)
	}

	client := forms.NewClient(logger, token)
	if cfg.APIURL != "" {
		client.APIURL = cfg.APIURL
	}
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	if cfg.MaxRetries >= 0 {
		client.MaxRetries = cfg.MaxRetries
	}
	return client, nil
}

func resolveToken(cfg *PortalConfig) (string, error) {
	if cfg == nil {
		return "", errors.New("portal config is required")
	}

	return secrets.Load(secrets.Source{
		Name: "portal token",
		File: strings.TrimSpace(cfg.TokenFile),
		Env:  tokenEnv,
	})
}

// collectApplications builds the batch from answer files, named after the
// file, and from the interactive interview.
func collectApplications(cmd *cobra.Command, form *screening.Form) (*applications.Applications, error) {
	files, _ := cmd.Flags().GetStringSlice("answers")
	interactive, _ := cmd.Flags().GetBool("interactive")

	if len(files) == 0 && !interactive {
		return nil, errors.New("no applications: pass --answers files or --interactive")
	}

	apps, err := loadApplications(files)
	if err != nil {
		return nil, err
	}

	if interactive {
		answers, err := interview.Collect(form, interview.Terminal{})
		if err != nil {
			return nil, err
		}
		apps.Items = append(apps.Items, interactiveApplication(answers))
	}

	return apps, nil
}

// loadApplications reads one application per answer file. Two different
// files naming the same application are rejected; the same file given twice
// is left to the duplicates filter.
func loadApplications(paths []string) (*applications.Applications, error) {
	apps := &applications.Applications{}
	sources := make(map[string]string, len(paths))

	for _, path := range paths {
		id := applicationID(path)
		clean := filepath.Clean(path)
		if prev, ok := sources[id]; ok && prev != clean {
			return nil, fmt.Errorf("answer files %q and %q both name application %q", prev, clean, id)
		}
		sources[id] = clean

		answers, err := forms.LoadAnswers(path)
		if err != nil {
			return nil, err
		}
		apps.Items = append(apps.Items, &applications.Application{
			ID:      id,
			Answers: answers,
		})
	}

	return apps, nil
}

// interactiveApplication names each terminal session uniquely so that a
// recorded session never hides the next one.
func interactiveApplication(answers []screening.Answer) *applications.Application {
	return &applications.Application{
		ID:      interactiveApplicationPrefix + uuid.NewString(),
		Answers: answers,
	}
}

func applicationID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func screeningOptions(config *Config) []screening.Option {
	var opts []screening.Option
	if config.Screening.PassingGate {
		opts = append(opts, screening.WithPassingGate())
	}
	return opts
}

func writeMetrics(config *Config, registry *prometheus.Registry, logger *zap.Logger) {
	path := config.Metrics.Textfile
	if path == "" {
		return
	}

	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		logger.Warn("writing metrics textfile", zap.Error(err), zap.String("filename", path))
		return
	}
	logger.Debug("metrics written", zap.String("filename", path))
}
