package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/eclipseagency/jobly/internal/forms"
	"github.com/eclipseagency/jobly/internal/logger"
	"github.com/eclipseagency/jobly/internal/screening"
)

var lintCmd = &cobra.Command{
	Use:          "lint FORM...",
	Short:        "Check screening form files for schema and configuration defects",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}
		defer logger.Sync()

		return lint(logger, args)
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

// lint checks every file and reports how many failed.
func lint(logger *zap.Logger, paths []string) error {
	failed := 0
	for _, path := range paths {
		if err := lintFile(path); err != nil {
			failed++
			fields := []zap.Field{zap.String("filename", path), zap.Error(err)}
			var cfgErr *screening.ConfigError
			if errors.As(err, &cfgErr) {
				fields = append(fields, zap.String("code", string(cfgErr.Code)))
			}
			logger.Error("form is defective", fields...)
			continue
		}
		logger.Info("form ok", zap.String("filename", path))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d forms are defective", failed, len(paths))
	}
	return nil
}

func lintFile(path string) error {
	form, err := forms.LoadForm(path)
	if err != nil {
		return err
	}
	return screening.CheckForm(form)
}
