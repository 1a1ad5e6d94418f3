package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "jobly"
	envPrefix = "JOBLY"
)

type Config struct {
	Portal      *PortalConfig    `mapstructure:"portal"`
	Screening   *ScreeningConfig `mapstructure:"screening"`
	Metrics     *MetricsConfig   `mapstructure:"metrics"`
	HistoryFile string           `mapstructure:"history-file"`
}

type PortalConfig struct {
	APIURL     string `mapstructure:"api-url"`
	TokenFile  string `mapstructure:"token-file"`
	UserAgent  string `mapstructure:"user-agent"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type ScreeningConfig struct {
	PassingGate bool `mapstructure:"passing-gate"`
	Concurrency int  `mapstructure:"concurrency"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobly screens job applications against employer-authored screening forms",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	if err := viper.BindEnv("portal.token-file", envPrefix+"_TOKEN_FILE"); err != nil {
		log.Fatalf("binding %s_TOKEN_FILE environment variable: %v", envPrefix, err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobly.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// setDefaults registers every config key so that JOBLY_* environment
// variables can override keys absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("portal.api-url", "http://localhost:8080")
	v.SetDefault("portal.token-file", "")
	v.SetDefault("portal.user-agent", "")
	v.SetDefault("portal.max-retries", 3)
	v.SetDefault("screening.passing-gate", false)
	v.SetDefault("screening.concurrency", 0)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("history-file", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if err := loadDotEnv(".env"); err != nil {
		log.Fatalf("loading .env: %v", err)
	}

	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

// loadDotEnv exports variables from path. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// readConfig reads the explicit config file, or jobly.yaml from the current
// directory when present.
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}

	v.AddConfigPath(".")
	v.SetConfigName(app)
	v.SetConfigType("yaml")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	config := &Config{
		Portal:    &PortalConfig{},
		Screening: &ScreeningConfig{},
		Metrics:   &MetricsConfig{},
	}
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}
