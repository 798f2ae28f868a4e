package root

import (
	"os"

	"github.com/phase1912/BigFileSorterGenerator/config"
	"github.com/phase1912/BigFileSorterGenerator/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var configFile, logLevel, logDir string

var rootCmd = &cobra.Command{
	Use:   "bigsort",
	Short: "Generate and sort files larger than memory",
	Long:  `bigsort sorts newline delimited "<number>.<text>" files with an external merge sort, and can generate such files for testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func AddCommand(cmds ...*cobra.Command) {
	rootCmd.AddCommand(cmds...)
}

// Bind maps command flags onto config keys. A changed flag beats the config
// file, an untouched one only fills in what the file leaves out.
func Bind(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig reads --config on top of whatever the command bound to v
func LoadConfig(v *viper.Viper) (*config.Config, error) {
	if logLevel != "" {
		v.Set("zap.level", logLevel)
	}
	if logDir != "" {
		v.Set("zap.director", logDir)
	}
	return config.Load(v, configFile)
}

func NewLogger(conf *config.Config) (*zap.Logger, error) {
	return log.NewLogger(conf.Zap)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path of the configuration file in yaml, json and toml format (optional)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug/info/warn/error) [default info]")
	rootCmd.PersistentFlags().StringVarP(&logDir, "log-dir", "", "", "Directory for daily rotated log files, stderr when empty")
}
