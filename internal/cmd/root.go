package cmd

import (
	"errors"
	"fmt"

	"github.com/0fflineDocs/Cipher/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "cipher",
	Short: "Terminal client for the Cipher council and debate backend",
	Long: `Cipher sends questions to a council of AI personas, which answer,
rank each other anonymously and hand their work to a chairman for a final
answer. It can also stage a structured debate between two personas with an
optional moderator's verdict.

Results stream in stage by stage and are kept in sync with the conversations
stored by the backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// configErr is the error from reading the config file. It is reported by
// commands that need the configuration.
var configErr error

// reportedError marks an error that a command already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	var reported *reportedError
	if err != nil && !errors.As(err, &reported) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/cipher/config.yaml)")
	rootCmd.PersistentFlags().String("base-url", "", "backend base URL (overrides api.base_url)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	configErr = config.Init(cfgFile)
	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
}
