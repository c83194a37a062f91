package cmd

import (
	"os"
	"time"

	globalConfig "github.com/agromov/postwatch/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "postwatch",
	Short: "Watch Telegram channels and review AI-generated comments",
	Long: `Postwatch monitors a set of Telegram channels for new posts, generates a
short candidate comment for each post and routes it to a single human
reviewer; approved comments are posted back as replies in the channel's
discussion chat.`,
}

func init() {
	// .env first, so the config package's env overrides see the values.
	_ = godotenv.Load()

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()
	cobra.OnInitialize(initEnvConfig)
}

// initEnvConfig applies environment overrides that the flags do not cover.
func initEnvConfig() {
	viper.AutomaticEnv()

	if v := viper.GetString("app_port"); v != "" {
		globalConfig.AppPort = v
	}
	if viper.GetBool("app_debug") {
		globalConfig.AppDebug = true
	}
	if v := viper.GetString("db_driver"); v != "" {
		globalConfig.DBDriver = v
	}
	if v := viper.GetString("db_dsn"); v != "" {
		globalConfig.DBDSN = v
	}
	if v := viper.GetString("channels_file"); v != "" {
		globalConfig.ChannelsFile = v
	}
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppPort,
		"port", "p",
		globalConfig.AppPort,
		"inspection API port | example: --port=8089",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&globalConfig.AppDebug,
		"debug", "d",
		globalConfig.AppDebug,
		"display debug logs | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.DBDriver,
		"db-driver", "",
		globalConfig.DBDriver,
		`database driver, sqlite or postgres | example: --db-driver=postgres`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.DBDSN,
		"db-dsn", "",
		globalConfig.DBDSN,
		`database location: sqlite file path or postgres DSN | example: --db-dsn="storages/postwatch.db"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.ChannelsFile,
		"channels", "c",
		globalConfig.ChannelsFile,
		`channel mapping file | example: --channels="channels.yml"`,
	)
	rootCmd.PersistentFlags().DurationVarP(
		&globalConfig.DebounceInterval,
		"debounce", "",
		globalConfig.DebounceInterval,
		`album debounce window | example: --debounce=3s`,
	)
	rootCmd.PersistentFlags().IntVarP(
		&globalConfig.SendMaxAttempts,
		"send-attempts", "",
		globalConfig.SendMaxAttempts,
		`max attempts per outbound send | example: --send-attempts=10`,
	)
	rootCmd.PersistentFlags().DurationVarP(
		&globalConfig.SendRetryDelay,
		"send-delay", "",
		globalConfig.SendRetryDelay,
		`delay between send attempts | example: --send-delay=60s`,
	)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorln(err)
		os.Exit(1)
	}
}
