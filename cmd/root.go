package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloud66-oss/ipbot/utils"
	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "ipbot",
	Short: "ipbot is a Telegram bot that tells you the public IP address of its host",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = utils.Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/ipbot.yml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("level", "info", "log level")
	rootCmd.PersistentFlags().String("log-format", "json", "log format: json or text")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(runCmd)
}

func configureLogging(_ context.Context) {
	level, err := zerolog.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		fmt.Println("invalid log level")
		os.Exit(1)
	}

	if viper.GetString("log.format") == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	zerolog.SetGlobalLevel(level)
	if level == zerolog.TraceLevel {
		log.Logger = log.With().Caller().Logger()
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initConfig() {
	// a missing dotenv file is fine, the environment may already be set
	if err := godotenv.Load(envFile); err == nil {
		fmt.Println("Using env file:", envFile)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Printf("home directory not found %s\n", err.Error())
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/app")
		viper.SetConfigName("ipbot")
	}

	replacer := strings.NewReplacer("-", "_", ".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix("IPBOT")
	viper.AutomaticEnv()
	bindLegacyEnv()

	configFound := viper.ReadInConfig() == nil
	if configFound {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	ctx := context.Background()
	configureLogging(ctx)

	// sentry.dsn in the config file or IPBOT_SENTRY_DSN
	if dsn := viper.GetString("sentry.dsn"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Release: utils.Version}); err != nil {
			log.Warn().Err(err).Msg("failed to initialize Sentry")
		} else {
			log.Info().Msg("Sentry error tracking enabled")
		}
	}

	if configFound {
		viper.WatchConfig()
		viper.OnConfigChange(func(e fsnotify.Event) {
			log.Info().Str("file", e.Name).Msg("reloading config")
			configureLogging(context.Background())
		})
	}
}

// bindLegacyEnv keeps the variable names used by earlier deployments working
// next to the IPBOT_ prefixed ones.
func bindLegacyEnv() {
	viper.BindEnv("bot.token", "IPBOT_BOT_TOKEN", "TELOXIDE_TOKEN")
	viper.BindEnv("bot.proxy", "IPBOT_BOT_PROXY", "SOCKS_PROXY")
	viper.BindEnv("timeouts.request", "IPBOT_TIMEOUTS_REQUEST", "REQUEST_TIMEOUT")
	viper.BindEnv("timeouts.connect", "IPBOT_TIMEOUTS_CONNECT", "CONNECT_TIMEOUT")
	viper.BindEnv("timeouts.shutdown", "IPBOT_TIMEOUTS_SHUTDOWN", "SHUTDOWN_TIMEOUT")
}
