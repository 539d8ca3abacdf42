package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloud66-oss/ipbot/bot"
	"github.com/cloud66-oss/ipbot/provider"
	"github.com/cloud66-oss/ipbot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Telegram through the proxy and answer commands",
	Run:   execRun,
}

func init() {
	runCmd.PersistentFlags().Bool("debug", false, "log Telegram API traffic")
	runCmd.PersistentFlags().Int("poll-timeout", 3, "long polling timeout in seconds, must be shorter than the shutdown timeout")
	runCmd.PersistentFlags().StringArray("providers", provider.DefaultProviderURLs, "IP lookup endpoints, tried in order")
	runCmd.PersistentFlags().String("enrich.maxmind.city", "", "GeoLite2 City database used to fill in missing fields")
	runCmd.PersistentFlags().String("enrich.maxmind.asn", "", "GeoLite2 ASN database used to fill in a missing ISP")

	runCmd.PersistentFlags().Bool("api", false, "enable the status server")
	runCmd.PersistentFlags().String("binding", "0.0.0.0", "status server binding")
	runCmd.PersistentFlags().Int("port", 9912, "status server port")

	viper.BindPFlag("bot.debug", runCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("bot.poll_timeout", runCmd.PersistentFlags().Lookup("poll-timeout"))
	viper.BindPFlag("providers.urls", runCmd.PersistentFlags().Lookup("providers"))
	viper.BindPFlag("enrich.maxmind.city", runCmd.PersistentFlags().Lookup("enrich.maxmind.city"))
	viper.BindPFlag("enrich.maxmind.asn", runCmd.PersistentFlags().Lookup("enrich.maxmind.asn"))

	viper.BindPFlag("api.enabled", runCmd.PersistentFlags().Lookup("api"))
	viper.BindPFlag("api.binding", runCmd.PersistentFlags().Lookup("binding"))
	viper.BindPFlag("api.port", runCmd.PersistentFlags().Lookup("port"))

	setRunDefaults()
}

// buildResolver wires the providers to a client that bypasses every proxy.
// The returned function releases the enrichment databases.
func buildResolver(ctx context.Context, s *settings) (provider.IPProvider, func(), error) {
	client := utils.NewDirectClient(s.ConnectTimeout, s.RequestTimeout)

	for idx, endpoint := range s.ProviderURLs {
		log.Info().Int("index", idx).Str("url", endpoint).Msg("adding provider to cascade")
	}

	var resolver provider.IPProvider = provider.NewCascadeIPProvider(provider.NewHTTPProviders(s.ProviderURLs, client))
	if s.MaxMindCity == "" && s.MaxMindASN == "" {
		return resolver, func() {}, nil
	}

	enricher, err := provider.NewMaxMindEnricher(ctx, s.MaxMindCity, s.MaxMindASN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open MaxMind databases: %w", err)
	}

	return provider.NewEnrichedIPProvider(resolver, enricher), enricher.Close, nil
}

// botService stops the status server together with the bot, so both drain
// within the same grace period.
type botService struct {
	loop   utils.Loop
	status *echo.Echo
	grace  time.Duration
}

func (bs *botService) Run(ctx context.Context) error {
	return bs.loop.Run(ctx)
}

func (bs *botService) Stop() {
	if bs.status != nil {
		go stopStatusServer(bs.status, bs.grace)
	}

	bs.loop.Stop()
}

// releaseResolver closes the enrichment databases unless the dispatch loop
// was abandoned, in which case its handlers may still be reading them.
func releaseResolver(runErr error, release func()) {
	if errors.Is(runErr, utils.ErrShutdownTimeout) {
		return
	}

	release()
}

func execRun(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	s, err := loadSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	resolver, closeResolver, err := buildResolver(ctx, s)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build the resolver")
	}

	proxyClient, err := utils.NewProxyClient(s.Proxy, s.ConnectTimeout, s.RequestTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure the proxy")
	}

	if err := bot.UseZerolog(); err != nil {
		log.Warn().Err(err).Msg("failed to redirect Telegram client logs")
	}

	api, err := tgbotapi.NewBotAPIWithClient(s.Token, tgbotapi.APIEndpoint, proxyClient)
	if err != nil {
		log.Fatal().Err(err).Str("proxy", s.Proxy.Redacted()).Msg("failed to connect to Telegram")
	}
	api.Debug = s.Debug

	log.Info().Str("username", api.Self.UserName).Str("proxy", s.Proxy.Redacted()).Msg("authorized on Telegram")

	b := bot.New(api, resolver, s.PollTimeout)
	if err := b.RegisterCommands(); err != nil {
		log.Fatal().Err(err).Msg("failed to register bot commands")
	}

	service := &botService{loop: b, grace: s.ShutdownTimeout}
	if viper.GetBool("api.enabled") {
		service.status = newStatusServer(resolver)
		startStatusServer(service.status, fmt.Sprintf("%s:%d", viper.GetString("api.binding"), viper.GetInt("api.port")))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	log.Info().Dur("grace", s.ShutdownTimeout).Msg("bot started")

	err = utils.RunWithGracePeriod(ctx, service, quit, s.ShutdownTimeout)
	releaseResolver(err, closeResolver)

	switch {
	case errors.Is(err, utils.ErrShutdownTimeout):
		log.Warn().Msg("exiting without waiting for the dispatch loop")
	case err != nil:
		log.Error().Err(err).Msg("dispatch loop failed")
	default:
		log.Info().Msg("bye")
	}
}
