package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/cloud66-oss/ipbot/provider"
	"github.com/cloud66-oss/ipbot/utils"
	"github.com/spf13/viper"
)

type settings struct {
	Token           string
	Proxy           *url.URL
	Debug           bool
	PollTimeout     time.Duration
	RequestTimeout  time.Duration
	ConnectTimeout  time.Duration
	ShutdownTimeout time.Duration
	ProviderURLs    []string
	MaxMindCity     string
	MaxMindASN      string
}

func setRunDefaults() {
	viper.SetDefault("bot.debug", false)
	viper.SetDefault("bot.poll_timeout", 3)

	viper.SetDefault("timeouts.request", 20)
	viper.SetDefault("timeouts.connect", 10)
	viper.SetDefault("timeouts.shutdown", 5)

	viper.SetDefault("providers.urls", provider.DefaultProviderURLs)

	viper.SetDefault("enrich.maxmind.city", "")
	viper.SetDefault("enrich.maxmind.asn", "")

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.binding", "0.0.0.0")
	viper.SetDefault("api.port", 9912)
}

func loadSettings() (*settings, error) {
	token := strings.TrimSpace(viper.GetString("bot.token"))
	if token == "" {
		return nil, &utils.ConfigError{Key: "bot.token", Reason: "not set, use TELOXIDE_TOKEN or IPBOT_BOT_TOKEN"}
	}

	proxyAddress := viper.GetString("bot.proxy")
	if strings.TrimSpace(proxyAddress) == "" {
		return nil, &utils.ConfigError{Key: "bot.proxy", Reason: "not set, use SOCKS_PROXY or IPBOT_BOT_PROXY"}
	}

	proxyURL, err := utils.ParseProxyURL(proxyAddress)
	if err != nil {
		return nil, err
	}

	s := &settings{
		Token:        token,
		Proxy:        proxyURL,
		Debug:        viper.GetBool("bot.debug"),
		ProviderURLs: viper.GetStringSlice("providers.urls"),
		MaxMindCity:  viper.GetString("enrich.maxmind.city"),
		MaxMindASN:   viper.GetString("enrich.maxmind.asn"),
	}

	timeouts := []struct {
		key string
		dst *time.Duration
	}{
		{"bot.poll_timeout", &s.PollTimeout},
		{"timeouts.request", &s.RequestTimeout},
		{"timeouts.connect", &s.ConnectTimeout},
		{"timeouts.shutdown", &s.ShutdownTimeout},
	}
	for _, t := range timeouts {
		if *t.dst, err = secondsSetting(t.key); err != nil {
			return nil, err
		}
	}

	// a stop request only takes effect once the running long poll returns
	if s.PollTimeout < time.Second {
		return nil, &utils.ConfigError{Key: "bot.poll_timeout", Reason: "must be at least one second"}
	}

	if s.PollTimeout >= s.ShutdownTimeout {
		return nil, &utils.ConfigError{
			Key:    "bot.poll_timeout",
			Reason: fmt.Sprintf("must be shorter than the shutdown timeout (%s)", s.ShutdownTimeout),
		}
	}

	if s.PollTimeout >= s.RequestTimeout {
		return nil, &utils.ConfigError{
			Key:    "bot.poll_timeout",
			Reason: fmt.Sprintf("must be shorter than the request timeout (%s)", s.RequestTimeout),
		}
	}

	if len(s.ProviderURLs) == 0 {
		return nil, &utils.ConfigError{Key: "providers.urls", Reason: "at least one provider is required"}
	}

	return s, nil
}

// maxSeconds is the longest duration time.Duration can hold.
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

func secondsSetting(key string) (time.Duration, error) {
	raw := viper.GetString(key)

	seconds := viper.GetFloat64(key)
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0, &utils.ConfigError{Key: key, Reason: fmt.Sprintf("%q is not a positive number of seconds", raw)}
	}

	if seconds > maxSeconds {
		return 0, &utils.ConfigError{Key: key, Reason: fmt.Sprintf("%q is too large", raw)}
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
