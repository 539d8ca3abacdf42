package provider

import (
	"context"

	"github.com/cloud66-oss/ipbot/utils"
	"github.com/rs/zerolog/log"
)

// CascadeIPProvider tries its providers one after the other and returns the
// first answer. Providers after a successful one are never contacted.
type CascadeIPProvider struct {
	providers []IPProvider
}

func NewCascadeIPProvider(providers []IPProvider) *CascadeIPProvider {
	return &CascadeIPProvider{
		providers: providers,
	}
}

func (cp *CascadeIPProvider) Name() string {
	return "cascade"
}

func (cp *CascadeIPProvider) Lookup(ctx context.Context) (*utils.IPInfo, error) {
	for idx, provider := range cp.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := provider.Lookup(ctx)
		if err != nil {
			log.Warn().Err(err).Str("provider", provider.Name()).Int("index", idx).Msg("error while looking up IP address, moving on to next provider")
			continue
		}

		if info == nil {
			log.Warn().Str("provider", provider.Name()).Int("index", idx).Msg("provider returned nothing, moving on to next provider")
			continue
		}

		log.Debug().Str("provider", provider.Name()).Str("address", info.Address).Msg("IP address resolved")
		return info, nil
	}

	return nil, utils.ErrNoProviderAvailable
}
