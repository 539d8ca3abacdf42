package provider

import (
	"context"

	"github.com/cloud66-oss/ipbot/utils"
	"github.com/rs/zerolog/log"
)

// EnrichedIPProvider runs the answer of provider through enricher. A failing
// enricher never fails the lookup.
type EnrichedIPProvider struct {
	provider IPProvider
	enricher Enricher
}

func NewEnrichedIPProvider(provider IPProvider, enricher Enricher) *EnrichedIPProvider {
	return &EnrichedIPProvider{
		provider: provider,
		enricher: enricher,
	}
}

func (ep *EnrichedIPProvider) Name() string {
	return ep.provider.Name()
}

func (ep *EnrichedIPProvider) Lookup(ctx context.Context) (*utils.IPInfo, error) {
	info, err := ep.provider.Lookup(ctx)
	if err != nil {
		return nil, err
	}

	enriched, err := ep.enricher.Enrich(ctx, info)
	if err != nil {
		log.Warn().Err(err).Str("address", info.Address).Msg("failed to enrich IP address, using provider answer as is")
		return info, nil
	}

	return enriched, nil
}
