package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/cloud66-oss/ipbot/utils"
	"github.com/jinzhu/copier"
	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"
)

// Enricher fills in details a provider left out.
type Enricher interface {
	Enrich(ctx context.Context, info *utils.IPInfo) (*utils.IPInfo, error)
}

// MaxMindEnricher looks the address up in local GeoLite2 City and ASN
// databases. Either database may be omitted.
type MaxMindEnricher struct {
	cityDb *geoip2.Reader
	asnDb  *geoip2.Reader
}

func NewMaxMindEnricher(ctx context.Context, cityFile, asnFile string) (*MaxMindEnricher, error) {
	if cityFile == "" && asnFile == "" {
		return nil, errors.New("no MaxMind database configured")
	}

	cityDb, err := readMaxMindDb(ctx, cityFile)
	if err != nil {
		return nil, err
	}

	asnDb, err := readMaxMindDb(ctx, asnFile)
	if err != nil {
		if cityDb != nil {
			cityDb.Close()
		}
		return nil, err
	}

	log.Info().Str("city", cityFile).Str("asn", asnFile).Msg("MaxMind enrichment enabled")

	return &MaxMindEnricher{
		cityDb: cityDb,
		asnDb:  asnDb,
	}, nil
}

func readMaxMindDb(_ context.Context, file string) (*geoip2.Reader, error) {
	if file == "" {
		return nil, nil
	}

	if !utils.FileExists(file) {
		return nil, fmt.Errorf("file not found %s", file)
	}

	return geoip2.Open(file)
}

func (mme *MaxMindEnricher) Enrich(ctx context.Context, info *utils.IPInfo) (*utils.IPInfo, error) {
	ip := net.ParseIP(info.Address)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address %q", info.Address)
	}

	found := &utils.IPInfo{}

	if mme.cityDb != nil {
		city, err := mme.cityDb.City(ip)
		if err != nil {
			return nil, err
		}

		found.Country = city.Country.Names["en"]
		found.City = city.City.Names["en"]
	}

	if mme.asnDb != nil {
		asn, err := mme.asnDb.ASN(ip)
		if err != nil {
			return nil, err
		}

		found.ISP = asn.AutonomousSystemOrganization
	}

	return mergeIPInfo(found, info)
}

func (mme *MaxMindEnricher) Close() {
	if mme.cityDb != nil {
		mme.cityDb.Close()
	}
	if mme.asnDb != nil {
		mme.asnDb.Close()
	}
}

// mergeIPInfo returns base overlaid with every non-empty field of preferred.
func mergeIPInfo(base, preferred *utils.IPInfo) (*utils.IPInfo, error) {
	merged := *base
	if err := copier.CopyWithOption(&merged, preferred, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, err
	}

	return &merged, nil
}
