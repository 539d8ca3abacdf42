package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/cloud66-oss/ipbot/utils"
)

// DefaultProviderURLs are queried in this order.
var DefaultProviderURLs = []string{
	"https://api.ip.sb/jsonip",
	"https://api.myip.com",
	"https://ipinfo.io/json",
}

const maxResponseSize = 1 << 20

type httpProviderResponse struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
	Org     string `json:"org"`
}

// HTTPProvider asks a JSON endpoint for the caller's address. The client must
// not use a proxy, otherwise the proxy's address is reported.
type HTTPProvider struct {
	name   string
	url    string
	client *http.Client
}

func NewHTTPProvider(endpoint string, client *http.Client) *HTTPProvider {
	name := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		name = u.Host
	}

	return &HTTPProvider{
		name:   name,
		url:    endpoint,
		client: client,
	}
}

// NewHTTPProviders keeps the order of endpoints.
func NewHTTPProviders(endpoints []string, client *http.Client) []IPProvider {
	providers := make([]IPProvider, 0, len(endpoints))
	for _, endpoint := range endpoints {
		providers = append(providers, NewHTTPProvider(endpoint, client))
	}

	return providers
}

func (hp *HTTPProvider) Name() string {
	return hp.name
}

func (hp *HTTPProvider) Lookup(ctx context.Context) (*utils.IPInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hp.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", hp.url, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ipbot/"+utils.Version)

	resp, err := hp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", hp.url, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body) // nolint: errcheck
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &utils.StatusError{URL: hp.url, StatusCode: resp.StatusCode}
	}

	var body httpProviderResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return nil, &utils.ParseError{URL: hp.url, Err: err}
	}

	address := strings.TrimSpace(body.IP)
	if !govalidator.IsIP(address) {
		return nil, &utils.ParseError{URL: hp.url, Err: fmt.Errorf("invalid ip %q", body.IP)}
	}

	isp := body.ISP
	if isp == "" {
		isp = body.Org
	}

	return &utils.IPInfo{
		Address: address,
		Country: strings.TrimSpace(body.Country),
		City:    strings.TrimSpace(body.City),
		ISP:     strings.TrimSpace(isp),
		Source:  hp.name,
	}, nil
}
