package utils

// IPInfo is the public address of the bot host as reported by a provider.
// Empty optional fields mean the provider did not supply them.
type IPInfo struct {
	Address string `json:"ip"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	ISP     string `json:"isp,omitempty"`
	Source  string `json:"source,omitempty"`
}
