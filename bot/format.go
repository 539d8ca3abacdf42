package bot

import (
	"strings"

	"github.com/cloud66-oss/ipbot/utils"
)

const lookupPlaceholder = "Looking up your public IP address, please wait..."

// FormatIPInfo renders one line per known field: address, country, city, ISP.
func FormatIPInfo(info *utils.IPInfo) string {
	lines := []string{"Your public IP address: " + info.Address}

	if info.Country != "" {
		lines = append(lines, "Country/Region: "+info.Country)
	}
	if info.City != "" {
		lines = append(lines, "City: "+info.City)
	}
	if info.ISP != "" {
		lines = append(lines, "ISP: "+info.ISP)
	}

	return strings.Join(lines, "\n")
}

func FormatError(err error) string {
	return "Failed to look up IP address: " + err.Error()
}
