package provider

import (
	"context"

	"github.com/cloud66-oss/ipbot/utils"
)

// IPProvider reports the public address of the host it runs on.
type IPProvider interface {
	Name() string
	Lookup(ctx context.Context) (*utils.IPInfo, error)
}
