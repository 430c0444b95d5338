package plausible

import (
	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers"
)

func init() {
	providers.Register("plausible", func(cfg core.ProviderConfig) (core.Provider, error) {
		if cfg.SiteID == "" {
			return nil, &core.Error{
				Code:     core.ErrCodeInvalidConfig,
				Provider: "plausible",
				Message:  "plausible requires a site domain",
			}
		}
		return New(cfg.SiteID, WithHost(cfg.Host)), nil
	})
}
