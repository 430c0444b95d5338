package umami

import (
	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers"
)

func init() {
	providers.Register("umami", func(cfg core.ProviderConfig) (core.Provider, error) {
		if cfg.SiteID == "" {
			return nil, &core.Error{
				Code:     core.ErrCodeInvalidConfig,
				Provider: "umami",
				Message:  "umami requires a website ID",
			}
		}
		return New(cfg.SiteID, WithHost(cfg.Host)), nil
	})
}
