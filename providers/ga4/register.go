package ga4

import (
	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers"
)

func init() {
	providers.Register("ga4", func(cfg core.ProviderConfig) (core.Provider, error) {
		if cfg.SiteID == "" {
			return nil, &core.Error{
				Code:     core.ErrCodeInvalidConfig,
				Provider: "ga4",
				Message:  "ga4 requires a measurement ID",
			}
		}
		if cfg.APISecret.IsEmpty() {
			return nil, &core.Error{
				Code:     core.ErrCodeInvalidConfig,
				Provider: "ga4",
				Message:  "ga4 requires an API secret",
			}
		}
		return New(cfg.SiteID, WithAPISecret(cfg.APISecret), WithHost(cfg.Host)), nil
	})
}
