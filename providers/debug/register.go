package debug

import (
	"github.com/trackkit/trackkit-go/core"
	"github.com/trackkit/trackkit-go/providers"
)

func init() {
	providers.Register("debug", func(_ core.ProviderConfig) (core.Provider, error) {
		return New(), nil
	})
}
