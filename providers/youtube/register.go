package youtube

import "github.com/petal-labs/scribe/providers"

func init() {
	providers.Register(ProviderID, func(d providers.Deps) (providers.Provider, error) {
		return New("", WithSettings(d.Settings), WithTelemetry(d.Telemetry), WithLogger(d.Logger))
	})
}
