package feeds

import (
	"fmt"
	"strings"

	"github.com/icodeforyou/spothub-go/config"
	"github.com/icodeforyou/spothub-go/porssisahko"
	"github.com/icodeforyou/spothub-go/spothinta"
	"github.com/icodeforyou/spothub-go/types"
)

// FromConfig builds the price providers in the configured priority order.
func FromConfig(cnfg config.AppConfigEnergyPrice) ([]types.PriceProvider, error) {
	var providers []types.PriceProvider
	for _, name := range cnfg.GetProviders() {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "spothinta":
			providers = append(providers, spothinta.New(cnfg.SpotHintaUrl))
		case "porssisahko":
			providers = append(providers, porssisahko.New(cnfg.PorssisahkoUrl))
		default:
			return nil, fmt.Errorf("unknown price provider %q", name)
		}
	}
	return providers, nil
}
