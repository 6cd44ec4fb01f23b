package ingest

import (
	"fmt"
	"net/http"
	"sort"
)

const (
	SourcePawsChicago = "paws_chicago"
	SourceWrightWay   = "wright_way"
	SourceAntiCruelty = "anti_cruelty"
)

// Registry maps source names to provider implementations.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(httpClient *http.Client, userAgent string) *Registry {
	client := &client{httpClient: httpClient, userAgent: userAgent}

	return &Registry{
		providers: map[string]Provider{
			SourcePawsChicago: NewPawsChicagoProvider(client),
			SourceWrightWay:   NewWrightWayProvider(client),
			SourceAntiCruelty: NewAntiCrueltyProvider(client),
		},
	}
}

func (r *Registry) Get(source string) (Provider, error) {
	provider, ok := r.providers[source]
	if !ok {
		return nil, fmt.Errorf("unknown source '%s', options: %v", source, r.Sources())
	}
	return provider, nil
}

func (r *Registry) Sources() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
