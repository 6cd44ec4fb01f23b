package ingest

import (
	"net/http"
	"testing"
)

func TestRegistry_KnownSources(t *testing.T) {
	registry := NewRegistry(&http.Client{}, "test-agent")

	for _, source := range []string{SourcePawsChicago, SourceWrightWay, SourceAntiCruelty} {
		provider, err := registry.Get(source)
		if err != nil {
			t.Errorf("Expected provider for '%s', got error: %v", source, err)
		}
		if provider == nil {
			t.Errorf("Expected non-nil provider for '%s'", source)
		}
	}
}

func TestRegistry_UnknownSource(t *testing.T) {
	registry := NewRegistry(&http.Client{}, "test-agent")

	if _, err := registry.Get("petfinder"); err == nil {
		t.Error("Expected error for unknown source")
	}
}

func TestRegistry_SourcesSorted(t *testing.T) {
	registry := NewRegistry(&http.Client{}, "test-agent")

	sources := registry.Sources()
	if len(sources) != 3 {
		t.Fatalf("Expected 3 sources, got %d", len(sources))
	}

	expected := []string{SourceAntiCruelty, SourcePawsChicago, SourceWrightWay}
	for i, want := range expected {
		if sources[i] != want {
			t.Errorf("Expected sources %v, got %v", expected, sources)
			break
		}
	}
}
