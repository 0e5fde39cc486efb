package quiz

import (
	"testing"

	"quran-quiz-service/internal/domain"
	"quran-quiz-service/internal/generators"
)

func TestBuildCatalogDropsUnresolvableEntries(t *testing.T) {
	registry := generators.Registry{
		"next_verse":   fixedGen("next_verse"),
		"missing_word": fixedGen("missing_word"),
	}
	catalog := BuildCatalog([]domain.ArchetypeConfig{
		{ID: "next_verse", MinLevel: 1, OptionsCount: 4, Active: true},
		{ID: "missing_word", MinLevel: 2, OptionsCount: 4, Active: false},
		{ID: "hologram_mode", MinLevel: 1, OptionsCount: 4, Active: true},
	}, registry)

	if catalog.Len() != 1 {
		t.Fatalf("expected 1 archetype, got %d", catalog.Len())
	}
	if _, ok := catalog.Lookup("next_verse"); !ok {
		t.Fatal("next_verse missing from catalog")
	}
	if _, ok := catalog.Lookup("missing_word"); ok {
		t.Fatal("inactive archetype survived the build")
	}
	if _, ok := catalog.Lookup("hologram_mode"); ok {
		t.Fatal("archetype without a generator survived the build")
	}
}

func TestBuildCatalogDefaultsArity(t *testing.T) {
	catalog := testCatalog(domain.ArchetypeConfig{ID: "next_verse", MinLevel: 1, Active: true})
	a, ok := catalog.Lookup("next_verse")
	if !ok {
		t.Fatal("lookup failed")
	}
	if a.Arity != 4 {
		t.Fatalf("expected default arity 4, got %d", a.Arity)
	}
}

func TestEligibleIsStableAndGated(t *testing.T) {
	catalog := testCatalog(
		domain.ArchetypeConfig{ID: "next_verse", MinLevel: 1, OptionsCount: 4, Active: true},
		domain.ArchetypeConfig{ID: "audio_recognition", MinLevel: 2, OptionsCount: 4, Active: true},
		domain.ArchetypeConfig{ID: "first_word", MinLevel: 3, OptionsCount: 4, Active: true},
	)

	got := catalog.Eligible(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 eligible archetypes at level 2, got %d", len(got))
	}
	if got[0].ID != "audio_recognition" || got[1].ID != "next_verse" {
		t.Fatalf("expected stable id order, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestCatalogProviderReplace(t *testing.T) {
	old := testCatalog(domain.ArchetypeConfig{ID: "next_verse", MinLevel: 1, OptionsCount: 4, Active: true})
	provider := NewCatalogProvider(old)

	rebuilt := testCatalog(
		domain.ArchetypeConfig{ID: "next_verse", MinLevel: 1, OptionsCount: 4, Active: true},
		domain.ArchetypeConfig{ID: "missing_word", MinLevel: 1, OptionsCount: 4, Active: true},
	)
	provider.Replace(rebuilt)

	if provider.Current().Len() != 2 {
		t.Fatalf("expected replaced catalog with 2 archetypes, got %d", provider.Current().Len())
	}
}
