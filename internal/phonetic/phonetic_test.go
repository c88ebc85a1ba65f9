package phonetic_test

import (
	"testing"

	"github.com/karaokeforge/lyrsync/internal/phonetic"
)

func TestFoldTable(t *testing.T) {
	t.Parallel()

	fold := phonetic.DefaultFoldTable()
	tests := []struct {
		in, want string
	}{
		{"Monáe", "monae"},
		{"VOCÊ", "voce"},
		{"coração", "coracao"},
		{"Janelle", "janelle"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := fold.Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestDistance_Bounds(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	pairs := [][2]string{
		{"janela", "Janelle"},
		{"casa", "Janelle"},
		{"", "something"},
		{"", ""},
		{"idêntico", "identico"},
	}
	for _, p := range pairs {
		d := m.Distance(p[0], p[1])
		if d < 0 || d > 1 {
			t.Errorf("Distance(%q, %q) = %f; want within [0, 1]", p[0], p[1], d)
		}
	}

	if d := m.Distance("idêntico", "identico"); d != 0 {
		t.Errorf("Distance of fold-identical words = %f; want 0", d)
	}
	if d := m.Distance("", ""); d != 0 {
		t.Errorf("Distance of empty words = %f; want 0", d)
	}
}

func TestDistance_JanelaJanelle(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	if d := m.Distance("janela", "Janelle"); d > 0.3 {
		t.Errorf("Distance(janela, Janelle) = %f; want ≤ 0.3", d)
	}
}

func TestAreSimilar(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	if !m.AreSimilar("janela", "Janelle", 0.3) {
		t.Error("AreSimilar(janela, Janelle, 0.3) = false; want true")
	}
	if m.AreSimilar("casa", "Janelle", 0.3) {
		t.Error("AreSimilar(casa, Janelle, 0.3) = true; want false")
	}
	// Zero threshold falls back to the configured default (0.3).
	if !m.AreSimilar("janela", "Janelle", 0) {
		t.Error("AreSimilar with default threshold = false; want true")
	}
}

func TestBestMatch(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	candidates := []string{"Vagalumes", "Janelle", "Monáe", "Pollo"}

	t.Run("phonetic candidate wins", func(t *testing.T) {
		t.Parallel()
		got, dist, ok := m.BestMatch("janela", candidates, 0.3)
		if !ok {
			t.Fatal("BestMatch(janela) found no match")
		}
		if got != "Janelle" {
			t.Errorf("BestMatch(janela) = %q (distance %f); want Janelle", got, dist)
		}
	})

	t.Run("monê resolves to Monáe", func(t *testing.T) {
		t.Parallel()
		got, _, ok := m.BestMatch("monê", candidates, 0.3)
		if !ok || got != "Monáe" {
			t.Errorf("BestMatch(monê) = %q, %v; want Monáe, true", got, ok)
		}
	})

	t.Run("dissimilar word has no match", func(t *testing.T) {
		t.Parallel()
		if got, _, ok := m.BestMatch("acontecer", candidates, 0.3); ok {
			t.Errorf("BestMatch(acontecer) = %q; want no match", got)
		}
	})

	t.Run("empty inputs", func(t *testing.T) {
		t.Parallel()
		if _, _, ok := m.BestMatch("", candidates, 0.3); ok {
			t.Error("BestMatch with empty word reported a match")
		}
		if _, _, ok := m.BestMatch("janela", nil, 0.3); ok {
			t.Error("BestMatch with no candidates reported a match")
		}
	})
}

func TestBestMatch_Deterministic(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	candidates := []string{"Janelle", "Janela"}
	first, _, _ := m.BestMatch("janella", candidates, 0.5)
	for range 10 {
		got, _, _ := m.BestMatch("janella", candidates, 0.5)
		if got != first {
			t.Fatalf("BestMatch not deterministic: %q then %q", first, got)
		}
	}
}
