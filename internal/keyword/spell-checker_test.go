package keyword

import (
	"errors"
	"testing"
)

// mockTermDictionary is a mock implementation of TermDictionary for testing.
type mockTermDictionary struct {
	terms        map[string]int // term -> frequency
	getAllError  error
	getFreqError error
	getAllCalls  int
}

func newMockTermDictionary(terms map[string]int) *mockTermDictionary {
	return &mockTermDictionary{terms: terms}
}

func (m *mockTermDictionary) GetAllTerms() ([]string, error) {
	m.getAllCalls++
	if m.getAllError != nil {
		return nil, m.getAllError
	}
	result := make([]string, 0, len(m.terms))
	for term := range m.terms {
		result = append(result, term)
	}
	return result, nil
}

func (m *mockTermDictionary) GetTermFrequency(term string) (int, error) {
	if m.getFreqError != nil {
		return 0, m.getFreqError
	}
	return m.terms[term], nil
}

func (m *mockTermDictionary) ContainsTerm(term string) (bool, error) {
	_, ok := m.terms[term]
	return ok, nil
}

func catalogTerms() map[string]int {
	return map[string]int{
		"playstation": 40,
		"console":     30,
		"controller":  25,
		"wireless":    20,
		"keyboard":    15,
		"ps5":         12,
		"ps4":         8,
	}
}

func TestSpellChecker_Defaults(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(nil))
	if sc.maxDistance != 2 || sc.minFreq != 1 || sc.maxSuggestions != 5 {
		t.Errorf("defaults = %d/%d/%d, want 2/1/5", sc.maxDistance, sc.minFreq, sc.maxSuggestions)
	}

	sc = NewSpellChecker(newMockTermDictionary(nil),
		WithMaxDistance(3),
		WithMinFrequency(5),
		WithMaxSuggestions(10),
		WithMaxDistance(-1),
	)
	if sc.maxDistance != 3 || sc.minFreq != 5 || sc.maxSuggestions != 10 {
		t.Errorf("options = %d/%d/%d, want 3/5/10", sc.maxDistance, sc.minFreq, sc.maxSuggestions)
	}
}

func TestSpellChecker_Suggest(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(catalogTerms()))

	tests := []struct {
		term      string
		wantFirst string
	}{
		{"playstaton", "playstation"},
		{"consle", "console"},
		{"contoller", "controller"},
		{"kyeboard", "keyboard"},
		{"xyzzy", ""},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			suggestions := sc.Suggest(tt.term)
			if tt.wantFirst == "" {
				if len(suggestions) != 0 {
					t.Errorf("Suggest(%q) = %v, want none", tt.term, suggestions)
				}
				return
			}
			if len(suggestions) == 0 || suggestions[0].Term != tt.wantFirst {
				t.Errorf("Suggest(%q) = %v, want first %q", tt.term, suggestions, tt.wantFirst)
			}
		})
	}
}

func TestSpellChecker_Suggest_RanksByFrequency(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{
		"ps5": 100,
		"ps4": 10,
		"ps3": 50,
	}), WithMaxDistance(1))

	suggestions := sc.Suggest("ps6")
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(suggestions))
	}
	want := []string{"ps5", "ps3", "ps4"}
	for i, w := range want {
		if suggestions[i].Term != w {
			t.Errorf("suggestions[%d] = %q, want %q", i, suggestions[i].Term, w)
		}
	}
}

func TestSpellChecker_Suggest_MinFrequency(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(map[string]int{
		"console": 1,
	}), WithMinFrequency(2))

	if got := sc.Suggest("consle"); len(got) != 0 {
		t.Errorf("rare term should be skipped, got %v", got)
	}
}

func TestSpellChecker_Check(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(catalogTerms()))

	tests := []struct {
		name           string
		query          string
		wantCorrected  string
		wantMisspelled int
	}{
		{"valid query", "wireless controller", "wireless controller", 0},
		{"single typo", "playstaton", "playstation", 1},
		{"two typos", "wireles contoller", "wireless controller", 2},
		{"case insensitive", "PS5 Console", "ps5 console", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := sc.Check(tt.query)
			if err != nil {
				t.Fatalf("Check(%q): %v", tt.query, err)
			}
			if result.CorrectedQuery != tt.wantCorrected {
				t.Errorf("CorrectedQuery = %q, want %q", result.CorrectedQuery, tt.wantCorrected)
			}
			if len(result.MisspelledTerms) != tt.wantMisspelled {
				t.Errorf("MisspelledTerms = %v, want %d", result.MisspelledTerms, tt.wantMisspelled)
			}
			if result.HasCorrections != (tt.wantMisspelled > 0) {
				t.Errorf("HasCorrections = %v", result.HasCorrections)
			}
		})
	}
}

func TestSpellChecker_SuggestPhrases(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(catalogTerms()))

	got, err := sc.SuggestPhrases("playstaton consle", 3, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0].Text != "playstation console" {
		t.Fatalf("SuggestPhrases = %+v, want fully corrected phrase first", got)
	}
	if len(got) > 3 {
		t.Errorf("expected at most 3 suggestions, got %d", len(got))
	}
	for i := 2; i < len(got); i++ {
		if got[i].Similarity > got[i-1].Similarity {
			t.Errorf("suggestions not sorted by similarity: %+v", got)
		}
	}
	seen := map[string]bool{}
	for _, s := range got {
		if seen[s.Text] {
			t.Errorf("duplicate suggestion %q", s.Text)
		}
		seen[s.Text] = true
		if s.Similarity < 0.3 || s.Similarity > 1 {
			t.Errorf("similarity %v out of range", s.Similarity)
		}
	}
}

func TestSpellChecker_SuggestPhrases_Edges(t *testing.T) {
	sc := NewSpellChecker(newMockTermDictionary(catalogTerms()))

	tests := []struct {
		name   string
		query  string
		max    int
		minSim float64
		want   int
	}{
		{"known terms", "wireless controller", 3, 0.3, 0},
		{"empty", "   ", 3, 0.3, 0},
		{"zero max", "playstaton", 0, 0.3, 0},
		{"too dissimilar", "playstaton", 3, 0.99, 0},
		{"single", "playstaton", 3, 0.3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sc.SuggestPhrases(tt.query, tt.max, tt.minSim)
			if err != nil {
				t.Fatal(err)
			}
			if got == nil {
				t.Fatal("expected a non-nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("SuggestPhrases(%q) = %+v, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestSpellChecker_CacheInvalidation(t *testing.T) {
	dict := newMockTermDictionary(map[string]int{"console": 3})
	sc := NewSpellChecker(dict)

	if !sc.IsMisspelled("keyboard") {
		t.Error("keyboard should be unknown")
	}
	dict.terms["keyboard"] = 2
	if !sc.IsMisspelled("keyboard") {
		t.Error("cache should still be in use before Invalidate")
	}
	sc.Invalidate()
	if sc.IsMisspelled("KEYBOARD") {
		t.Error("keyboard should be known after Invalidate")
	}
	if dict.getAllCalls != 2 {
		t.Errorf("GetAllTerms called %d times, want 2", dict.getAllCalls)
	}
}

func TestSpellChecker_DictionaryError(t *testing.T) {
	dict := newMockTermDictionary(nil)
	dict.getAllError = errors.New("index closed")
	sc := NewSpellChecker(dict)

	if _, err := sc.Check("ps5"); err == nil {
		t.Error("Check should return the dictionary error")
	}
	if _, err := sc.SuggestPhrases("ps5", 3, 0.3); err == nil {
		t.Error("SuggestPhrases should return the dictionary error")
	}
	if sc.Suggest("ps5") != nil {
		t.Error("Suggest should return nil on dictionary error")
	}
	if sc.IsMisspelled("ps5") {
		t.Error("IsMisspelled should be false on dictionary error")
	}
}
