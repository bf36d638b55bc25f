package keyword

import (
	"sort"
	"strings"
	"sync"
)

// TermSuggestion represents a spelling suggestion for a single term.
type TermSuggestion struct {
	Term      string  // The suggested term
	Distance  int     // Edit distance from the original term
	Frequency int     // Document frequency (popularity)
	Score     float64 // Combined score for ranking
}

// PhraseSuggestion is a corrected version of a whole search phrase.
type PhraseSuggestion struct {
	Text       string
	Similarity float64 // Similarity to the original phrase, in [0, 1]
	Frequency  int     // Lowest document frequency among replaced terms
}

// SpellCheckResult contains the result of spell checking a query.
type SpellCheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	Suggestions     []TermSuggestion
	HasCorrections  bool
	MisspelledTerms []string
}

// SpellChecker suggests corrections for search terms using the index term
// dictionary. Call Invalidate after the catalog changes.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int

	mu      sync.RWMutex
	terms   []string
	termSet map[string]struct{}
	valid   bool
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency sets the minimum document frequency for suggestions.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions to return per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a new SpellChecker with the given dictionary.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		termSet:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshCache reloads the term cache from the dictionary.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}

	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}

	s.mu.Lock()
	s.terms = terms
	s.termSet = set
	s.valid = true
	s.mu.Unlock()
	return nil
}

// Invalidate marks the term cache stale; the next lookup reloads it.
func (s *SpellChecker) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

func (s *SpellChecker) ensureCache() error {
	s.mu.RLock()
	valid := s.valid
	s.mu.RUnlock()
	if valid {
		return nil
	}
	return s.RefreshCache()
}

func (s *SpellChecker) known(term string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.termSet[strings.ToLower(term)]
	return ok
}

// Suggest returns spelling suggestions for a single term, best first.
func (s *SpellChecker) Suggest(term string) []TermSuggestion {
	if err := s.ensureCache(); err != nil {
		return nil
	}

	termLower := strings.ToLower(term)
	termLen := len([]rune(termLower))

	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()

	suggestions := make([]TermSuggestion, 0)
	for _, dictTerm := range terms {
		dictTermLower := strings.ToLower(dictTerm)
		if dictTermLower == termLower {
			continue
		}
		lenDiff := len([]rune(dictTermLower)) - termLen
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > s.maxDistance {
			continue
		}

		distance := EditDistance(termLower, dictTermLower)
		if distance > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(dictTerm)
		if err != nil || freq < s.minFreq {
			continue
		}
		suggestions = append(suggestions, TermSuggestion{
			Term:      dictTerm,
			Distance:  distance,
			Frequency: freq,
			Score:     float64(freq) / float64(distance+1),
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Term < suggestions[j].Term
	})
	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions
}

// IsMisspelled reports whether term is missing from the dictionary.
func (s *SpellChecker) IsMisspelled(term string) bool {
	if err := s.ensureCache(); err != nil {
		return false
	}
	return !s.known(term)
}

// Check checks a query for spelling errors and returns suggestions.
func (s *SpellChecker) Check(query string) (*SpellCheckResult, error) {
	if err := s.ensureCache(); err != nil {
		return nil, err
	}

	terms := tokenizeQuery(query)
	result := &SpellCheckResult{
		OriginalQuery:   query,
		Suggestions:     make([]TermSuggestion, 0),
		MisspelledTerms: make([]string, 0),
	}

	corrected := make([]string, 0, len(terms))
	for _, term := range terms {
		if s.known(term) {
			corrected = append(corrected, term)
			continue
		}
		suggestions := s.Suggest(term)
		if len(suggestions) == 0 {
			corrected = append(corrected, term)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, term)
		result.Suggestions = append(result.Suggestions, suggestions...)
		corrected = append(corrected, suggestions[0].Term)
	}

	result.CorrectedQuery = strings.Join(corrected, " ")
	return result, nil
}

// SuggestPhrases returns up to limit corrected phrases for query whose similarity
// to it is at least minSimilarity. The phrase with every unknown term corrected
// comes first, followed by single-term replacements ordered by similarity, then
// frequency. A query whose terms are all known yields none.
func (s *SpellChecker) SuggestPhrases(query string, limit int, minSimilarity float64) ([]PhraseSuggestion, error) {
	tokens := tokenizeQuery(query)
	if len(tokens) == 0 || limit <= 0 {
		return []PhraseSuggestion{}, nil
	}
	if err := s.ensureCache(); err != nil {
		return nil, err
	}

	original := strings.Join(tokens, " ")
	perToken := make([][]TermSuggestion, len(tokens))
	corrected := append([]string(nil), tokens...)
	correctedFreq := 0
	changed := false
	for i, t := range tokens {
		if s.known(t) {
			continue
		}
		perToken[i] = s.Suggest(t)
		if len(perToken[i]) == 0 {
			continue
		}
		best := perToken[i][0]
		corrected[i] = best.Term
		if !changed || best.Frequency < correctedFreq {
			correctedFreq = best.Frequency
		}
		changed = true
	}

	seen := map[string]struct{}{original: {}}
	out := make([]PhraseSuggestion, 0)
	add := func(words []string, freq int) {
		text := strings.Join(words, " ")
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		sim := Similarity(original, text)
		if sim < minSimilarity {
			return
		}
		out = append(out, PhraseSuggestion{Text: text, Similarity: sim, Frequency: freq})
	}

	if changed {
		add(corrected, correctedFreq)
	}
	head := len(out)
	for i, suggestions := range perToken {
		for _, sg := range suggestions {
			words := append([]string(nil), tokens...)
			words[i] = sg.Term
			add(words, sg.Frequency)
		}
	}

	rest := out[head:]
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].Similarity != rest[j].Similarity {
			return rest[i].Similarity > rest[j].Similarity
		}
		return rest[i].Frequency > rest[j].Frequency
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
