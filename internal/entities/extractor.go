// Package entities extracts named entities from event text with a
// gazetteer and surface rules. Labels follow the common NER set:
// PERSON, ORG, GPE, LOC, NORP, FAC and EVENT.
package entities

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/events"
)

// Labels emitted by the extractor.
const (
	LabelPerson   = "PERSON"
	LabelOrg      = "ORG"
	LabelGPE      = "GPE"
	LabelLocation = "LOC"
	LabelNORP     = "NORP"
	LabelFacility = "FAC"
	LabelEvent    = "EVENT"
)

// Extractor finds entities in free text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]events.Entity, error)
}

// RuleExtractor implements Extractor without a statistical model.
type RuleExtractor struct {
	lexicon   map[string]string
	maxWords  int
	inputCap  int
	wordRegex *regexp.Regexp
}

var _ Extractor = (*RuleExtractor)(nil)

// NewRuleExtractor builds the default extractor.
func NewRuleExtractor() *RuleExtractor {
	x := &RuleExtractor{
		lexicon:   make(map[string]string),
		inputCap:  constants.EntityInputCap,
		wordRegex: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’.\-][\p{L}\p{N}]+)*`),
	}
	add := func(label string, names []string) {
		for _, n := range names {
			x.lexicon[n] = label
			x.maxWords = max(x.maxWords, len(strings.Fields(n)))
		}
	}
	add(LabelLocation, locations)
	add(LabelGPE, cities)
	add(LabelGPE, countries)
	add(LabelNORP, nationalities)
	add(LabelOrg, organizations)
	return x
}

type word struct {
	text  string
	start int
	end   int
}

// Extract implements Extractor. Input beyond the cap is ignored, results are
// unique on (name, label), and single-character names are dropped.
func (x *RuleExtractor) Extract(ctx context.Context, text string) ([]events.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text = capRunes(text, x.inputCap)

	seen := make(map[[2]string]struct{})
	out := make([]events.Entity, 0)
	emit := func(name, label string) {
		name = strings.Trim(name, ".,;:'’-")
		if utf8.RuneCountInString(name) <= 1 {
			return
		}
		key := [2]string{name, label}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, events.Entity{Name: name, Type: label})
	}

	for _, phrase := range x.phrases(text) {
		x.classify(phrase, text, emit)
	}
	return out, nil
}

// phrases groups runs of capitalized words, allowing lowercase connectors
// such as "of" between them.
func (x *RuleExtractor) phrases(text string) [][]word {
	locs := x.wordRegex.FindAllStringIndex(text, -1)
	var (
		out     [][]word
		current []word
	)
	flush := func() {
		for len(current) > 0 && isConnector(current[len(current)-1].text) {
			current = current[:len(current)-1]
		}
		if len(current) > 0 {
			out = append(out, current)
		}
		current = nil
	}

	for i, loc := range locs {
		w := word{text: text[loc[0]:loc[1]], start: loc[0], end: loc[1]}
		if i > 0 && breaksPhrase(text[locs[i-1][1]:loc[0]], text[locs[i-1][0]:locs[i-1][1]]) {
			flush()
		}
		switch {
		case isLeadingStopword(w.text):
			flush()
		case isCapitalized(w.text):
			current = append(current, w)
		case isConnector(w.text) && len(current) > 0:
			current = append(current, w)
		default:
			flush()
		}
	}
	flush()
	return out
}

func (x *RuleExtractor) classify(phrase []word, text string, emit func(name, label string)) {
	name := text[phrase[0].start:phrase[len(phrase)-1].end]

	if label, ok := x.lexicon[name]; ok {
		emit(name, label)
		return
	}

	if title, rest := splitTitle(phrase); title != "" && len(rest) > 0 && len(rest) <= 3 {
		emit(text[rest[0].start:rest[len(rest)-1].end], LabelPerson)
		return
	}

	last := phrase[len(phrase)-1].text
	if len(phrase) > 1 {
		lastTwo := phrase[len(phrase)-2].text + " " + last
		if hasSuffix(facilitySuffixes, lastTwo) {
			emit(name, LabelFacility)
			return
		}
	}
	switch {
	case len(phrase) > 1 && hasSuffix(facilitySuffixes, last):
		emit(name, LabelFacility)
		return
	case len(phrase) > 1 && hasSuffix(eventSuffixes, last):
		emit(name, LabelEvent)
		return
	case len(phrase) > 1 && hasSuffix(orgSuffixes, last):
		emit(name, LabelOrg)
		return
	case strings.HasPrefix(name, "Ministry of ") || strings.HasPrefix(name, "Department of "):
		emit(name, LabelOrg)
		return
	}

	// Fall back to the longest lexicon matches inside the phrase.
	for i := 0; i < len(phrase); {
		matched := false
		for n := min(x.maxWords, len(phrase)-i); n >= 1; n-- {
			sub := text[phrase[i].start:phrase[i+n-1].end]
			if label, ok := x.lexicon[sub]; ok {
				emit(sub, label)
				i += n
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
}

func splitTitle(phrase []word) (string, []word) {
	for n := 2; n >= 1; n-- {
		if len(phrase) <= n {
			continue
		}
		parts := make([]string, n)
		for i := range parts {
			parts[i] = phrase[i].text
		}
		candidate := strings.Join(parts, " ")
		for _, t := range personTitles {
			if candidate == t {
				return t, phrase[n:]
			}
		}
	}
	return "", nil
}

func hasSuffix(list []string, s string) bool {
	for _, v := range list {
		if s == v {
			return true
		}
	}
	return false
}

func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func isConnector(s string) bool {
	switch s {
	case "of", "the", "de", "del", "al", "el":
		return true
	}
	return false
}

func isLeadingStopword(s string) bool {
	_, ok := leadingStopwords[s]
	return ok
}

// breaksPhrase reports whether the gap after prev ends a phrase.
func breaksPhrase(gap, prev string) bool {
	if strings.ContainsAny(gap, ",;:()[]\"!?\n/|") || strings.Contains(gap, " - ") {
		return true
	}
	if strings.Contains(gap, ".") {
		_, abbrev := abbreviations[prev]
		return !abbrev
	}
	return false
}

func capRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
