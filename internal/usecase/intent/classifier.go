// Package intent classifies user utterances into conversational intents
// with bilingual (Spanish/English) pattern groups. Patterns are heuristic
// anchors, not an exhaustive lexicon.
package intent

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	domintent "github.com/kailas-cloud/grantix/internal/domain/intent"
)

// DefaultMinInformativeTokens is the clarification threshold: utterances
// with fewer informative tokens and no session context need clarification.
const DefaultMinInformativeTokens = 2

const greetAlt = `(?:hola|buen[oa]s(?:\s+(?:d[ií]as|tardes|noches))?|saludos|hey|hi|hello|` +
	`good\s+(?:morning|afternoon|evening)|qu[eé]\s+tal|c[oó]mo\s+est[aá]s?|` +
	`gracias|muchas\s+gracias|thanks|thank\s+you|adi[oó]s|hasta\s+luego|bye|goodbye)`

var (
	greetingPattern = regexp.MustCompile(`(?i)^[¡¿!?\s]*` + greetAlt + `(?:[\s,.!?¡¿]+` + greetAlt + `)*[\s,.!?¡¿]*$`)

	comparePattern = regexp.MustCompile(`(?i)\bvs\.?\b|\bversus\b|\bcomp[aá]r[aei]|` +
		`\bwhich (?:one )?is better\b|\bcu[aá]l es mejor\b|\bdiferencias? entre\b|` +
		`\bdifference between\b|\bmejor entre\b|\bfrente a\b`)

	explainPattern = regexp.MustCompile(`(?i)\bqu[eé] es\b|\bqu[eé] significa\b|\bqu[eé] quiere decir\b|` +
		`\bwhat is\b|\bwhat does\b.*\bmean\b|\bexpl[ií]ca|\bexplain\b|` +
		`\bdefinici[oó]n\b|\bdefine\b|\bdefinition\b|\bc[oó]mo funciona\b|\bhow does\b.*\bwork\b`)

	recommendPattern = regexp.MustCompile(`(?i)\brecomi[eé]nd|\brecomendaci[oó]n|\brecommend|` +
		`\bsugi[ée]re|\bsugerencia|\bsuggest|\bme conviene\b|\bnos conviene\b|` +
		`\bshould i apply\b|\badecuad[ao]s? para\b|\bwhich .{0,40}(?:should i|suits|fits)\b`)

	offTopicPattern = regexp.MustCompile(`(?i)\bqu[eé] tiempo\b|\btiempo\s+(?:que\s+)?hace\b|\bclima\b|\bweather\b|` +
		`\breceta\b|\brecipe\b|\bf[uú]tbol\b|\bfootball\b|\bchiste\b|\bjoke\b|` +
		`\bhor[oó]scopo\b|\bhoroscope\b|\bloter[ií]a\b|\blottery\b|\bcapital (?:de|of)\b`)

	// Catalog vocabulary anchors the utterance on topic even when an
	// off-topic token appears.
	catalogAnchorPattern = regexp.MustCompile(`(?i)ayuda|subvenci|convocatoria|beca|grant|funding|financiaci|bdns`)
)

// Record identifier patterns: an explicit reference keyword or hash mark
// followed by 4-8 digits, or a bare 5-8 digit token.
var (
	keywordIDPattern = regexp.MustCompile(`(?i)\b(?:bdns|convocatoria|grant|expediente)\b[^\d]{0,12}(\d{4,8})\b`)
	hashIDPattern    = regexp.MustCompile(`#\s?(\d{4,8})\b`)
	bareIDPattern    = regexp.MustCompile(`(^|[\s,.:;¿¡(])(\d{5,8})($|[\s,.:;!?)])`)
	currencyPattern  = regexp.MustCompile(`(?i)^\s*(?:€|euros?\b|eur\b)`)
)

// Informative-token stopwords three runes or longer; shorter tokens are
// dropped by the length check alone.
var stopwords = map[string]struct{}{
	"del": {}, "los": {}, "las": {}, "una": {}, "unos": {}, "unas": {},
	"que": {}, "qué": {}, "por": {}, "para": {}, "con": {}, "sin": {},
	"sobre": {}, "hay": {}, "este": {}, "esta": {}, "esto": {},
	"the": {}, "and": {}, "for": {}, "are": {}, "any": {}, "there": {},
}

// Classifier assigns exactly one intent per utterance. Classification
// order: record-id lookup, greeting, analytical intents (compare, explain,
// recommend), off-topic, low-signal clarification, search fallback.
type Classifier struct {
	minInformativeTokens int
}

// NewClassifier creates a classifier. Non-positive thresholds take the default.
func NewClassifier(minInformativeTokens int) *Classifier {
	if minInformativeTokens <= 0 {
		minInformativeTokens = DefaultMinInformativeTokens
	}
	return &Classifier{minInformativeTokens: minInformativeTokens}
}

// Classify assigns the intent for an utterance. hasActiveSession suppresses
// the low-signal clarification branch, so short follow-ups keep searching.
func (c *Classifier) Classify(utterance string, hasActiveSession bool) domintent.Intent {
	norm := strings.ToLower(strings.TrimSpace(utterance))
	if norm == "" {
		if hasActiveSession {
			return domintent.Search
		}
		return domintent.ClarificationNeeded
	}

	// An explicit record id outranks greeting phrasing: "hola, mira la
	// convocatoria 123456" is a lookup, not small talk.
	if _, ok := ExtractID(norm); ok {
		return domintent.LookupByID
	}
	if greetingPattern.MatchString(norm) {
		return domintent.Greeting
	}

	// Analytical intents carry enough signal on their own and are checked
	// before the length-based clarification branch.
	switch {
	case comparePattern.MatchString(norm):
		return domintent.Compare
	case explainPattern.MatchString(norm):
		return domintent.Explain
	case recommendPattern.MatchString(norm):
		return domintent.Recommend
	}

	if offTopicPattern.MatchString(norm) && !catalogAnchorPattern.MatchString(norm) {
		return domintent.OutOfScope
	}

	if !hasActiveSession && c.informativeTokens(norm) < c.minInformativeTokens {
		return domintent.ClarificationNeeded
	}
	return domintent.Search
}

// ExtractID pulls an announcement identifier out of an utterance. Bare
// digit tokens directly followed by a currency marker are amounts, not ids.
func ExtractID(utterance string) (string, bool) {
	if m := keywordIDPattern.FindStringSubmatch(utterance); m != nil {
		return m[1], true
	}
	if m := hashIDPattern.FindStringSubmatch(utterance); m != nil {
		return m[1], true
	}
	for _, idx := range bareIDPattern.FindAllStringSubmatchIndex(utterance, -1) {
		id := utterance[idx[4]:idx[5]]
		if currencyPattern.MatchString(utterance[idx[5]:]) {
			continue
		}
		return id, true
	}
	return "", false
}

func (c *Classifier) informativeTokens(norm string) int {
	tokens := strings.FieldsFunc(norm, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	n := 0
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < 3 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		n++
	}
	return n
}
