package classifier

import (
	"context"
	"strings"
	"unicode"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	"github.com/zatekoja/clinicaltriage/pkg/utils"
)

const keywordModel = "keyword-v1"

// KeywordRule scores a symptom phrase towards one priority. Phrases are
// matched word by word on folded text; each phrase word matches as a prefix,
// so "convulsion" also matches "convulsiones".
type KeywordRule struct {
	Phrase   string
	Priority entities.Priority
	Weight   float64
}

// DefaultKeywordRules is a small Spanish symptom lexicon.
var DefaultKeywordRules = []KeywordRule{
	{"no respira", entities.PriorityImmediate, 3},
	{"paro", entities.PriorityImmediate, 2.5},
	{"inconsciente", entities.PriorityImmediate, 3},
	{"no responde", entities.PriorityImmediate, 3},
	{"convulsion", entities.PriorityImmediate, 2.5},
	{"hemorragia", entities.PriorityImmediate, 2.5},
	{"sangrado abundante", entities.PriorityImmediate, 3},
	{"dolor en el pecho", entities.PriorityImmediate, 2.5},
	{"dolor toracico", entities.PriorityImmediate, 2.5},
	{"infarto", entities.PriorityImmediate, 3},
	{"ictus", entities.PriorityImmediate, 3},
	{"anafilaxia", entities.PriorityImmediate, 3},
	{"labios azules", entities.PriorityImmediate, 3},
	{"atragant", entities.PriorityImmediate, 2.5},

	{"dificultad para respirar", entities.PriorityVeryUrgent, 2.5},
	{"disnea", entities.PriorityVeryUrgent, 2.5},
	{"ahogo", entities.PriorityVeryUrgent, 2},
	{"fiebre muy alta", entities.PriorityVeryUrgent, 2},
	{"dolor intenso", entities.PriorityVeryUrgent, 2},
	{"desmayo", entities.PriorityVeryUrgent, 2},
	{"vomitos con sangre", entities.PriorityVeryUrgent, 2.5},
	{"confusion", entities.PriorityVeryUrgent, 2},
	{"quemadura grave", entities.PriorityVeryUrgent, 2.5},
	{"fractura abierta", entities.PriorityVeryUrgent, 2.5},

	{"fiebre", entities.PriorityUrgent, 1.5},
	{"vomito", entities.PriorityUrgent, 1.5},
	{"fractura", entities.PriorityUrgent, 1.5},
	{"dolor abdominal", entities.PriorityUrgent, 1.5},
	{"deshidrat", entities.PriorityUrgent, 1.5},
	{"herida profunda", entities.PriorityUrgent, 1.5},
	{"quemadura", entities.PriorityUrgent, 1.5},
	{"mareo", entities.PriorityUrgent, 1},

	{"tos", entities.PriorityLessUrgent, 1.5},
	{"dolor de garganta", entities.PriorityLessUrgent, 1.5},
	{"esguince", entities.PriorityLessUrgent, 1.5},
	{"dolor de oido", entities.PriorityLessUrgent, 1.5},
	{"diarrea", entities.PriorityLessUrgent, 1.5},
	{"erupcion", entities.PriorityLessUrgent, 1},
	{"dolor de espalda", entities.PriorityLessUrgent, 1.5},

	{"resfriado", entities.PriorityNonUrgent, 1.5},
	{"mocos", entities.PriorityNonUrgent, 1.5},
	{"picor", entities.PriorityNonUrgent, 1.5},
	{"receta", entities.PriorityNonUrgent, 2},
	{"revision", entities.PriorityNonUrgent, 1.5},
	{"certificado", entities.PriorityNonUrgent, 2},
	{"herida leve", entities.PriorityNonUrgent, 1.5},
}

// keywordPrior leans an empty or unmatched description towards the least urgent class.
var keywordPrior = [entities.PriorityLevels]float64{0, 0, 0, 0.2, 0.5}

type compiledRule struct {
	words    []string
	priority entities.Priority
	weight   float64
}

// KeywordClassifier is a deterministic, local stand-in for the remote model,
// used when no inference endpoint is configured.
type KeywordClassifier struct {
	rules []compiledRule
}

// NewKeywordClassifier compiles the rules; nil selects DefaultKeywordRules
func NewKeywordClassifier(rules []KeywordRule) providers.ClassifierExplainer {
	if rules == nil {
		rules = DefaultKeywordRules
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		words := tokenize(r.Phrase)
		if len(words) == 0 || !r.Priority.Valid() || r.Weight <= 0 {
			continue
		}
		compiled = append(compiled, compiledRule{words: words, priority: r.Priority, weight: r.Weight})
	}
	return &KeywordClassifier{rules: compiled}
}

type ruleMatch struct {
	rule  *compiledRule
	start int
}

// Predict scores the description against the lexicon
func (c *KeywordClassifier) Predict(ctx context.Context, text string) (*entities.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pred, _ := c.score(tokenize(text))
	return pred, nil
}

// Explain attributes the predicted class to the words that matched phrases.
// Words matching phrases of other classes count against it.
func (c *KeywordClassifier) Explain(ctx context.Context, text string) (*entities.Explanation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := splitWords(text)
	folded := make([]string, len(words))
	for i, w := range words {
		folded[i] = utils.NormalizeText(w)
	}

	pred, matches := c.score(folded)

	scores := make([]float64, len(words))
	for _, m := range matches {
		share := m.rule.weight / float64(len(m.rule.words))
		if m.rule.priority != pred.Priority {
			share = -share / float64(entities.PriorityLevels-1)
		}
		for k := range m.rule.words {
			scores[m.start+k] += share
		}
	}

	tokens := make([]entities.TokenAttribution, len(words))
	for i, w := range words {
		tokens[i] = entities.TokenAttribution{Token: w, Score: scores[i]}
	}

	return &entities.Explanation{
		Text:     text,
		Priority: pred.Priority,
		Tokens:   CleanAttributions(tokens),
		Model:    pred.Model,
	}, nil
}

func (c *KeywordClassifier) score(words []string) (*entities.Prediction, []ruleMatch) {
	raw := make([]float64, entities.PriorityLevels)
	copy(raw, keywordPrior[:])

	var matches []ruleMatch
	for i := range c.rules {
		rule := &c.rules[i]
		for start := 0; start+len(rule.words) <= len(words); start++ {
			if matchesAt(words, start, rule.words) {
				raw[rule.priority-1] += rule.weight
				matches = append(matches, ruleMatch{rule: rule, start: start})
			}
		}
	}

	softmax(raw)
	// the distribution is valid by construction
	pred, _ := newPrediction(raw, keywordModel)
	return pred, matches
}

func matchesAt(words []string, start int, phrase []string) bool {
	for k, p := range phrase {
		if !strings.HasPrefix(words[start+k], p) {
			return false
		}
	}
	return true
}

// splitWords splits on anything that is not a letter or digit, keeping the
// original spelling of each word.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenize(text string) []string {
	words := splitWords(text)
	for i, w := range words {
		words[i] = utils.NormalizeText(w)
	}
	return words
}
