// Package responder generates personality-styled chat replies.
package responder

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/internal/risk"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
)

const (
	// scoreThreshold is the minimum pattern score; below it the
	// generator falls back to topic templates.
	scoreThreshold = 2.0

	// styleMarkerChance is the probability of appending one style
	// marker (emoji or punctuation habit) to humanize a reply.
	styleMarkerChance = 0.3
)

// Generator produces replies from a user message and an optional
// personality profile. Generation is pure per call; the profile is
// never mutated.
type Generator struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	logger *logger.Logger
}

// NewGenerator creates a generator with the given randomness source so
// tests can pin selection deterministically.
func NewGenerator(src rand.Source, log *logger.Logger) *Generator {
	return &Generator{
		rnd:    rand.New(src),
		logger: log,
	}
}

// Generate builds a reply for userMessage. profile may be nil, history
// may be empty; the reply message is never empty.
func (g *Generator) Generate(userMessage string, history []model.ChatTurn, profile *model.PersonalityProfile) model.Reply {
	message := g.patternReply(userMessage, profile)
	if message == "" {
		message = g.topicReply(userMessage)
	}
	if message == "" {
		message = g.genericReply(profile)
	}
	message = g.applyStyle(message, profile)

	assessment := risk.Scan(userMessage)

	return model.Reply{
		Message:            message,
		SupportiveActions:  suggestActions(userMessage),
		RiskLevel:          assessment.Level,
		EscalationRequired: assessment.EscalationRequired,
	}
}

// patternReply scores every conversation pattern against the message and
// answers from the best one if it clears the threshold.
func (g *Generator) patternReply(userMessage string, profile *model.PersonalityProfile) string {
	if profile == nil || len(profile.ResponsePatterns) == 0 {
		return ""
	}

	lower := strings.ToLower(userMessage)
	words := make(map[string]bool)
	for _, w := range strings.Fields(stripPunct(lower)) {
		words[w] = true
	}

	var best *model.ConversationPattern
	bestScore := 0.0
	for i := range profile.ResponsePatterns {
		p := &profile.ResponsePatterns[i]
		score := 0.0
		for _, kw := range p.Keywords {
			if words[kw] {
				score += 3
			} else if strings.Contains(lower, kw) {
				score += 2
			}
		}
		if score == 0 {
			continue
		}
		score += 0.5 * float64(p.Frequency)
		if score > bestScore {
			bestScore = score
			best = p
		}
	}

	if best == nil || bestScore <= scoreThreshold {
		return ""
	}

	response := best.Responses[g.intn(len(best.Responses))]
	return response + sentimentTrailers[best.Sentiment]
}

// topicReply matches the message against the fixed topic tables and
// returns a templated response.
func (g *Generator) topicReply(userMessage string) string {
	topic := matchTopic(userMessage)
	if topic == "" {
		return ""
	}
	templates := topicTemplates[topic]
	return templates[g.intn(len(templates))]
}

// genericReply is the last resort: a supportive template, built from the
// profile's common phrases when available.
func (g *Generator) genericReply(profile *model.PersonalityProfile) string {
	base := genericTemplates[g.intn(len(genericTemplates))]
	if profile != nil && len(profile.CommonPhrases) > 0 && g.chance(0.5) {
		phrase := profile.CommonPhrases[g.intn(len(profile.CommonPhrases))]
		return base + " You often mention \"" + phrase + "\" — is that part of it?"
	}
	return base
}

// applyStyle probabilistically appends one style marker. Cosmetic only;
// it never alters the semantic content of the reply.
func (g *Generator) applyStyle(message string, profile *model.PersonalityProfile) string {
	if profile == nil || !g.chance(styleMarkerChance) {
		return message
	}

	markers := make([]string, 0, len(profile.Style.Emojis)+len(profile.Style.PunctuationMarks))
	markers = append(markers, profile.Style.Emojis...)
	markers = append(markers, profile.Style.PunctuationMarks...)
	if len(markers) == 0 {
		return message
	}

	marker := markers[g.intn(len(markers))]
	if strings.HasPrefix(marker, ".") || strings.HasPrefix(marker, "!") || strings.HasPrefix(marker, "?") {
		return message + marker
	}
	return message + " " + marker
}

// suggestActions runs an independent keyword scan over the message and
// returns category-specific suggestions, or the generic fallback. The
// result is never empty.
func suggestActions(userMessage string) []string {
	lower := strings.ToLower(userMessage)
	for _, category := range actionCategories {
		for _, kw := range category.keywords {
			if strings.Contains(lower, kw) {
				return append([]string(nil), category.actions...)
			}
		}
	}
	return append([]string(nil), genericActions...)
}

// matchTopic mirrors the extractor's topic tables for fallback replies.
func matchTopic(userMessage string) string {
	lower := strings.ToLower(userMessage)
	for topic, kws := range topicKeywords {
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				return topic
			}
		}
	}
	return ""
}

// topicKeywords is ordered lookup data for matchTopic; iteration order of
// the map does not matter because topics are disjoint enough in practice
// and any single match yields a sensible template.
var topicKeywords = map[string][]string{
	"study":    {"exam", "study", "class", "homework", "assignment", "test", "lecture", "grade"},
	"tech":     {"code", "computer", "app", "software", "phone", "laptop", "bug"},
	"health":   {"sick", "doctor", "sleep", "tired", "gym", "workout", "headache"},
	"social":   {"party", "friend", "movie", "dinner", "weekend", "birthday"},
	"work":     {"work", "job", "office", "boss", "meeting", "deadline"},
	"personal": {"family", "mom", "dad", "love", "feel", "miss", "home"},
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '\'':
			return r
		}
		return ' '
	}, s)
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Intn(n)
}

func (g *Generator) chance(p float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64() < p
}
