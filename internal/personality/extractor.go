// Package personality derives communication-personality profiles from
// parsed chat transcripts.
package personality

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
)

const (
	maxPhrases       = 15
	maxEmojis        = 10
	maxPunctuation   = 5
	maxFragments     = 8
	maxTopicExamples = 10
	maxKeywords      = 5
	maxContext       = 5
)

// ErrNoMessages is returned when extraction is attempted on an empty
// message list.
var ErrNoMessages = errors.New("no messages to extract from")

// Extractor builds personality profiles from transcript messages.
type Extractor struct {
	logger *logger.Logger
}

// NewExtractor creates a new extractor.
func NewExtractor(log *logger.Logger) *Extractor {
	return &Extractor{logger: log}
}

// senderAccum accumulates per-sender statistics during a single pass.
type senderAccum struct {
	name       string
	order      int // first-seen position, used as merge tie-break
	phraseFreq map[string]int
	style      model.CommunicationStyle
	topics     map[string][]string
	patterns   []model.ConversationPattern
	count      int
}

// Extract consumes parsed messages and builds a PersonalityProfile.
// With multiple senders the one with the most retained response patterns
// becomes the base profile; phrases and emoji sets from all senders are
// unioned. Ties go to the first-seen sender.
func (e *Extractor) Extract(messages []model.ChatMessage) (*model.PersonalityProfile, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	bySender := make(map[string]*senderAccum)
	var senderOrder []string

	for _, msg := range messages {
		acc, ok := bySender[msg.Sender]
		if !ok {
			acc = &senderAccum{
				name:       msg.Sender,
				order:      len(senderOrder),
				phraseFreq: make(map[string]int),
				topics:     make(map[string][]string),
			}
			bySender[msg.Sender] = acc
			senderOrder = append(senderOrder, msg.Sender)
		}
		acc.count++

		if msg.IsMedia {
			continue
		}

		accumulatePhrases(acc.phraseFreq, msg.Content)
		accumulateStyle(&acc.style, msg.Content)

		if topic := classifyTopic(msg.Content); topic != "" {
			if len(acc.topics[topic]) < maxTopicExamples {
				acc.topics[topic] = append(acc.topics[topic], msg.Content)
			}
		}
	}

	buildPatterns(messages, bySender)

	// Drop single-occurrence clusters: one stimulus-response pair is
	// noise, not a pattern.
	for _, acc := range bySender {
		retained := acc.patterns[:0]
		for _, p := range acc.patterns {
			if p.Frequency > 1 {
				retained = append(retained, p)
			}
		}
		acc.patterns = retained
	}

	base := pickBase(bySender, senderOrder)

	profile := &model.PersonalityProfile{
		Name:             base.name,
		CommonPhrases:    rankedPhrases(base.phraseFreq, maxPhrases),
		ResponsePatterns: base.patterns,
		Style:            base.style,
		Topics:           base.topics,
		MessageCount:     len(messages),
	}

	// Union phrases and emoji across the remaining senders.
	for _, name := range senderOrder {
		acc := bySender[name]
		if acc == base {
			continue
		}
		for _, phrase := range rankedPhrases(acc.phraseFreq, maxPhrases) {
			profile.CommonPhrases = appendUnique(profile.CommonPhrases, phrase, maxPhrases)
		}
		for _, emoji := range acc.style.Emojis {
			profile.Style.Emojis = appendUnique(profile.Style.Emojis, emoji, maxEmojis)
		}
	}

	e.logger.Info("personality extracted",
		zap.String("base_sender", base.name),
		zap.Int("senders", len(senderOrder)),
		zap.Int("messages", len(messages)),
		zap.Int("patterns", len(profile.ResponsePatterns)),
		zap.Int("phrases", len(profile.CommonPhrases)),
	)

	return profile, nil
}

// accumulatePhrases counts single words and two-word phrases.
func accumulatePhrases(freq map[string]int, content string) {
	words := tokenize(content)
	for _, w := range words {
		if !stopWords[w] && len(w) >= 3 {
			freq[w]++
		}
	}
	for i := 0; i+1 < len(words); i++ {
		if stopWords[words[i]] && stopWords[words[i+1]] {
			continue
		}
		freq[words[i]+" "+words[i+1]]++
	}
}

// accumulateStyle captures emoji, repeated punctuation, and exclamatory
// or interrogative fragments from the raw (unstripped) content.
func accumulateStyle(style *model.CommunicationStyle, content string) {
	for _, emoji := range extractEmojis(content) {
		style.Emojis = appendUnique(style.Emojis, emoji, maxEmojis)
	}
	for _, mark := range repeatedPunct.FindAllString(content, -1) {
		style.PunctuationMarks = appendUnique(style.PunctuationMarks, mark, maxPunctuation)
	}
	for _, fragment := range splitFragments(content) {
		switch fragment[len(fragment)-1] {
		case '!':
			style.Exclamations = appendUnique(style.Exclamations, fragment, maxFragments)
		case '?':
			style.Questions = appendUnique(style.Questions, fragment, maxFragments)
		}
	}
}

// buildPatterns walks adjacent message pairs and clusters them by shared
// stimulus keywords. Each pattern is attributed to the sender of the
// response so that merge can pick the dominant responder.
func buildPatterns(messages []model.ChatMessage, bySender map[string]*senderAccum) {
	for i := 0; i+1 < len(messages); i++ {
		stimulus, response := messages[i], messages[i+1]
		if stimulus.IsMedia || response.IsMedia {
			continue
		}

		kws := keywords(stimulus.Content, maxKeywords)
		if len(kws) == 0 {
			continue
		}

		acc := bySender[response.Sender]
		merged := false
		for pi := range acc.patterns {
			if sharesKeyword(acc.patterns[pi].Keywords, kws) {
				acc.patterns[pi].Responses = append(acc.patterns[pi].Responses, response.Content)
				acc.patterns[pi].Context = appendUnique(acc.patterns[pi].Context, stimulus.Content, maxContext)
				acc.patterns[pi].Frequency++
				merged = true
				break
			}
		}
		if !merged {
			acc.patterns = append(acc.patterns, model.ConversationPattern{
				Keywords:  kws,
				Responses: []string{response.Content},
				Context:   []string{stimulus.Content},
				Sentiment: inferSentiment(response.Content),
				Frequency: 1,
			})
		}
	}
}

func sharesKeyword(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// pickBase chooses the dominant sender: most retained patterns, ties
// broken by first appearance in the transcript.
func pickBase(bySender map[string]*senderAccum, senderOrder []string) *senderAccum {
	var base *senderAccum
	for _, name := range senderOrder {
		acc := bySender[name]
		if base == nil || len(acc.patterns) > len(base.patterns) {
			base = acc
		}
	}
	return base
}

// rankedPhrases returns phrases with frequency > 1, most frequent first.
// Equal frequencies sort lexicographically so output is deterministic.
func rankedPhrases(freq map[string]int, max int) []string {
	type entry struct {
		phrase string
		count  int
	}
	var entries []entry
	for phrase, count := range freq {
		if count > 1 {
			entries = append(entries, entry{phrase, count})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].phrase < entries[j].phrase
	})

	if len(entries) > max {
		entries = entries[:max]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.phrase
	}
	return out
}
