package model

import (
	"time"
)

// Sentiment classifies the tone of a conversation pattern.
type Sentiment string

const (
	SentimentPositive   Sentiment = "positive"
	SentimentNegative   Sentiment = "negative"
	SentimentNeutral    Sentiment = "neutral"
	SentimentSupportive Sentiment = "supportive"
	SentimentHumorous   Sentiment = "humorous"
)

// ConversationPattern is a learned mapping from a keyword cluster to one
// or more historically observed responses. Frequency counts how many
// stimulus messages contributed to the cluster; patterns with frequency 1
// are discarded as noise during extraction.
type ConversationPattern struct {
	Keywords  []string  `json:"keywords"`
	Responses []string  `json:"responses"`
	Context   []string  `json:"context"`
	Sentiment Sentiment `json:"sentiment"`
	Frequency int       `json:"frequency"`
}

// CommunicationStyle captures the surface habits of a sender: emoji,
// repeated punctuation, and exclamatory/interrogative fragments.
type CommunicationStyle struct {
	Emojis           []string `json:"emojis"`
	PunctuationMarks []string `json:"punctuationMarks"`
	Exclamations     []string `json:"exclamations"`
	Questions        []string `json:"questions"`
}

// PersonalityProfile is the aggregate learned style and pattern table
// derived from one transcript upload. Immutable after extraction.
type PersonalityProfile struct {
	ID               string                `json:"id"`
	OwnerID          string                `json:"ownerId"`
	Name             string                `json:"name"`
	CommonPhrases    []string              `json:"commonPhrases"`
	ResponsePatterns []ConversationPattern `json:"responsePatterns"`
	Style            CommunicationStyle    `json:"style"`
	Topics           map[string][]string   `json:"topics"`
	MessageCount     int                   `json:"messageCount"`
	CreatedAt        time.Time             `json:"createdAt"`
}
