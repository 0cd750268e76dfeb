package model

import (
	"time"
)

// ChatMessage is one structured message from an exported chat transcript.
// Read-only once produced by the transcript parser.
type ChatMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	IsMedia   bool      `json:"isMedia"`
}

// Reply is the outcome of response generation for a single user message.
type Reply struct {
	Message            string    `json:"message"`
	SupportiveActions  []string  `json:"supportiveActions"`
	RiskLevel          RiskLevel `json:"riskLevel"`
	EscalationRequired bool      `json:"escalationRequired"`
}
