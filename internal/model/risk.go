package model

import (
	"time"
)

// RiskLevel is the coarse tier assigned to a single chat message.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// RiskAssessment is a judgment about one message, never a standing
// property of a user or profile.
type RiskAssessment struct {
	Level              RiskLevel `json:"level"`
	EscalationRequired bool      `json:"escalationRequired"`
}

// CrisisAlert is published to the alert stream when a message is
// confirmed high risk.
type CrisisAlert struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Severity  RiskLevel `json:"severity"`
	Source    string    `json:"source"` // "keyword" or "classifier"
	CreatedAt time.Time `json:"createdAt"`
}
