package responder

import (
	"github.com/mindmesh-ai/companion-hub/internal/model"
)

// sentimentTrailers adjust the tone of a pattern response. Appended text
// only, the recorded response itself is never altered.
var sentimentTrailers = map[model.Sentiment]string{
	model.SentimentSupportive: " You've got this.",
	model.SentimentPositive:   " That's the spirit!",
	model.SentimentNegative:   " I'm here with you.",
	model.SentimentHumorous:   " 😄",
	model.SentimentNeutral:    "",
}

// topicTemplates are the fallback replies when no conversation pattern
// clears the score threshold but the message matches a known topic.
var topicTemplates = map[string][]string{
	"study": {
		"Exams and deadlines pile up fast. What subject is weighing on you the most right now?",
		"Sounds like study pressure is building. Want to talk through how you're preparing?",
		"School stress is real. Have you had a chance to take a break today?",
	},
	"tech": {
		"Tech troubles can be so frustrating. What exactly is acting up?",
		"Debugging life and code at the same time is a lot. Tell me more?",
	},
	"health": {
		"Your health comes first. How have you been sleeping lately?",
		"That sounds rough on your body. Have you been able to rest?",
	},
	"social": {
		"Spending time with people you like matters a lot. How did it go?",
		"That sounds like it could be fun. Who else was there?",
	},
	"work": {
		"Work can take over everything if we let it. How are you holding up?",
		"That sounds like a demanding stretch at work. What would help you unwind?",
	},
	"personal": {
		"Thank you for sharing something so personal. How are you feeling about it now?",
		"That sounds like it means a lot to you. I'm listening.",
	},
}

// genericTemplates are the last-resort replies. One of these is always
// available, so a reply is never empty.
var genericTemplates = []string{
	"I hear you. Tell me more about what's on your mind.",
	"That sounds like a lot to carry. I'm here and listening.",
	"Thanks for telling me. How long have you been feeling this way?",
	"I'm with you. What would feel most helpful to talk about right now?",
}

// actionCategory pairs trigger keywords with supportive-action suggestions.
type actionCategory struct {
	keywords []string
	actions  []string
}

var actionCategories = []actionCategory{
	{
		keywords: []string{"stress", "stressed", "anxious", "anxiety", "overwhelmed", "panic", "pressure", "nervous"},
		actions: []string{
			"Try a 4-7-8 breathing exercise",
			"Step away from the screen for ten minutes",
			"Write down the three things worrying you most",
		},
	},
	{
		keywords: []string{"exam", "study", "homework", "assignment", "test", "grade", "class"},
		actions: []string{
			"Break the material into 25-minute study blocks",
			"Review your hardest topic first while you're fresh",
			"Plan tomorrow's revision before closing your books",
		},
	},
	{
		keywords: []string{"tired", "sleep", "sick", "exhausted", "headache", "insomnia"},
		actions: []string{
			"Aim for a consistent bedtime tonight",
			"Drink some water and stretch for five minutes",
			"Consider a short walk outside",
		},
	},
	{
		keywords: []string{"alone", "lonely", "friend", "nobody", "isolated", "miss"},
		actions: []string{
			"Message one person you trust, even just to say hi",
			"Join a group activity you've enjoyed before",
			"Plan a short call with someone who makes you laugh",
		},
	},
}

// genericActions is the fallback suggestion list; suggestions are never
// empty regardless of message content.
var genericActions = []string{
	"Take a few slow, deep breaths",
	"Jot down how you're feeling right now",
	"Do one small thing that usually lifts your mood",
}
