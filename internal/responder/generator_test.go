package responder

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
)

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(rand.NewSource(seed), logger.NewNop())
}

func studyProfile() *model.PersonalityProfile {
	return &model.PersonalityProfile{
		Name: "Bob",
		ResponsePatterns: []model.ConversationPattern{
			{
				Keywords:  []string{"exam", "stressed"},
				Responses: []string{"Don't worry, you'll do great!"},
				Sentiment: model.SentimentSupportive,
				Frequency: 3,
			},
		},
	}
}

func TestGenerateUsesMatchingPattern(t *testing.T) {
	g := newTestGenerator(1)

	reply := g.Generate("I'm so stressed about my exam", nil, studyProfile())

	want := "Don't worry, you'll do great! You've got this."
	if reply.Message != want {
		t.Errorf("message = %q, want %q", reply.Message, want)
	}
}

func TestGenerateFallsBackToTopicTemplate(t *testing.T) {
	g := newTestGenerator(1)

	// No profile, but the message names a known topic.
	reply := g.Generate("my boss keeps moving the deadline", nil, nil)

	found := false
	for _, tmpl := range topicTemplates["work"] {
		if reply.Message == tmpl {
			found = true
		}
	}
	if !found {
		t.Errorf("message = %q, want one of the work templates", reply.Message)
	}
}

func TestGenerateFallsBackToGenericTemplate(t *testing.T) {
	g := newTestGenerator(1)

	reply := g.Generate("xylophone zeppelin", nil, nil)

	found := false
	for _, tmpl := range genericTemplates {
		if reply.Message == tmpl {
			found = true
		}
	}
	if !found {
		t.Errorf("message = %q, want one of the generic templates", reply.Message)
	}
}

func TestGenerateNeverEmpty(t *testing.T) {
	g := newTestGenerator(7)

	inputs := []string{
		"",
		"ok",
		"exam tomorrow",
		"I feel completely alone",
		"qwerty asdf zxcv",
	}
	for _, in := range inputs {
		for i := 0; i < 20; i++ {
			reply := g.Generate(in, nil, studyProfile())
			if reply.Message == "" {
				t.Fatalf("empty reply for input %q", in)
			}
			if len(reply.SupportiveActions) == 0 {
				t.Fatalf("empty actions for input %q", in)
			}
		}
	}
}

func TestGenerateWeakMatchIgnoresPattern(t *testing.T) {
	g := newTestGenerator(1)

	profile := &model.PersonalityProfile{
		Name: "Bob",
		ResponsePatterns: []model.ConversationPattern{
			{
				// Single substring hit scores 2 + 0.5; below the cutoff
				// only when frequency gives no boost.
				Keywords:  []string{"xyl"},
				Responses: []string{"recorded answer"},
				Sentiment: model.SentimentNeutral,
				Frequency: 0,
			},
		},
	}

	reply := g.Generate("xylophone practice", nil, profile)
	if reply.Message == "recorded answer" {
		t.Error("pattern below the score threshold should not be used")
	}
}

func TestGenerateRiskPropagation(t *testing.T) {
	g := newTestGenerator(1)

	tests := []struct {
		message        string
		wantLevel      model.RiskLevel
		wantEscalation bool
	}{
		{"I want to end it all", model.RiskHigh, true},
		{"everything feels hopeless", model.RiskModerate, false},
		{"what a nice afternoon", model.RiskLow, false},
	}

	for _, tt := range tests {
		reply := g.Generate(tt.message, nil, nil)
		if reply.RiskLevel != tt.wantLevel {
			t.Errorf("Generate(%q) risk = %q, want %q", tt.message, reply.RiskLevel, tt.wantLevel)
		}
		if reply.EscalationRequired != tt.wantEscalation {
			t.Errorf("Generate(%q) escalation = %v, want %v", tt.message, reply.EscalationRequired, tt.wantEscalation)
		}
	}
}

func TestSuggestActionsByCategory(t *testing.T) {
	actions := suggestActions("I'm so stressed about everything")
	if len(actions) == 0 {
		t.Fatal("no actions suggested")
	}
	if !strings.Contains(actions[0], "breathing") {
		t.Errorf("actions[0] = %q, want the stress suggestions", actions[0])
	}

	generic := suggestActions("completely unrelated content")
	if len(generic) != len(genericActions) {
		t.Errorf("got %d generic actions, want %d", len(generic), len(genericActions))
	}
}

func TestApplyStyleAppendsMarker(t *testing.T) {
	profile := &model.PersonalityProfile{
		Style: model.CommunicationStyle{
			Emojis:           []string{"😂"},
			PunctuationMarks: []string{"!!"},
		},
	}

	g := newTestGenerator(1)
	appended := 0
	const rounds = 200
	for i := 0; i < rounds; i++ {
		out := g.applyStyle("base message", profile)
		switch out {
		case "base message":
		case "base message 😂", "base message!!":
			appended++
		default:
			t.Fatalf("unexpected styled output %q", out)
		}
	}
	// styleMarkerChance is 0.3; over 200 rounds an appended marker is
	// all but guaranteed, and so is at least one untouched message.
	if appended == 0 || appended == rounds {
		t.Errorf("appended %d/%d, want a probabilistic mix", appended, rounds)
	}
}
