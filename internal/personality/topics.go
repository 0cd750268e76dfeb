package personality

import (
	"strings"

	"github.com/mindmesh-ai/companion-hub/internal/model"
)

// topicTable maps topic names to their trigger keywords. Order matters:
// a message is filed under the first topic with a keyword hit and
// classification stops there.
var topicTable = []struct {
	name     string
	keywords []string
}{
	{"study", []string{"exam", "study", "class", "homework", "assignment", "test", "lecture", "grade", "college", "school"}},
	{"tech", []string{"code", "coding", "computer", "app", "software", "phone", "laptop", "internet", "bug", "program"}},
	{"health", []string{"sick", "doctor", "sleep", "tired", "gym", "workout", "medicine", "headache", "health", "exercise"}},
	{"social", []string{"party", "friend", "movie", "dinner", "hang", "weekend", "fun", "game", "birthday", "trip"}},
	{"work", []string{"work", "job", "office", "boss", "meeting", "project", "deadline", "salary", "interview", "shift"}},
	{"personal", []string{"family", "mom", "dad", "love", "feel", "miss", "home", "life", "relationship", "heart"}},
}

// classifyTopic returns the first topic whose keyword appears in content,
// or "" when none match. A message belongs to at most one topic.
func classifyTopic(content string) string {
	lower := strings.ToLower(content)
	for _, topic := range topicTable {
		for _, kw := range topic.keywords {
			if strings.Contains(lower, kw) {
				return topic.name
			}
		}
	}
	return ""
}

// Sentiment keyword sets, tested in priority order: a joking reply that
// also contains supportive words still reads as humor.
var sentimentSets = []struct {
	sentiment model.Sentiment
	markers   []string
}{
	{model.SentimentHumorous, []string{"haha", "lol", "lmao", "funny", "joking", "😂", "🤣"}},
	{model.SentimentSupportive, []string{"don't worry", "dont worry", "you can", "you'll do", "youll do", "deep breath", "here for you", "proud of", "it'll be", "itll be", "got this"}},
	{model.SentimentPositive, []string{"great", "good", "awesome", "love", "happy", "nice", "amazing", "perfect", "congrats"}},
	{model.SentimentNegative, []string{"sad", "bad", "hate", "terrible", "awful", "sorry", "angry", "worst", "upset"}},
}

// inferSentiment classifies a response's tone from lightweight keyword sets.
func inferSentiment(content string) model.Sentiment {
	lower := strings.ToLower(content)
	for _, set := range sentimentSets {
		for _, marker := range set.markers {
			if strings.Contains(lower, marker) {
				return set.sentiment
			}
		}
	}
	return model.SentimentNeutral
}
