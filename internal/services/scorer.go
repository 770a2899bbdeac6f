package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/yungbote/carepulse-backend/internal/domain/moments"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

// ScoreFailed is returned when no score could be obtained. It is outside
// the valid [1,100] range.
const ScoreFailed = -1

const scoreInstructions = "You rate the sentiment of short reports from a healthcare facility. " +
	"Reply with a single integer from 1 (extremely negative) through 50 (neutral) to 100 (extremely positive). " +
	"Reply with the number only."

// SentimentScorer maps text to a positivity score in [1,100], or ScoreFailed.
type SentimentScorer interface {
	Score(ctx context.Context, text string) int
}

type sentimentScorer struct {
	log        *logger.Logger
	classifier TextClassifier
}

func NewSentimentScorer(baseLog *logger.Logger, classifier TextClassifier) SentimentScorer {
	return &sentimentScorer{
		log:        baseLog.With("service", "SentimentScorer"),
		classifier: classifier,
	}
}

func (s *sentimentScorer) Score(ctx context.Context, text string) int {
	if strings.TrimSpace(text) == "" {
		return ScoreFailed
	}
	reply, err := s.classifier.Classify(ctx, scoreInstructions, text)
	if err != nil {
		s.log.Warn("Sentiment classification failed", "error", err)
		return ScoreFailed
	}
	score, ok := ParseScore(reply)
	if !ok {
		s.log.Warn("Sentiment reply was not numeric", "reply_len", len(reply))
		return ScoreFailed
	}
	return score
}

var firstInt = regexp.MustCompile(`-?\d+`)

// ParseScore reads the first integer in reply and clamps it to [1,100].
func ParseScore(reply string) (int, bool) {
	m := firstInt.FindString(reply)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Too many digits for an int; the sign says which end it clamps to.
		if strings.HasPrefix(m, "-") {
			return moments.MinSentimentScore, true
		}
		return moments.MaxSentimentScore, true
	}
	return moments.ClampScore(n), true
}
