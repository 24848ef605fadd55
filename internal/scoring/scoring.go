package scoring

import (
	"regexp"
	"strings"

	"github.com/leadscout/leadscout/internal/domain"
)

const (
	// Scoring weights per matched keyword
	ScoreBusinessKeyword = 2
	ScoreUrgencyKeyword  = 3
	ScoreQuestionKeyword = 2

	// Contact information bonuses
	ScoreEmailBonus   = 5
	ScorePhoneBonus   = 5
	ScoreWebsiteBonus = 3

	// Length bonuses (detailed comments signal intent)
	ScoreLongComment     = 1
	ScoreVeryLongComment = 2
	LongCommentLen       = 100
	VeryLongCommentLen   = 200

	// Engagement bonuses
	ScoreHasLikes   = 1
	ScoreHasReplies = 1
)

var (
	emailRe = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	siteRe  = regexp.MustCompile(`(https?://)?(www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)`)
)

// Evaluation is the pure output of scoring one comment.
type Evaluation struct {
	Score      int
	Indicators []string
	Contact    domain.ContactInfo
}

// Thresholds are the qualification and priority cutoffs. They live in
// configuration; the scorer itself only produces raw scores.
type Thresholds struct {
	Qualify int
	High    int
	Medium  int
}

// DefaultThresholds matches the historical cutoffs: qualify at 5,
// high priority at 10, medium at 7.
func DefaultThresholds() Thresholds {
	return Thresholds{Qualify: 5, High: 10, Medium: 7}
}

// Classify applies thresholds to a raw score.
func Classify(score int, t Thresholds) (qualified bool, priority domain.Priority) {
	qualified = score >= t.Qualify
	switch {
	case score >= t.High:
		priority = domain.PriorityHigh
	case score >= t.Medium:
		priority = domain.PriorityMedium
	default:
		priority = domain.PriorityLow
	}
	return qualified, priority
}

// Scorer evaluates comments against keyword tables. It holds no mutable
// state: Evaluate is deterministic and safe to call concurrently.
type Scorer struct {
	tables Tables
}

// New creates a Scorer from the given keyword tables.
func New(tables Tables) *Scorer {
	return &Scorer{tables: tables}
}

// Evaluate scores a single comment. Identical input always yields an
// identical Evaluation.
func (s *Scorer) Evaluate(c domain.Comment) Evaluation {
	text := strings.ToLower(c.Text)

	var ev Evaluation

	for _, kw := range s.tables.Business {
		if strings.Contains(text, kw) {
			ev.Score += ScoreBusinessKeyword
			ev.Indicators = append(ev.Indicators, kw)
		}
	}
	for _, kw := range s.tables.Urgency {
		if strings.Contains(text, kw) {
			ev.Score += ScoreUrgencyKeyword
			ev.Indicators = append(ev.Indicators, "urgent: "+kw)
		}
	}
	for _, kw := range s.tables.Question {
		if strings.Contains(text, kw) {
			ev.Score += ScoreQuestionKeyword
			ev.Indicators = append(ev.Indicators, "question: "+kw)
		}
	}

	ev.Contact = extractContact(text)
	if len(ev.Contact.Emails) > 0 {
		ev.Score += ScoreEmailBonus
	}
	if len(ev.Contact.Phones) > 0 {
		ev.Score += ScorePhoneBonus
	}
	if len(ev.Contact.Websites) > 0 {
		ev.Score += ScoreWebsiteBonus
	}

	if len(c.Text) > LongCommentLen {
		ev.Score += ScoreLongComment
	}
	if len(c.Text) > VeryLongCommentLen {
		ev.Score += ScoreVeryLongComment
	}

	if c.LikeCount > 0 {
		ev.Score += ScoreHasLikes
	}
	if c.ReplyCount > 0 {
		ev.Score += ScoreHasReplies
	}

	return ev
}

func extractContact(text string) domain.ContactInfo {
	return domain.ContactInfo{
		Emails:   emailRe.FindAllString(text, -1),
		Phones:   phoneRe.FindAllString(text, -1),
		Websites: siteRe.FindAllString(text, -1),
	}
}
