package app

import (
	"sort"
	"time"

	"medlearn-service/internal/domain"
)

// SkipAnswer is the sentinel a student submits to pass on a question.
const SkipAnswer = "S"

const (
	correctScore = 4
	skipScore    = 0
	wrongScore   = -1
)

// DefaultTopN is the leaderboard size used when the caller passes n <= 0.
const DefaultTopN = 10

// Score grades a selected answer against the question's correct answer.
// Any string is accepted: only an exact match earns points, an explicit
// skip costs nothing, and everything else (including garbage values) is
// penalized as a wrong answer.
func Score(selected, correct string) (int, bool) {
	switch {
	case selected == correct:
		return correctScore, true
	case selected == SkipAnswer:
		return skipScore, false
	default:
		return wrongScore, false
	}
}

// UpsertResponse folds a submission into the single logical response per
// (user, topic, question). With an existing record only the answer,
// correctness, and score change; identity and creation time are kept so
// encounter ordering stays stable across resubmissions.
func UpsertResponse(existing *domain.Response, id, userID, topicID, questionID, selected string, correct string, now time.Time) domain.Response {
	score, isCorrect := Score(selected, correct)
	if existing != nil {
		updated := *existing
		updated.Selected = selected
		updated.IsCorrect = isCorrect
		updated.Score = score
		updated.UpdatedAt = now
		return updated
	}
	return domain.Response{
		ID:         id,
		UserID:     userID,
		TopicID:    topicID,
		QuestionID: questionID,
		Selected:   selected,
		IsCorrect:  isCorrect,
		Score:      score,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

type userTotal struct {
	userID      string
	displayName string
	collegeName string
	total       int
}

// RankTopN groups responses by user, sums scores, and returns the top n
// entries sorted by total descending. Ties keep first-appearance order
// in the input; callers make that deterministic by loading responses
// ordered by creation time. Display fields come from the first response
// encountered for each user.
func RankTopN(responses []domain.ScoredResponse, n int) []domain.LeaderboardEntry {
	if n <= 0 {
		n = DefaultTopN
	}

	totals := make(map[string]*userTotal)
	order := make([]*userTotal, 0)
	for _, r := range responses {
		acc, ok := totals[r.UserID]
		if !ok {
			acc = &userTotal{
				userID:      r.UserID,
				displayName: r.DisplayName,
				collegeName: r.CollegeName,
			}
			totals[r.UserID] = acc
			order = append(order, acc)
		}
		acc.total += r.Score
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].total > order[j].total
	})

	if len(order) > n {
		order = order[:n]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(order))
	for i, acc := range order {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      acc.userID,
			DisplayName: acc.displayName,
			CollegeName: acc.collegeName,
			TotalScore:  acc.total,
		})
	}
	return entries
}

// QuestionOrder derives the ordered question sequence from the distinct
// question IDs present in responses, in encounter order.
func QuestionOrder(responses []domain.ScoredResponse) []string {
	seen := make(map[string]struct{})
	order := make([]string, 0)
	for _, r := range responses {
		if _, ok := seen[r.QuestionID]; ok {
			continue
		}
		seen[r.QuestionID] = struct{}{}
		order = append(order, r.QuestionID)
	}
	return order
}

// PositionalRank freezes the leaderboard as of currentQuestionID's
// position in orderedQuestionIDs: only responses to questions at or
// before that position contribute to totals. The returned status pairs
// the top-10 board with targetUserID's own standing, including the
// user's recorded answer for the current question. Responses to
// questions absent from the order are ignored.
func PositionalRank(responses []domain.ScoredResponse, orderedQuestionIDs []string, currentQuestionID, targetUserID string) (domain.PositionalStatus, error) {
	// Position index built once; "position" is an explicit input here,
	// not a side effect of repeated array scans.
	position := make(map[string]int, len(orderedQuestionIDs))
	for i, id := range orderedQuestionIDs {
		position[id] = i
	}
	cutoff, ok := position[currentQuestionID]
	if !ok {
		return domain.PositionalStatus{}, domain.ErrQuestionNotFound
	}

	limited := make([]domain.ScoredResponse, 0, len(responses))
	var current *domain.AnswerDetail
	hasAny := false
	userTotal := 0
	for _, r := range responses {
		pos, ok := position[r.QuestionID]
		if !ok || pos > cutoff {
			continue
		}
		limited = append(limited, r)
		if r.UserID == targetUserID {
			hasAny = true
			userTotal += r.Score
			if r.QuestionID == currentQuestionID {
				current = &domain.AnswerDetail{
					QuestionID: r.QuestionID,
					Selected:   r.Selected,
					IsCorrect:  r.IsCorrect,
					Score:      r.Score,
				}
			}
		}
	}

	entries := RankTopN(limited, DefaultTopN)

	status := domain.UserStatus{UserID: targetUserID, Current: current}
	if hasAny {
		status.TotalScore = userTotal
		for _, e := range entries {
			if e.UserID == targetUserID {
				rank := e.Rank
				status.Rank = &rank
				break
			}
		}
	}

	return domain.PositionalStatus{
		Leaderboard: domain.Leaderboard{Entries: entries},
		User:        status,
	}, nil
}
