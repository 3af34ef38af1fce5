package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"medlearn-service/internal/domain"
)

// MCQsPerUpload is the fixed batch size the upload endpoint accepts.
const MCQsPerUpload = 10

var answerKeys = []string{"A", "B", "C", "D", "E"}

// QuizStore abstracts MCQ and response persistence. UpsertResponse must
// be atomic on (user_id, topic_id, question_id): in Postgres a unique
// index plus ON CONFLICT DO UPDATE. Concurrent submissions for the same
// key must not produce duplicates or lost updates.
type QuizStore interface {
	TopicExists(ctx context.Context, topicID string) (bool, error)
	InsertMCQs(ctx context.Context, mcqs []domain.MCQ) error
	ListMCQs(ctx context.Context, topicID string) ([]domain.MCQ, error)
	GetMCQ(ctx context.Context, questionID string) (domain.MCQ, error)
	GetResponse(ctx context.Context, userID, topicID, questionID string) (*domain.Response, error)
	UpsertResponse(ctx context.Context, r domain.Response) error
}

// ResponseLoader reads a topic's responses joined with user display
// fields, ordered by creation time then ID so encounter order (and with
// it leaderboard tie-breaking) is deterministic.
type ResponseLoader interface {
	LoadScoredResponses(ctx context.Context, topicID string) ([]domain.ScoredResponse, error)
}

// BoardCache serves ranked leaderboards, caching them between writes.
type BoardCache interface {
	Leaderboard(ctx context.Context, topicID string) (domain.Leaderboard, error)
	Invalidate(ctx context.Context, topicID string) error
}

// MCQInput is one question as submitted by an uploader.
type MCQInput struct {
	Question    string            `json:"question"`
	Options     map[string]string `json:"options"`
	Correct     string            `json:"correctAnswer"`
	Explanation string            `json:"explanation"`
}

// QuizService contains the MCQ, scoring, and leaderboard use cases.
type QuizService struct {
	store     QuizStore
	responses ResponseLoader
	boards    BoardCache
	live      *LiveBoards
	now       func() time.Time
}

func NewQuizService(store QuizStore, responses ResponseLoader, boards BoardCache, live *LiveBoards) *QuizService {
	return &QuizService{
		store:     store,
		responses: responses,
		boards:    boards,
		live:      live,
		now:       time.Now,
	}
}

// UploadMCQs stores a batch of questions for a topic. Exactly ten per
// call; each must carry a non-empty question, all five options, and a
// correct answer among A-E.
func (s *QuizService) UploadMCQs(ctx context.Context, topicID string, inputs []MCQInput) ([]domain.MCQ, error) {
	if err := s.requireTopic(ctx, topicID); err != nil {
		return nil, err
	}
	if len(inputs) != MCQsPerUpload {
		return nil, domain.Validationf("expected exactly %d mcqs, got %d", MCQsPerUpload, len(inputs))
	}

	now := s.now()
	mcqs := make([]domain.MCQ, 0, len(inputs))
	for i, in := range inputs {
		if err := validateMCQ(in); err != nil {
			return nil, domain.Validationf("mcq %d: %v", i, err)
		}
		mcqs = append(mcqs, domain.MCQ{
			ID:          uuid.NewString(),
			TopicID:     topicID,
			Question:    strings.TrimSpace(in.Question),
			Options:     in.Options,
			Correct:     in.Correct,
			Explanation: strings.TrimSpace(in.Explanation),
			CreatedAt:   now,
		})
	}
	if err := s.store.InsertMCQs(ctx, mcqs); err != nil {
		return nil, err
	}
	return mcqs, nil
}

func validateMCQ(in MCQInput) error {
	if strings.TrimSpace(in.Question) == "" {
		return domain.Validationf("question text required")
	}
	for _, key := range answerKeys {
		if strings.TrimSpace(in.Options[key]) == "" {
			return domain.Validationf("option %s required", key)
		}
	}
	if !isAnswerKey(in.Correct) {
		return domain.Validationf("correct answer must be one of A-E, got %q", in.Correct)
	}
	return nil
}

func isAnswerKey(v string) bool {
	for _, key := range answerKeys {
		if v == key {
			return true
		}
	}
	return false
}

func (s *QuizService) ListMCQs(ctx context.Context, topicID string) ([]domain.MCQ, error) {
	if err := s.requireTopic(ctx, topicID); err != nil {
		return nil, err
	}
	return s.store.ListMCQs(ctx, topicID)
}

// SubmitAnswer grades a submission, upserts the single logical response
// for (user, topic, question), and returns the refreshed leaderboard.
// Any string is accepted as an answer; unrecognized values score as wrong.
func (s *QuizService) SubmitAnswer(ctx context.Context, topicID, userID, questionID, selected string) (domain.Response, domain.Leaderboard, error) {
	if strings.TrimSpace(selected) == "" {
		return domain.Response{}, domain.Leaderboard{}, domain.Validationf("selected answer required")
	}

	mcq, err := s.store.GetMCQ(ctx, questionID)
	if err != nil {
		return domain.Response{}, domain.Leaderboard{}, err
	}
	if mcq.TopicID != topicID {
		return domain.Response{}, domain.Leaderboard{}, domain.ErrQuestionNotFound
	}

	existing, err := s.store.GetResponse(ctx, userID, topicID, questionID)
	if err != nil {
		return domain.Response{}, domain.Leaderboard{}, err
	}
	response := UpsertResponse(existing, uuid.NewString(), userID, topicID, questionID, selected, mcq.Correct, s.now())
	if err := s.store.UpsertResponse(ctx, response); err != nil {
		return domain.Response{}, domain.Leaderboard{}, err
	}

	if err := s.boards.Invalidate(ctx, topicID); err != nil {
		return domain.Response{}, domain.Leaderboard{}, err
	}
	board, err := s.boards.Leaderboard(ctx, topicID)
	if err != nil {
		return domain.Response{}, domain.Leaderboard{}, err
	}
	s.live.Publish(topicID, board)
	return response, board, nil
}

// Leaderboard serves the cached top-10 board for a topic.
func (s *QuizService) Leaderboard(ctx context.Context, topicID string) (domain.Leaderboard, error) {
	if err := s.requireTopic(ctx, topicID); err != nil {
		return domain.Leaderboard{}, err
	}
	return s.boards.Leaderboard(ctx, topicID)
}

// Subscribe returns a channel of leaderboard updates for a topic. The
// caller must invoke cancel to release the subscription.
func (s *QuizService) Subscribe(ctx context.Context, topicID string) (<-chan domain.Leaderboard, func(), error) {
	if err := s.requireTopic(ctx, topicID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.live.Subscribe(topicID)
	return ch, cancel, nil
}

// PositionalStatus freezes the board as of currentQuestionID's position
// in the question order derived from stored responses, and isolates the
// target user's standing.
func (s *QuizService) PositionalStatus(ctx context.Context, topicID, currentQuestionID, userID string) (domain.PositionalStatus, error) {
	if err := s.requireTopic(ctx, topicID); err != nil {
		return domain.PositionalStatus{}, err
	}
	responses, err := s.responses.LoadScoredResponses(ctx, topicID)
	if err != nil {
		return domain.PositionalStatus{}, err
	}
	status, err := PositionalRank(responses, QuestionOrder(responses), currentQuestionID, userID)
	if err != nil {
		return domain.PositionalStatus{}, err
	}
	status.Leaderboard.TopicID = topicID
	status.Leaderboard.UpdatedAt = s.now()
	return status, nil
}

func (s *QuizService) requireTopic(ctx context.Context, topicID string) error {
	ok, err := s.store.TopicExists(ctx, topicID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrTopicNotFound
	}
	return nil
}

// BoardBuilder recomputes a topic's ranked board from stored responses.
// Caches use it as their fallback loader on a miss.
type BoardBuilder struct {
	responses ResponseLoader
	now       func() time.Time
}

func NewBoardBuilder(responses ResponseLoader) *BoardBuilder {
	return &BoardBuilder{responses: responses, now: time.Now}
}

func (b *BoardBuilder) LoadBoard(ctx context.Context, topicID string) (domain.Leaderboard, error) {
	responses, err := b.responses.LoadScoredResponses(ctx, topicID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{
		TopicID:   topicID,
		Entries:   RankTopN(responses, DefaultTopN),
		UpdatedAt: b.now(),
	}, nil
}
