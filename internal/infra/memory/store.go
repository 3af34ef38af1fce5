package memory

import (
	"context"
	"sync"

	"medlearn-service/internal/domain"
)

// Store is an in-memory implementation of the app store interfaces,
// useful for tests and demos. Responses keep insertion order so
// leaderboard tie-breaking matches the Postgres loader's ORDER BY.
type Store struct {
	mu        sync.RWMutex
	subjects  map[string]domain.Subject
	chapters  map[string]domain.Chapter
	topics    map[string]domain.Topic
	colleges  map[string]domain.College
	users     map[string]domain.User
	mcqs      map[string]domain.MCQ
	uploads   map[string][]domain.UploadBatch // topicID -> batches, oldest first
	responses []domain.Response

	subjectOrder []string
	chapterOrder []string
	topicOrder   []string
	collegeOrder []string
	mcqOrder     []string
}

func NewStore() *Store {
	return &Store{
		subjects: make(map[string]domain.Subject),
		chapters: make(map[string]domain.Chapter),
		topics:   make(map[string]domain.Topic),
		colleges: make(map[string]domain.College),
		users:    make(map[string]domain.User),
		mcqs:     make(map[string]domain.MCQ),
		uploads:  make(map[string][]domain.UploadBatch),
	}
}

// ---- ContentStore ----

func (s *Store) CreateSubject(_ context.Context, subject domain.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subject.ID] = subject
	s.subjectOrder = append(s.subjectOrder, subject.ID)
	return nil
}

func (s *Store) ListSubjects(_ context.Context) ([]domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Subject, 0, len(s.subjectOrder))
	for _, id := range s.subjectOrder {
		if subject, ok := s.subjects[id]; ok {
			out = append(out, subject)
		}
	}
	return out, nil
}

func (s *Store) GetSubject(_ context.Context, id string) (domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[id]
	if !ok {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	return subject, nil
}

func (s *Store) UpdateSubject(_ context.Context, subject domain.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[subject.ID]; !ok {
		return domain.ErrSubjectNotFound
	}
	s.subjects[subject.ID] = subject
	return nil
}

func (s *Store) DeleteSubject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subjects, id)
	return nil
}

func (s *Store) CreateChapter(_ context.Context, chapter domain.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapters[chapter.ID] = chapter
	s.chapterOrder = append(s.chapterOrder, chapter.ID)
	return nil
}

func (s *Store) ListChapters(_ context.Context, subjectID string) ([]domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chapter, 0)
	for _, id := range s.chapterOrder {
		if chapter, ok := s.chapters[id]; ok && chapter.SubjectID == subjectID {
			out = append(out, chapter)
		}
	}
	return out, nil
}

func (s *Store) GetChapter(_ context.Context, id string) (domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapter, ok := s.chapters[id]
	if !ok {
		return domain.Chapter{}, domain.ErrChapterNotFound
	}
	return chapter, nil
}

func (s *Store) UpdateChapter(_ context.Context, chapter domain.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chapters[chapter.ID]; !ok {
		return domain.ErrChapterNotFound
	}
	s.chapters[chapter.ID] = chapter
	return nil
}

func (s *Store) DeleteChapter(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chapters, id)
	return nil
}

func (s *Store) CreateTopic(_ context.Context, topic domain.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[topic.ID] = topic
	s.topicOrder = append(s.topicOrder, topic.ID)
	return nil
}

func (s *Store) ListTopics(_ context.Context, chapterID string) ([]domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Topic, 0)
	for _, id := range s.topicOrder {
		if topic, ok := s.topics[id]; ok && topic.ChapterID == chapterID {
			out = append(out, topic)
		}
	}
	return out, nil
}

func (s *Store) GetTopic(_ context.Context, id string) (domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topic, ok := s.topics[id]
	if !ok {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	return topic, nil
}

func (s *Store) UpdateTopic(_ context.Context, topic domain.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[topic.ID]; !ok {
		return domain.ErrTopicNotFound
	}
	s.topics[topic.ID] = topic
	return nil
}

func (s *Store) DeleteTopic(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.topics, id)
	delete(s.uploads, id)
	return nil
}

func (s *Store) AppendUpload(_ context.Context, batch domain.UploadBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[batch.TopicID] = append(s.uploads[batch.TopicID], batch)
	return nil
}

func (s *Store) ListUploads(_ context.Context, topicID string) ([]domain.UploadBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batches := s.uploads[topicID]
	out := make([]domain.UploadBatch, len(batches))
	copy(out, batches)
	return out, nil
}

func (s *Store) DeleteUploads(_ context.Context, topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploads, topicID)
	return nil
}

// ---- QuizStore ----

func (s *Store) TopicExists(_ context.Context, topicID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.topics[topicID]
	return ok, nil
}

func (s *Store) InsertMCQs(_ context.Context, mcqs []domain.MCQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mcq := range mcqs {
		s.mcqs[mcq.ID] = mcq
		s.mcqOrder = append(s.mcqOrder, mcq.ID)
	}
	return nil
}

func (s *Store) ListMCQs(_ context.Context, topicID string) ([]domain.MCQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.MCQ, 0)
	for _, id := range s.mcqOrder {
		if mcq, ok := s.mcqs[id]; ok && mcq.TopicID == topicID {
			out = append(out, mcq)
		}
	}
	return out, nil
}

func (s *Store) GetMCQ(_ context.Context, questionID string) (domain.MCQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mcq, ok := s.mcqs[questionID]
	if !ok {
		return domain.MCQ{}, domain.ErrQuestionNotFound
	}
	return mcq, nil
}

func (s *Store) GetResponse(_ context.Context, userID, topicID, questionID string) (*domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.responses {
		r := s.responses[i]
		if r.UserID == userID && r.TopicID == topicID && r.QuestionID == questionID {
			out := r
			return &out, nil
		}
	}
	return nil, nil
}

// UpsertResponse keeps the original slot on resubmission so encounter
// order survives, mirroring the unique-index upsert in Postgres.
func (s *Store) UpsertResponse(_ context.Context, response domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.responses {
		r := s.responses[i]
		if r.UserID == response.UserID && r.TopicID == response.TopicID && r.QuestionID == response.QuestionID {
			response.ID = r.ID
			response.CreatedAt = r.CreatedAt
			s.responses[i] = response
			return nil
		}
	}
	s.responses = append(s.responses, response)
	return nil
}

// ---- ResponseLoader ----

func (s *Store) LoadScoredResponses(_ context.Context, topicID string) ([]domain.ScoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoredResponse, 0)
	for _, r := range s.responses {
		if r.TopicID != topicID {
			continue
		}
		scored := domain.ScoredResponse{Response: r}
		if user, ok := s.users[r.UserID]; ok {
			scored.DisplayName = user.Name
			if college, ok := s.colleges[user.CollegeID]; ok {
				scored.CollegeName = college.Name
			}
		}
		out = append(out, scored)
	}
	return out, nil
}

// ---- AccountStore ----

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByPhone(_ context.Context, phone string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Phone == phone {
			out := user
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) SetUserVerified(_ context.Context, id string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Verified = verified
	s.users[id] = user
	return nil
}

func (s *Store) AddCollege(college domain.College) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colleges[college.ID] = college
	s.collegeOrder = append(s.collegeOrder, college.ID)
}

func (s *Store) ListColleges(_ context.Context) ([]domain.College, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.College, 0, len(s.collegeOrder))
	for _, id := range s.collegeOrder {
		if college, ok := s.colleges[id]; ok {
			out = append(out, college)
		}
	}
	return out, nil
}

func (s *Store) CollegeExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.colleges[id]
	return ok, nil
}
