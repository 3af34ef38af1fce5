package app

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"medlearn-service/internal/domain"
)

// ContentStore abstracts persistence for the curriculum tree and step
// uploads (Postgres in production, in-memory in tests).
type ContentStore interface {
	CreateSubject(ctx context.Context, s domain.Subject) error
	ListSubjects(ctx context.Context) ([]domain.Subject, error)
	GetSubject(ctx context.Context, id string) (domain.Subject, error)
	UpdateSubject(ctx context.Context, s domain.Subject) error
	DeleteSubject(ctx context.Context, id string) error

	CreateChapter(ctx context.Context, c domain.Chapter) error
	ListChapters(ctx context.Context, subjectID string) ([]domain.Chapter, error)
	GetChapter(ctx context.Context, id string) (domain.Chapter, error)
	UpdateChapter(ctx context.Context, c domain.Chapter) error
	DeleteChapter(ctx context.Context, id string) error

	CreateTopic(ctx context.Context, t domain.Topic) error
	ListTopics(ctx context.Context, chapterID string) ([]domain.Topic, error)
	GetTopic(ctx context.Context, id string) (domain.Topic, error)
	UpdateTopic(ctx context.Context, t domain.Topic) error
	DeleteTopic(ctx context.Context, id string) error

	// AppendUpload stores one batch; batches are append-only.
	AppendUpload(ctx context.Context, b domain.UploadBatch) error
	// ListUploads returns a topic's batches oldest first.
	ListUploads(ctx context.Context, topicID string) ([]domain.UploadBatch, error)
	DeleteUploads(ctx context.Context, topicID string) error
}

// ContentService holds the curriculum and step-content use cases.
type ContentService struct {
	store ContentStore
	now   func() time.Time
}

func NewContentService(store ContentStore) *ContentService {
	return &ContentService{store: store, now: time.Now}
}

func (s *ContentService) CreateSubject(ctx context.Context, name string) (domain.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Subject{}, domain.Validationf("subject name required")
	}
	subject := domain.Subject{ID: uuid.NewString(), Name: name, CreatedAt: s.now()}
	if err := s.store.CreateSubject(ctx, subject); err != nil {
		return domain.Subject{}, err
	}
	return subject, nil
}

func (s *ContentService) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	return s.store.ListSubjects(ctx)
}

func (s *ContentService) GetSubject(ctx context.Context, id string) (domain.Subject, error) {
	return s.store.GetSubject(ctx, id)
}

func (s *ContentService) RenameSubject(ctx context.Context, id, name string) (domain.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Subject{}, domain.Validationf("subject name required")
	}
	subject, err := s.store.GetSubject(ctx, id)
	if err != nil {
		return domain.Subject{}, err
	}
	subject.Name = name
	if err := s.store.UpdateSubject(ctx, subject); err != nil {
		return domain.Subject{}, err
	}
	return subject, nil
}

func (s *ContentService) DeleteSubject(ctx context.Context, id string) error {
	if _, err := s.store.GetSubject(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteSubject(ctx, id)
}

func (s *ContentService) CreateChapter(ctx context.Context, subjectID, name string) (domain.Chapter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Chapter{}, domain.Validationf("chapter name required")
	}
	if _, err := s.store.GetSubject(ctx, subjectID); err != nil {
		return domain.Chapter{}, err
	}
	chapter := domain.Chapter{ID: uuid.NewString(), SubjectID: subjectID, Name: name, CreatedAt: s.now()}
	if err := s.store.CreateChapter(ctx, chapter); err != nil {
		return domain.Chapter{}, err
	}
	return chapter, nil
}

func (s *ContentService) ListChapters(ctx context.Context, subjectID string) ([]domain.Chapter, error) {
	if _, err := s.store.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return s.store.ListChapters(ctx, subjectID)
}

func (s *ContentService) GetChapter(ctx context.Context, id string) (domain.Chapter, error) {
	return s.store.GetChapter(ctx, id)
}

func (s *ContentService) RenameChapter(ctx context.Context, id, name string) (domain.Chapter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Chapter{}, domain.Validationf("chapter name required")
	}
	chapter, err := s.store.GetChapter(ctx, id)
	if err != nil {
		return domain.Chapter{}, err
	}
	chapter.Name = name
	if err := s.store.UpdateChapter(ctx, chapter); err != nil {
		return domain.Chapter{}, err
	}
	return chapter, nil
}

func (s *ContentService) DeleteChapter(ctx context.Context, id string) error {
	if _, err := s.store.GetChapter(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteChapter(ctx, id)
}

func (s *ContentService) CreateTopic(ctx context.Context, chapterID, name string) (domain.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Topic{}, domain.Validationf("topic name required")
	}
	if _, err := s.store.GetChapter(ctx, chapterID); err != nil {
		return domain.Topic{}, err
	}
	topic := domain.Topic{ID: uuid.NewString(), ChapterID: chapterID, Name: name, CreatedAt: s.now()}
	if err := s.store.CreateTopic(ctx, topic); err != nil {
		return domain.Topic{}, err
	}
	return topic, nil
}

func (s *ContentService) ListTopics(ctx context.Context, chapterID string) ([]domain.Topic, error) {
	if _, err := s.store.GetChapter(ctx, chapterID); err != nil {
		return nil, err
	}
	return s.store.ListTopics(ctx, chapterID)
}

func (s *ContentService) GetTopic(ctx context.Context, id string) (domain.Topic, error) {
	return s.store.GetTopic(ctx, id)
}

func (s *ContentService) RenameTopic(ctx context.Context, id, name string) (domain.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Topic{}, domain.Validationf("topic name required")
	}
	topic, err := s.store.GetTopic(ctx, id)
	if err != nil {
		return domain.Topic{}, err
	}
	topic.Name = name
	if err := s.store.UpdateTopic(ctx, topic); err != nil {
		return domain.Topic{}, err
	}
	return topic, nil
}

func (s *ContentService) DeleteTopic(ctx context.Context, id string) error {
	if _, err := s.store.GetTopic(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteTopic(ctx, id)
}

// UploadSteps validates raw step content, appends it as a new batch, and
// returns the recomputed merged view. Validation happens before the write.
func (s *ContentService) UploadSteps(ctx context.Context, topicID string, raw json.RawMessage) ([]domain.Step, error) {
	if _, err := s.store.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	steps, err := ParseSteps(raw)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.ListUploads(ctx, topicID)
	if err != nil {
		return nil, err
	}
	incoming := domain.UploadBatch{
		ID:        uuid.NewString(),
		TopicID:   topicID,
		Steps:     steps,
		CreatedAt: s.now(),
	}
	merged := MergeBatches(stored, &incoming)

	if err := s.store.AppendUpload(ctx, incoming); err != nil {
		return nil, err
	}
	return merged, nil
}

// MergedContent recomputes the latest-wins step view on every read.
func (s *ContentService) MergedContent(ctx context.Context, topicID string) ([]domain.Step, error) {
	if _, err := s.store.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	stored, err := s.store.ListUploads(ctx, topicID)
	if err != nil {
		return nil, err
	}
	return MergeBatches(stored, nil), nil
}

// DeleteUploads drops all stored batches for a topic.
func (s *ContentService) DeleteUploads(ctx context.Context, topicID string) error {
	if _, err := s.store.GetTopic(ctx, topicID); err != nil {
		return err
	}
	return s.store.DeleteUploads(ctx, topicID)
}
