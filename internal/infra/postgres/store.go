package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"medlearn-service/internal/domain"
)

// Store is the bun-backed implementation of the app store interfaces.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

type subjectRow struct {
	bun.BaseModel `bun:"table:subjects"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name"`
	CreatedAt time.Time `bun:"created_at"`
}

type chapterRow struct {
	bun.BaseModel `bun:"table:chapters"`

	ID        string    `bun:"id,pk"`
	SubjectID string    `bun:"subject_id"`
	Name      string    `bun:"name"`
	CreatedAt time.Time `bun:"created_at"`
}

type topicRow struct {
	bun.BaseModel `bun:"table:topics"`

	ID        string    `bun:"id,pk"`
	ChapterID string    `bun:"chapter_id"`
	Name      string    `bun:"name"`
	CreatedAt time.Time `bun:"created_at"`
}

type collegeRow struct {
	bun.BaseModel `bun:"table:colleges"`

	ID   string `bun:"id,pk"`
	Name string `bun:"name"`
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:"id,pk"`
	Phone     string    `bun:"phone"`
	Name      string    `bun:"name"`
	CollegeID string    `bun:"college_id"`
	Verified  bool      `bun:"verified"`
	CreatedAt time.Time `bun:"created_at"`
}

type mcqRow struct {
	bun.BaseModel `bun:"table:mcqs"`

	ID          string            `bun:"id,pk"`
	TopicID     string            `bun:"topic_id"`
	Question    string            `bun:"question"`
	Options     map[string]string `bun:"options,type:jsonb"`
	Correct     string            `bun:"correct_answer"`
	Explanation string            `bun:"explanation"`
	CreatedAt   time.Time         `bun:"created_at"`
}

type uploadRow struct {
	bun.BaseModel `bun:"table:topic_uploads"`

	ID        string        `bun:"id,pk"`
	TopicID   string        `bun:"topic_id"`
	Steps     []domain.Step `bun:"steps,type:jsonb"`
	CreatedAt time.Time     `bun:"created_at"`
}

type responseRow struct {
	bun.BaseModel `bun:"table:student_mcq_responses"`

	ID         string    `bun:"id,pk"`
	UserID     string    `bun:"user_id"`
	TopicID    string    `bun:"topic_id"`
	QuestionID string    `bun:"question_id"`
	Selected   string    `bun:"selected_answer"`
	IsCorrect  bool      `bun:"is_correct"`
	Score      int       `bun:"score"`
	CreatedAt  time.Time `bun:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at"`
}

// ---- ContentStore ----

func (s *Store) CreateSubject(ctx context.Context, subject domain.Subject) error {
	row := subjectRow{ID: subject.ID, Name: subject.Name, CreatedAt: subject.CreatedAt}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

func (s *Store) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	var rows []subjectRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	out := make([]domain.Subject, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Subject{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

func (s *Store) GetSubject(ctx context.Context, id string) (domain.Subject, error) {
	var row subjectRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	if err != nil {
		return domain.Subject{}, fmt.Errorf("get subject: %w", err)
	}
	return domain.Subject{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

func (s *Store) UpdateSubject(ctx context.Context, subject domain.Subject) error {
	row := subjectRow{ID: subject.ID, Name: subject.Name, CreatedAt: subject.CreatedAt}
	if _, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	if _, err := s.db.NewDelete().Model((*subjectRow)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

func (s *Store) CreateChapter(ctx context.Context, chapter domain.Chapter) error {
	row := chapterRow{ID: chapter.ID, SubjectID: chapter.SubjectID, Name: chapter.Name, CreatedAt: chapter.CreatedAt}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert chapter: %w", err)
	}
	return nil
}

func (s *Store) ListChapters(ctx context.Context, subjectID string) ([]domain.Chapter, error) {
	var rows []chapterRow
	err := s.db.NewSelect().Model(&rows).Where("subject_id = ?", subjectID).Order("created_at ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	out := make([]domain.Chapter, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Chapter{ID: r.ID, SubjectID: r.SubjectID, Name: r.Name, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

func (s *Store) GetChapter(ctx context.Context, id string) (domain.Chapter, error) {
	var row chapterRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Chapter{}, domain.ErrChapterNotFound
	}
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("get chapter: %w", err)
	}
	return domain.Chapter{ID: row.ID, SubjectID: row.SubjectID, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

func (s *Store) UpdateChapter(ctx context.Context, chapter domain.Chapter) error {
	row := chapterRow{ID: chapter.ID, SubjectID: chapter.SubjectID, Name: chapter.Name, CreatedAt: chapter.CreatedAt}
	if _, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	return nil
}

func (s *Store) DeleteChapter(ctx context.Context, id string) error {
	if _, err := s.db.NewDelete().Model((*chapterRow)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	return nil
}

func (s *Store) CreateTopic(ctx context.Context, topic domain.Topic) error {
	row := topicRow{ID: topic.ID, ChapterID: topic.ChapterID, Name: topic.Name, CreatedAt: topic.CreatedAt}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert topic: %w", err)
	}
	return nil
}

func (s *Store) ListTopics(ctx context.Context, chapterID string) ([]domain.Topic, error) {
	var rows []topicRow
	err := s.db.NewSelect().Model(&rows).Where("chapter_id = ?", chapterID).Order("created_at ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	out := make([]domain.Topic, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Topic{ID: r.ID, ChapterID: r.ChapterID, Name: r.Name, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

func (s *Store) GetTopic(ctx context.Context, id string) (domain.Topic, error) {
	var row topicRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.Topic{}, fmt.Errorf("get topic: %w", err)
	}
	return domain.Topic{ID: row.ID, ChapterID: row.ChapterID, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

func (s *Store) UpdateTopic(ctx context.Context, topic domain.Topic) error {
	row := topicRow{ID: topic.ID, ChapterID: topic.ChapterID, Name: topic.Name, CreatedAt: topic.CreatedAt}
	if _, err := s.db.NewUpdate().Model(&row).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	return nil
}

func (s *Store) DeleteTopic(ctx context.Context, id string) error {
	if _, err := s.db.NewDelete().Model((*topicRow)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	return nil
}

func (s *Store) AppendUpload(ctx context.Context, batch domain.UploadBatch) error {
	row := uploadRow{ID: batch.ID, TopicID: batch.TopicID, Steps: batch.Steps, CreatedAt: batch.CreatedAt}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (s *Store) ListUploads(ctx context.Context, topicID string) ([]domain.UploadBatch, error) {
	var rows []uploadRow
	err := s.db.NewSelect().Model(&rows).Where("topic_id = ?", topicID).Order("created_at ASC", "id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	out := make([]domain.UploadBatch, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.UploadBatch{ID: r.ID, TopicID: r.TopicID, Steps: r.Steps, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

func (s *Store) DeleteUploads(ctx context.Context, topicID string) error {
	if _, err := s.db.NewDelete().Model((*uploadRow)(nil)).Where("topic_id = ?", topicID).Exec(ctx); err != nil {
		return fmt.Errorf("delete uploads: %w", err)
	}
	return nil
}

// ---- QuizStore ----

func (s *Store) TopicExists(ctx context.Context, topicID string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*topicRow)(nil)).Where("id = ?", topicID).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("topic exists: %w", err)
	}
	return exists, nil
}

func (s *Store) InsertMCQs(ctx context.Context, mcqs []domain.MCQ) error {
	rows := make([]mcqRow, 0, len(mcqs))
	for _, mcq := range mcqs {
		rows = append(rows, mcqRow{
			ID:          mcq.ID,
			TopicID:     mcq.TopicID,
			Question:    mcq.Question,
			Options:     mcq.Options,
			Correct:     mcq.Correct,
			Explanation: mcq.Explanation,
			CreatedAt:   mcq.CreatedAt,
		})
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert mcqs: %w", err)
	}
	return nil
}

func (s *Store) ListMCQs(ctx context.Context, topicID string) ([]domain.MCQ, error) {
	var rows []mcqRow
	err := s.db.NewSelect().Model(&rows).Where("topic_id = ?", topicID).Order("created_at ASC", "id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mcqs: %w", err)
	}
	out := make([]domain.MCQ, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.MCQ{
			ID:          r.ID,
			TopicID:     r.TopicID,
			Question:    r.Question,
			Options:     r.Options,
			Correct:     r.Correct,
			Explanation: r.Explanation,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) GetMCQ(ctx context.Context, questionID string) (domain.MCQ, error) {
	var row mcqRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", questionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MCQ{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.MCQ{}, fmt.Errorf("get mcq: %w", err)
	}
	return domain.MCQ{
		ID:          row.ID,
		TopicID:     row.TopicID,
		Question:    row.Question,
		Options:     row.Options,
		Correct:     row.Correct,
		Explanation: row.Explanation,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func (s *Store) GetResponse(ctx context.Context, userID, topicID, questionID string) (*domain.Response, error) {
	var row responseRow
	err := s.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("topic_id = ?", topicID).
		Where("question_id = ?", questionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	response := domain.Response{
		ID:         row.ID,
		UserID:     row.UserID,
		TopicID:    row.TopicID,
		QuestionID: row.QuestionID,
		Selected:   row.Selected,
		IsCorrect:  row.IsCorrect,
		Score:      row.Score,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	return &response, nil
}

// UpsertResponse writes through the unique index on (user_id, topic_id,
// question_id); concurrent submissions for the same key resolve to one row.
func (s *Store) UpsertResponse(ctx context.Context, response domain.Response) error {
	row := responseRow{
		ID:         response.ID,
		UserID:     response.UserID,
		TopicID:    response.TopicID,
		QuestionID: response.QuestionID,
		Selected:   response.Selected,
		IsCorrect:  response.IsCorrect,
		Score:      response.Score,
		CreatedAt:  response.CreatedAt,
		UpdatedAt:  response.UpdatedAt,
	}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (user_id, topic_id, question_id) DO UPDATE").
		Set("selected_answer = EXCLUDED.selected_answer").
		Set("is_correct = EXCLUDED.is_correct").
		Set("score = EXCLUDED.score").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert response: %w", err)
	}
	return nil
}

// ---- AccountStore ----

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	row := userRow{
		ID:        user.ID,
		Phone:     user.Phone,
		Name:      user.Name,
		CollegeID: user.CollegeID,
		Verified:  user.Verified,
		CreatedAt: user.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return userFromRow(row), nil
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("phone = ?", phone).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	user := userFromRow(row)
	return &user, nil
}

func (s *Store) SetUserVerified(ctx context.Context, id string, verified bool) error {
	res, err := s.db.NewUpdate().Model((*userRow)(nil)).
		Set("verified = ?", verified).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set user verified: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) ListColleges(ctx context.Context) ([]domain.College, error) {
	var rows []collegeRow
	if err := s.db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	out := make([]domain.College, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.College{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (s *Store) CollegeExists(ctx context.Context, id string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*collegeRow)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("college exists: %w", err)
	}
	return exists, nil
}

func userFromRow(row userRow) domain.User {
	return domain.User{
		ID:        row.ID,
		Phone:     row.Phone,
		Name:      row.Name,
		CollegeID: row.CollegeID,
		Verified:  row.Verified,
		CreatedAt: row.CreatedAt,
	}
}
