package domain

import (
	"encoding/json"
	"time"
)

// Subject is a top-level curriculum unit (e.g., Anatomy).
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chapter groups topics under a subject.
type Chapter struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subjectId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Topic is the unit that carries step content, MCQs, and a leaderboard.
type Topic struct {
	ID        string    `json:"id"`
	ChapterID string    `json:"chapterId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// College is a directory entry students pick at registration.
type College struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is a registered student, keyed by E.164 phone.
type User struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	CollegeID string    `json:"collegeId"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// Step is one numbered unit of learning content inside an upload batch.
// Content is opaque to the merge engine; identity is the step number.
type Step struct {
	Number  int             `json:"step"`
	Content json.RawMessage `json:"content"`
}

// UploadBatch is one content upload submission for a topic. Batches
// accumulate append-only; older steps are shadowed in the merged view,
// never deleted.
type UploadBatch struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topicId"`
	Steps     []Step    `json:"steps"`
	CreatedAt time.Time `json:"createdAt"`
}

// MCQ is a five-option multiple-choice question belonging to a topic.
type MCQ struct {
	ID          string            `json:"id"`
	TopicID     string            `json:"topicId"`
	Question    string            `json:"question"`
	Options     map[string]string `json:"options"` // keys A-E
	Correct     string            `json:"correctAnswer"`
	Explanation string            `json:"explanation"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Response is one user's recorded answer to one question within one topic.
// At most one exists per (user, topic, question); resubmission overwrites
// answer, correctness, and score in place.
type Response struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	TopicID    string    `json:"topicId"`
	QuestionID string    `json:"questionId"`
	Selected   string    `json:"selectedAnswer"` // A-E, or S for an explicit skip
	IsCorrect  bool      `json:"isCorrect"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ScoredResponse is a response joined with the display fields the
// ranking engine attaches to leaderboard entries.
type ScoredResponse struct {
	Response
	DisplayName string `json:"displayName"`
	CollegeName string `json:"collegeName"`
}

// LeaderboardEntry is one ranked row of a topic leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	CollegeName string `json:"collegeName"`
	TotalScore  int    `json:"totalScore"`
}

// Leaderboard is the ordered top-N scoreboard for a topic.
type Leaderboard struct {
	TopicID   string             `json:"topicId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// AnswerDetail is a user's recorded answer for one specific question.
type AnswerDetail struct {
	QuestionID string `json:"questionId"`
	Selected   string `json:"selectedAnswer"`
	IsCorrect  bool   `json:"isCorrect"`
	Score      int    `json:"score"`
}

// UserStatus isolates one user's standing inside a positional leaderboard.
// Rank is nil when the user falls outside the top-N or has no responses.
type UserStatus struct {
	UserID     string        `json:"userId"`
	Rank       *int          `json:"rank"`
	TotalScore int           `json:"totalScore"`
	Current    *AnswerDetail `json:"current"`
}

// PositionalStatus freezes the leaderboard at a point in the question
// sequence and pairs it with the target user's own standing.
type PositionalStatus struct {
	Leaderboard Leaderboard `json:"leaderboard"`
	User        UserStatus  `json:"user"`
}
