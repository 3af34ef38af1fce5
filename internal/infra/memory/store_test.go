package memory

import (
	"context"
	"testing"
	"time"

	"medlearn-service/internal/domain"
)

func TestUpsertResponseKeepsEncounterOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	seed := []domain.Response{
		{ID: "r1", UserID: "u1", TopicID: "t1", QuestionID: "q1", Score: 4, CreatedAt: created},
		{ID: "r2", UserID: "u2", TopicID: "t1", QuestionID: "q1", Score: -1, CreatedAt: created.Add(time.Second)},
	}
	for _, r := range seed {
		if err := store.UpsertResponse(ctx, r); err != nil {
			t.Fatalf("seed response: %v", err)
		}
	}

	// resubmission by u1 must overwrite in place, not append
	update := domain.Response{
		ID: "new-id", UserID: "u1", TopicID: "t1", QuestionID: "q1",
		Score: -1, CreatedAt: created.Add(time.Minute), UpdatedAt: created.Add(time.Minute),
	}
	if err := store.UpsertResponse(ctx, update); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	responses, err := store.LoadScoredResponses(ctx, "t1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	got := responses[0].Response
	if got.ID != "r1" {
		t.Fatalf("upsert must keep the stored id, got %q", got.ID)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("upsert must keep CreatedAt, got %v", got.CreatedAt)
	}
	if got.Score != -1 {
		t.Fatalf("score not overwritten: %+v", got)
	}
	if responses[1].UserID != "u2" {
		t.Fatalf("encounter order broken: %+v", responses)
	}
}

func TestLoadScoredResponsesJoinsDisplayFields(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	store.AddCollege(domain.College{ID: "c1", Name: "AIIMS Delhi"})
	if err := store.CreateUser(ctx, domain.User{ID: "u1", Name: "Asha", CollegeID: "c1"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := store.UpsertResponse(ctx, domain.Response{ID: "r1", UserID: "u1", TopicID: "t1", QuestionID: "q1", Score: 4}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	responses, err := store.LoadScoredResponses(ctx, "t1")
	if err != nil || len(responses) != 1 {
		t.Fatalf("load: %v %d", err, len(responses))
	}
	if responses[0].DisplayName != "Asha" || responses[0].CollegeName != "AIIMS Delhi" {
		t.Fatalf("display fields not joined: %+v", responses[0])
	}
}

func TestDeleteTopicDropsUploads(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.CreateTopic(ctx, domain.Topic{ID: "t1", Name: "Cardiac Cycle"}); err != nil {
		t.Fatalf("create topic: %v", err)
	}
	if err := store.AppendUpload(ctx, domain.UploadBatch{ID: "b1", TopicID: "t1"}); err != nil {
		t.Fatalf("append upload: %v", err)
	}
	if err := store.DeleteTopic(ctx, "t1"); err != nil {
		t.Fatalf("delete topic: %v", err)
	}
	batches, err := store.ListUploads(ctx, "t1")
	if err != nil || len(batches) != 0 {
		t.Fatalf("uploads must go with the topic: %v %+v", err, batches)
	}
}
