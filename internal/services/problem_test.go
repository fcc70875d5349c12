package services

import (
	"context"
	"testing"
	"time"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/internal/store"
)

func TestProblemService_CRUD(t *testing.T) {
	svc := NewProblemService(store.NewMemoryStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, &ProblemRequest{Title: "  Smart Parking  ", Track: "iot", Description: "Find a spot"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.ID == "" || created.Title != "Smart Parking" {
		t.Errorf("created = %+v, expected id and trimmed title", created)
	}

	if _, err := svc.Create(ctx, &ProblemRequest{Title: "Smart Parking"}); apperr.CodeOf(err) != apperr.CodeProblemTitleExists {
		t.Errorf("duplicate title: err = %v, expected %s", err, apperr.CodeProblemTitleExists)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil || got.Description != "Find a spot" {
		t.Errorf("Get = %+v, %v", got, err)
	}

	updated, err := svc.Update(ctx, created.ID, &ProblemRequest{Title: "Smarter Parking", Track: "iot"})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Title != "Smarter Parking" || updated.Description != "" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := svc.Update(ctx, "missing", &ProblemRequest{Title: "X"}); apperr.CodeOf(err) != apperr.CodeProblemNotFound {
		t.Errorf("Update missing: err = %v, expected not found", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); apperr.CodeOf(err) != apperr.CodeProblemNotFound {
		t.Errorf("Get after delete: err = %v, expected not found", err)
	}
	if err := svc.Delete(ctx, created.ID); apperr.CodeOf(err) != apperr.CodeProblemNotFound {
		t.Errorf("Delete twice: err = %v, expected not found", err)
	}
}

func TestProblemService_Validation(t *testing.T) {
	svc := NewProblemService(store.NewMemoryStore())
	release := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	before := release.Add(-time.Hour)

	tests := []struct {
		name string
		req  ProblemRequest
	}{
		{"blank title", ProblemRequest{Title: "   "}},
		{"deadline before release", ProblemRequest{Title: "P", ReleaseDate: &release, Deadline: &before}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := svc.Create(context.Background(), &req); apperr.CodeOf(err) != apperr.CodeValidation {
				t.Errorf("err = %v, expected validation error", err)
			}
		})
	}
}

func TestProblemService_ListByTrack(t *testing.T) {
	svc := NewProblemService(store.NewMemoryStore())
	ctx := context.Background()
	for _, req := range []ProblemRequest{
		{Title: "A", Track: "web"},
		{Title: "B", Track: "ai"},
		{Title: "C", Track: "web"},
	} {
		req := req
		if _, err := svc.Create(ctx, &req); err != nil {
			t.Fatalf("Create(%s) error: %v", req.Title, err)
		}
	}

	all, err := svc.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Errorf("List all = %d, %v; expected 3", len(all), err)
	}
	web, err := svc.List(ctx, "web")
	if err != nil || len(web) != 2 {
		t.Errorf("List web = %d, %v; expected 2", len(web), err)
	}
}

func TestProblemService_SeedSkipsExisting(t *testing.T) {
	svc := NewProblemService(store.NewMemoryStore())
	ctx := context.Background()
	reqs := []ProblemRequest{{Title: "A"}, {Title: "B"}}

	n, err := svc.Seed(ctx, reqs)
	if err != nil || n != 2 {
		t.Fatalf("first Seed = %d, %v; expected 2, nil", n, err)
	}

	n, err = svc.Seed(ctx, []ProblemRequest{{Title: "A"}, {Title: "C"}})
	if err != nil || n != 1 {
		t.Errorf("second Seed = %d, %v; expected 1, nil", n, err)
	}

	_, err = svc.Seed(ctx, []ProblemRequest{{Title: ""}})
	if apperr.CodeOf(err) != apperr.CodeValidation {
		t.Errorf("Seed with blank title: err = %v, expected validation", err)
	}
}
