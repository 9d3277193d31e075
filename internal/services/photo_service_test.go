package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/tawafuqapp/tawafuq/internal/models"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

type fakePhotoRepo struct {
	rows []models.Photo
}

func (f *fakePhotoRepo) Insert(_ context.Context, p *models.Photo) error {
	f.rows = append(f.rows, *p)
	return nil
}

func (f *fakePhotoRepo) ListByUser(_ context.Context, userID string) ([]models.Photo, error) {
	var out []models.Photo
	for _, p := range f.rows {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeObjectStore struct {
	uploads map[string]string // object path -> content type
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{uploads: map[string]string{}}
}

func (f *fakeObjectStore) Upload(_ context.Context, objectName, contentType string, r io.Reader) error {
	_, _ = io.Copy(io.Discard, r)
	f.uploads[objectName] = contentType
	return nil
}

func (f *fakeObjectStore) SignedGetURL(objectName string, _ time.Duration) (string, error) {
	return "https://signed.example/" + objectName, nil
}

func (f *fakeObjectStore) Close() error { return nil }

func TestPhotoUpload(t *testing.T) {
	ctx := context.Background()

	photos := &fakePhotoRepo{}
	store := newFakeObjectStore()
	svc := NewPhotoService(photos, newFakeMatchRepo(), store, nil)

	p, err := svc.Upload(ctx, "alice", "me.jpg", "image/jpeg", 1234, strings.NewReader("jpegdata"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if p.UserID != "alice" || p.ObjectPath == "" {
		t.Fatalf("bad row %+v", p)
	}
	if store.uploads[p.ObjectPath] != "image/jpeg" {
		t.Fatalf("object not uploaded: %v", store.uploads)
	}
	if len(photos.rows) != 1 {
		t.Fatal("row not stored")
	}
}

func TestListForMatch(t *testing.T) {
	ctx := context.Background()

	seed := func(step models.Step, status models.Status) (PhotoService, *fakePhotoRepo) {
		matches := newFakeMatchRepo()
		matches.add(seedMatch("m1", "alice", "bob", step, status))
		photos := &fakePhotoRepo{}
		photos.rows = append(photos.rows, models.Photo{ID: "p1", UserID: "bob", ObjectPath: "photos/bob/p1"})
		return NewPhotoService(photos, matches, newFakeObjectStore(), nil), photos
	}

	t.Run("revealed from photo_approved onward", func(t *testing.T) {
		for _, step := range []models.Step{
			models.StepPhotoApproved,
			models.StepFullDataRequested,
			models.StepFullDataApproved,
			models.StepChatting,
		} {
			svc, _ := seed(step, models.StatusApproved)
			out, err := svc.ListForMatch(ctx, "m1", "alice")
			if err != nil {
				t.Fatalf("step %s: %v", step, err)
			}
			if len(out) != 1 || out[0].URL == "" {
				t.Fatalf("step %s: got %v", step, out)
			}
		}
	})

	t.Run("hidden before approval", func(t *testing.T) {
		for _, step := range []models.Step{
			models.StepProfileRequest,
			models.StepProfileViewed,
			models.StepPhotoRequested,
			models.StepRejected,
		} {
			svc, _ := seed(step, models.StatusApproved)
			if _, err := svc.ListForMatch(ctx, "m1", "alice"); !utils.IsCode(err, utils.CodeForbidden) {
				t.Fatalf("step %s: expected FORBIDDEN, got %v", step, err)
			}
		}
	})

	t.Run("blocked match hides photos regardless of step", func(t *testing.T) {
		svc, _ := seed(models.StepPhotoApproved, models.StatusBlocked)
		if _, err := svc.ListForMatch(ctx, "m1", "alice"); !utils.IsCode(err, utils.CodeForbidden) {
			t.Fatalf("expected FORBIDDEN, got %v", err)
		}
	})

	t.Run("outsiders are unauthorized", func(t *testing.T) {
		svc, _ := seed(models.StepPhotoApproved, models.StatusApproved)
		if _, err := svc.ListForMatch(ctx, "m1", "mallory"); !utils.IsCode(err, utils.CodeUnauthorized) {
			t.Fatalf("expected UNAUTHORIZED, got %v", err)
		}
	})
}
