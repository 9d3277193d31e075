package services

import (
	"context"
	"errors"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tawafuqapp/tawafuq/internal/models"
	pgrepo "github.com/tawafuqapp/tawafuq/internal/repositories/postgres"
	"github.com/tawafuqapp/tawafuq/internal/storage"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

const signedPhotoTTL = time.Hour

// steps at which a counterpart's photos become visible
var photoVisibleSteps = map[models.Step]bool{
	models.StepPhotoApproved:     true,
	models.StepFullDataRequested: true,
	models.StepFullDataApproved:  true,
	models.StepChatting:          true,
}

// PhotoView is a photo row paired with a short-lived signed URL.
type PhotoView struct {
	Photo models.Photo `json:"photo"`
	URL   string       `json:"url"`
}

// PhotoService stores profile photos privately and reveals them to a match
// counterpart only after the photo stage has been approved.
type PhotoService interface {
	Upload(ctx context.Context, userID, fileName, mimeType string, size int, r io.Reader) (*models.Photo, error)
	ListOwn(ctx context.Context, userID string) ([]PhotoView, error)
	ListForMatch(ctx context.Context, matchID, actorID string) ([]PhotoView, error)
}

type photoService struct {
	photos  pgrepo.PhotoRepository
	matches pgrepo.MatchRepository
	store   storage.ObjectStore
	log     *logrus.Logger
}

func NewPhotoService(photos pgrepo.PhotoRepository, matches pgrepo.MatchRepository, store storage.ObjectStore, log *logrus.Logger) PhotoService {
	return &photoService{photos: photos, matches: matches, store: store, log: log}
}

func (s *photoService) Upload(ctx context.Context, userID, fileName, mimeType string, size int, r io.Reader) (*models.Photo, error) {
	const op = "PhotoService.Upload"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if s.store == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "photo storage is not configured", nil)
	}

	objectPath := path.Join("photos", userID, uuid.NewString())
	if err := s.store.Upload(ctx, objectPath, mimeType, r); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to upload photo", err)
	}

	p := &models.Photo{
		ID:         uuid.NewString(),
		UserID:     userID,
		ObjectPath: objectPath,
		FileName:   fileName,
		FileSize:   size,
		MimeType:   mimeType,
		UploadAt:   time.Now().UTC(),
	}
	if err := s.photos.Insert(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store photo record", err)
	}
	return p, nil
}

func (s *photoService) ListOwn(ctx context.Context, userID string) ([]PhotoView, error) {
	const op = "PhotoService.ListOwn"

	rows, err := s.photos.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list photos", err)
	}
	return s.sign(op, rows)
}

// ListForMatch returns the counterpart's photos for a match. The actor always
// needs to be a party; the counterpart's photos are only revealed from the
// photo_approved step onward.
func (s *photoService) ListForMatch(ctx context.Context, matchID, actorID string) ([]PhotoView, error) {
	const op = "PhotoService.ListForMatch"

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "match not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load match", err)
	}
	if !m.HasUser(actorID) {
		return nil, utils.E(utils.CodeUnauthorized, op, "not a party to this match", nil)
	}
	if m.Status == models.StatusBlocked || !photoVisibleSteps[m.Step] {
		return nil, utils.E(utils.CodeForbidden, op, "photos are not shared at this stage", nil)
	}

	counterpart, _ := m.CounterpartOf(actorID)
	rows, err := s.photos.ListByUser(ctx, counterpart)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list photos", err)
	}
	return s.sign(op, rows)
}

func (s *photoService) sign(op string, rows []models.Photo) ([]PhotoView, error) {
	if s.store == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "photo storage is not configured", nil)
	}
	out := make([]PhotoView, 0, len(rows))
	for _, p := range rows {
		url, err := s.store.SignedGetURL(p.ObjectPath, signedPhotoTTL)
		if err != nil {
			if s.log != nil {
				s.log.WithError(err).WithField("photo_id", p.ID).Warn("failed to sign photo url")
			}
			continue
		}
		out = append(out, PhotoView{Photo: p, URL: url})
	}
	return out, nil
}
