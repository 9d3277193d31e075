package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tawafuqapp/tawafuq/internal/models"
	"github.com/tawafuqapp/tawafuq/internal/queue"
	pgrepo "github.com/tawafuqapp/tawafuq/internal/repositories/postgres"
	"github.com/tawafuqapp/tawafuq/internal/utils"
	"gorm.io/datatypes"
)

var knownInstruments = map[string]bool{
	models.TestPreMarriage: true,
	models.TestDISC:        true,
	models.TestClinical:    true,
	models.Test16PF:        true,
}

// TestResultService accepts psychometric submissions. Each submission is an
// immutable row; recomputation of the submitter's traits and affected pair
// scores is handed to the dispatcher.
type TestResultService interface {
	Submit(ctx context.Context, userID, testType string, score *float64, answers datatypes.JSON) (*models.TestResult, error)
	History(ctx context.Context, userID string) ([]models.TestResult, error)
}

type testResultService struct {
	tests      pgrepo.TestResultRepository
	dispatcher queue.Dispatcher
	log        *logrus.Logger
}

func NewTestResultService(tests pgrepo.TestResultRepository, dispatcher queue.Dispatcher, log *logrus.Logger) TestResultService {
	return &testResultService{tests: tests, dispatcher: dispatcher, log: log}
}

func (s *testResultService) Submit(ctx context.Context, userID, testType string, score *float64, answers datatypes.JSON) (*models.TestResult, error) {
	const op = "TestResultService.Submit"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if !knownInstruments[testType] {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown test type", nil)
	}
	if score != nil && (*score < 0 || *score > 100) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "score must be between 0 and 100", nil)
	}

	row := &models.TestResult{
		ID:        uuid.NewString(),
		UserID:    userID,
		TestType:  testType,
		Score:     score,
		Answers:   answers,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tests.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store test result", err)
	}

	// the row is committed either way; a dispatch failure only delays
	// recomputation until the next submission or an admin rescore
	if err := s.dispatcher.EnqueueUser(ctx, userID); err != nil && s.log != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("failed to dispatch recompute after test submission")
	}

	return row, nil
}

func (s *testResultService) History(ctx context.Context, userID string) ([]models.TestResult, error) {
	const op = "TestResultService.History"

	out, err := s.tests.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load test results", err)
	}
	return out, nil
}
