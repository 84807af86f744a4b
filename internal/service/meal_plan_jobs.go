package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// jobResult is what a finished job keeps; the plan itself is read back via List.
type jobResult struct {
	EstimatedCost string `json:"estimated_cost"`
	DaysCount     int    `json:"days_count"`
	TotalMeals    int    `json:"total_meals"`
}

func (s *mealPlanService) GenerateAsync(ctx context.Context, familyID, userID uuid.UUID, days int) (*JobTicket, error) {
	if days <= 0 {
		days = maxPlanDays
	}
	days = max(1, min(maxPlanDays, days))

	if _, err := s.families.FindByID(ctx, familyID); err != nil {
		return nil, notFound("Family", err)
	}
	job := &model.MealPlanGenerationJob{
		FamilyID:  familyID,
		UserID:    userID,
		DaysCount: days,
		Status:    model.JobPending,
		CreatedAt: s.clock.now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.Enqueue(ctx, job.ID); err != nil {
			// the poller still finds it
			log.Warn().Err(err).Str("job_id", job.ID.String()).Msg("meal plan: enqueue failed")
		}
	}
	return &JobTicket{JobID: job.ID, Status: job.Status, CreatedAt: job.CreatedAt}, nil
}

func (s *mealPlanService) GetJob(ctx context.Context, familyID, jobID uuid.UUID) (*model.MealPlanGenerationJob, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, notFound("Meal plan generation job", err)
	}
	if job.FamilyID != familyID {
		return nil, &NotFoundError{Entity: "Meal plan generation job"}
	}
	return job, nil
}

func (s *mealPlanService) NextPendingJob(ctx context.Context) (uuid.UUID, bool, error) {
	job, err := s.jobs.OldestPending(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return job.ID, true, nil
}

// ProcessJob returns the generation error after recording it on the job; a
// failed job stays FAILED.
func (s *mealPlanService) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	claimed, err := s.jobs.Claim(ctx, jobID, s.clock.now())
	if err != nil {
		return fmt.Errorf("claim job: %w", err)
	}
	if !claimed {
		log.Debug().Str("job_id", jobID.String()).Msg("meal plan: job already claimed")
		return nil
	}
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	log.Info().Str("job_id", jobID.String()).Str("family_id", job.FamilyID.String()).Int("days", job.DaysCount).Msg("meal plan: job running")

	res, genErr := s.Generate(ctx, job.FamilyID, GenerateInput{Days: job.DaysCount})
	if genErr != nil {
		log.Error().Err(genErr).Str("job_id", jobID.String()).Msg("meal plan: job failed")
		if err := s.jobs.MarkFailed(ctx, jobID, s.clock.now(), genErr.Error()); err != nil {
			return fmt.Errorf("mark job failed: %w", err)
		}
		return genErr
	}

	payload, err := json.Marshal(jobResult{
		EstimatedCost: res.EstimatedCost.StringFixed(2),
		DaysCount:     res.DaysCount,
		TotalMeals:    res.TotalMeals,
	})
	if err != nil {
		return err
	}
	if err := s.jobs.MarkDone(ctx, jobID, s.clock.now(), datatypes.JSON(payload)); err != nil {
		return fmt.Errorf("mark job done: %w", err)
	}
	log.Info().Str("job_id", jobID.String()).Int("meals", res.TotalMeals).Msg("meal plan: job done")
	return nil
}
