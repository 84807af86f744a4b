package repository

import (
	"context"
	"time"

	"github.com/xalleer/kitchen-os-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobRepository interface {
	Create(ctx context.Context, job *model.MealPlanGenerationJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MealPlanGenerationJob, error)
	OldestPending(ctx context.Context) (*model.MealPlanGenerationJob, error)
	// Claim moves PENDING -> RUNNING and reports whether this caller won.
	Claim(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkDone(ctx context.Context, id uuid.UUID, at time.Time, result datatypes.JSON) error
	MarkFailed(ctx context.Context, id uuid.UUID, at time.Time, msg string) error
}

type jobRepo struct{ db *gorm.DB }

func NewJobRepository(db *gorm.DB) JobRepository { return &jobRepo{db: db} }

func (r *jobRepo) Create(ctx context.Context, job *model.MealPlanGenerationJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.MealPlanGenerationJob, error) {
	var job model.MealPlanGenerationJob
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	return &job, err
}

func (r *jobRepo) OldestPending(ctx context.Context) (*model.MealPlanGenerationJob, error) {
	var job model.MealPlanGenerationJob
	err := r.db.WithContext(ctx).
		Where("status = ?", model.JobPending).
		Order("created_at ASC").
		First(&job).Error
	return &job, err
}

func (r *jobRepo) Claim(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.MealPlanGenerationJob{}).
		Where("id = ? AND status = ?", id, model.JobPending).
		Updates(map[string]interface{}{"status": model.JobRunning, "started_at": at})
	return res.RowsAffected == 1, res.Error
}

func (r *jobRepo) MarkDone(ctx context.Context, id uuid.UUID, at time.Time, result datatypes.JSON) error {
	return r.db.WithContext(ctx).Model(&model.MealPlanGenerationJob{}).
		Where("id = ? AND status = ?", id, model.JobRunning).
		Updates(map[string]interface{}{"status": model.JobDone, "finished_at": at, "result": result}).Error
}

func (r *jobRepo) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time, msg string) error {
	return r.db.WithContext(ctx).Model(&model.MealPlanGenerationJob{}).
		Where("id = ? AND status = ?", id, model.JobRunning).
		Updates(map[string]interface{}{"status": model.JobFailed, "finished_at": at, "error": msg}).Error
}
