package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MealType string

const (
	MealBreakfast MealType = "BREAKFAST"
	MealLunch     MealType = "LUNCH"
	MealDinner    MealType = "DINNER"
	MealSnack     MealType = "SNACK"
)

// MealTypes lists every meal type in day order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

// ParseMealType accepts any casing of the four meal types.
func ParseMealType(s string) (MealType, error) {
	t := MealType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return t, nil
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// MealPlan is one (date, meal type) slot. Cooked and skipped are set at most once
// and never both.
type MealPlan struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FamilyID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_meal_plans_family_date" json:"family_id"`
	Date      time.Time  `gorm:"type:date;not null;index:idx_meal_plans_family_date" json:"date"`
	Type      MealType   `gorm:"type:varchar(16);not null" json:"type"`
	RecipeID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipe_id"`
	IsCooked  bool       `gorm:"not null;default:false" json:"is_cooked"`
	CookedAt  *time.Time `json:"cooked_at,omitempty"`
	IsSkipped bool       `gorm:"not null;default:false" json:"is_skipped"`
	SkippedAt *time.Time `json:"skipped_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	Recipe Recipe `gorm:"foreignKey:RecipeID" json:"recipe"`
}

func (MealPlan) TableName() string { return "meal_plans" }

type JobStatus string

const (
	JobPending JobStatus = "PENDING"
	JobRunning JobStatus = "RUNNING"
	JobDone    JobStatus = "DONE"
	JobFailed  JobStatus = "FAILED"
)

// MealPlanGenerationJob is an asynchronous plan generation request.
// PENDING -> RUNNING is a conditional claim; DONE and FAILED are terminal.
type MealPlanGenerationJob struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FamilyID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"family_id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null" json:"user_id"`
	DaysCount  int            `gorm:"not null" json:"days_count"`
	Status     JobStatus      `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	Error      *string        `gorm:"type:text" json:"error,omitempty"`
	Result     datatypes.JSON `json:"result,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

func (MealPlanGenerationJob) TableName() string { return "meal_plan_generation_jobs" }
