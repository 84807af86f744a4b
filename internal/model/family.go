package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Family is the tenant: every inventory batch, plan, budget week and list entry belongs to one.
type Family struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	BudgetLimit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"budget_limit"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Members []FamilyMember `gorm:"foreignKey:FamilyID" json:"members,omitempty"`
}

func (Family) TableName() string { return "families" }

// FamilyMember is a person the plan cooks for. Allergies is a JSON array of strings.
type FamilyMember struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FamilyID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"family_id"`
	UserID        *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name          string         `gorm:"not null" json:"name"`
	Goal          string         `gorm:"not null;default:'MAINTAIN'" json:"goal"`
	Allergies     datatypes.JSON `json:"allergies"`
	EatsBreakfast bool           `gorm:"not null;default:true" json:"eats_breakfast"`
	EatsLunch     bool           `gorm:"not null;default:true" json:"eats_lunch"`
	EatsDinner    bool           `gorm:"not null;default:true" json:"eats_dinner"`
	EatsSnack     bool           `gorm:"not null;default:false" json:"eats_snack"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (FamilyMember) TableName() string { return "family_members" }

// AllergyList decodes Allergies; malformed JSON yields no allergies.
func (m FamilyMember) AllergyList() []string {
	if len(m.Allergies) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(m.Allergies, &out); err != nil {
		return nil
	}
	return out
}

// UserPreference holds a user's meal schedule. Nil flags and times fall back to defaults.
type UserPreference struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	EatsBreakfast *bool     `json:"eats_breakfast,omitempty"`
	EatsLunch     *bool     `json:"eats_lunch,omitempty"`
	EatsDinner    *bool     `json:"eats_dinner,omitempty"`
	EatsSnack     *bool     `json:"eats_snack,omitempty"`
	BreakfastTime *string   `json:"breakfast_time,omitempty"`
	LunchTime     *string   `json:"lunch_time,omitempty"`
	DinnerTime    *string   `json:"dinner_time,omitempty"`
	SnackTime     *string   `json:"snack_time,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (UserPreference) TableName() string { return "user_preferences" }
