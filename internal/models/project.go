package models

import (
	"time"

	"gorm.io/gorm"
)

// Methodology selects the phase vocabulary a project displays its workflow in.
type Methodology string

const (
	MethodologyKanban    Methodology = "kanban"
	MethodologyScrum     Methodology = "scrum"
	MethodologyAgile     Methodology = "agile"
	MethodologyWaterfall Methodology = "waterfall"
	MethodologyLean      Methodology = "lean"
)

// Methodologies lists every supported methodology.
var Methodologies = []Methodology{
	MethodologyKanban,
	MethodologyScrum,
	MethodologyAgile,
	MethodologyWaterfall,
	MethodologyLean,
}

// Valid reports whether m is a known methodology.
func (m Methodology) Valid() bool {
	for _, known := range Methodologies {
		if m == known {
			return true
		}
	}
	return false
}

type Project struct {
	ID            uint64            `gorm:"primarykey" json:"id"`
	Name          string            `gorm:"type:varchar(255);not null" json:"name"`
	Methodology   Methodology       `gorm:"type:varchar(20);not null;default:'kanban'" json:"methodology"`
	StatusAliases map[string]string `gorm:"type:text;serializer:json" json:"status_aliases,omitempty"`
	OwnerID       uint64            `gorm:"not null" json:"owner_id"`
	InviteCode    string            `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	DeletedAt     gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relations
	Owner   User            `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Tasks   []Task          `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

// EffectiveMethodology returns the project's methodology, defaulting to kanban.
func (p *Project) EffectiveMethodology() Methodology {
	if p == nil || !p.Methodology.Valid() {
		return MethodologyKanban
	}
	return p.Methodology
}

// People returns the owner followed by every member, without duplicates.
// The owner is included even when no membership row exists for them.
// Relations must be preloaded.
func (p *Project) People() []User {
	seen := make(map[uint64]struct{}, len(p.Members)+1)
	people := make([]User, 0, len(p.Members)+1)
	if p.Owner.ID != 0 {
		seen[p.Owner.ID] = struct{}{}
		people = append(people, p.Owner)
	}
	for _, m := range p.Members {
		if m.User.ID == 0 {
			continue
		}
		if _, ok := seen[m.User.ID]; ok {
			continue
		}
		seen[m.User.ID] = struct{}{}
		people = append(people, m.User)
	}
	return people
}

// HasPerson reports whether userID is the owner or a member.
func (p *Project) HasPerson(userID uint64) bool {
	if userID == 0 {
		return false
	}
	if p.OwnerID == userID {
		return true
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
