package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DisplayName falls back to the e-mail when the profile has no name yet.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}

type LocalUser struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type CourseType struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

type Course struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	CourseTypeID uuid.UUID `db:"course_type_id" json:"course_type_id"`
	Type         string    `db:"type_name" json:"type"`
}

type Origin struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

type Stage struct {
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
	Position int    `db:"position" json:"position"`
}

type Lead struct {
	ID            uuid.UUID      `db:"id"`
	Name          string         `db:"name"`
	Phone         sql.NullString `db:"phone"`
	Email         sql.NullString `db:"email"`
	CourseID      uuid.NullUUID  `db:"course_id"`
	OriginID      uuid.NullUUID  `db:"origin_id"`
	Status        string         `db:"status"`
	Stage         string         `db:"stage"`
	OwnerID       uuid.NullUUID  `db:"owner_id"`
	CreatedAt     time.Time      `db:"created_at"`
	LastContactAt sql.NullTime   `db:"last_contact_at"`
	ConvertedAt   sql.NullTime   `db:"converted_at"`
}

type LeadListItem struct {
	Lead
	CourseName sql.NullString `db:"course_name"`
	OriginName sql.NullString `db:"origin_name"`
	OwnerName  sql.NullString `db:"owner_name"`
}

type Interaction struct {
	ID          uuid.UUID      `db:"id"`
	LeadID      uuid.UUID      `db:"lead_id"`
	UserID      uuid.NullUUID  `db:"user_id"`
	Type        string         `db:"type"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
	AuthorName  sql.NullString `db:"author_name"`
	LeadName    sql.NullString `db:"lead_name"`
}

type LeadDetail struct {
	Lead         *Lead
	CourseName   sql.NullString
	OriginName   sql.NullString
	StageName    sql.NullString
	Owner        *Profile
	Interactions []*Interaction
}

// LeadFilter narrows the leads panel. Empty fields (or "todos") match everything.
type LeadFilter struct {
	Search   string
	Status   string
	CourseID string
}

type NewLead struct {
	Name        string
	Phone       string
	Email       string
	CourseID    uuid.UUID
	OriginID    uuid.UUID
	Status      string
	Stage       string
	OwnerID     uuid.NullUUID
	Description string
}

type LeadUpdate struct {
	Name     string
	Phone    string
	Email    string
	CourseID uuid.UUID
	OriginID uuid.UUID
	Status   string
	Stage    string
}

type NewInteraction struct {
	LeadID      uuid.UUID
	UserID      uuid.NullUUID
	Type        string
	Description string
}

// DashboardRow is one lead as seen by the dashboard aggregations.
type DashboardRow struct {
	ID             uuid.UUID      `db:"id"`
	Status         string         `db:"status"`
	Stage          string         `db:"stage"`
	CreatedAt      time.Time      `db:"created_at"`
	ConvertedAt    sql.NullTime   `db:"converted_at"`
	OriginName     sql.NullString `db:"origin_name"`
	CourseTypeName sql.NullString `db:"course_type_name"`
	OwnerID        uuid.NullUUID  `db:"owner_id"`
	OwnerName      sql.NullString `db:"owner_name"`
}

// ConversionRow is one enrolled lead attributed to a salesperson.
type ConversionRow struct {
	ConvertedAt time.Time      `db:"converted_at"`
	OwnerName   sql.NullString `db:"owner_name"`
}

// DateRange bounds created_at; zero values leave that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

type ConversionQuery struct {
	Since      time.Time
	CourseType string
	CourseID   string
}

// OpenLead is the minimal projection used when recomputing temperatures.
type OpenLead struct {
	ID            uuid.UUID    `db:"id"`
	Status        string       `db:"status"`
	CreatedAt     time.Time    `db:"created_at"`
	LastContactAt sql.NullTime `db:"last_contact_at"`
}
