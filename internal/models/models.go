// Package models defines the application's gorm entities.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps adds create and update lifecycle columns to a model.
type Timestamps struct {
	Created time.Time `gorm:"column:created;autoCreateTime" label:"Created"`
	Updated time.Time `gorm:"column:updated;autoUpdateTime" label:"Updated"`
}

// User is an account that can sign in and, when SuperUser, access the
// admin area.
type User struct {
	ID       uint   `gorm:"primaryKey"`
	Email    string `gorm:"size:255;uniqueIndex;not null" label:"E-Mail"`
	Password string `gorm:"size:255;not null" label:"Password"`

	SuperUser bool `gorm:"default:false" label:"Super User"`
	Active    bool `gorm:"default:false" label:"Active"`

	ConfirmedAt    *time.Time
	LastLoginAt    *time.Time `label:"Last Login At"`
	CurrentLoginAt *time.Time `label:"Current Login At"`
	LastLoginIP    string     `gorm:"size:45"`
	CurrentLoginIP string     `gorm:"size:45"`
	LoginCount     int

	Roles []Role `gorm:"many2many:users_roles;constraint:OnDelete:CASCADE"`
	Jobs  []Job  `gorm:"constraint:OnDelete:CASCADE"`

	Timestamps
}

func (User) TableName() string { return "user" }

// IsAdmin reports whether the user may access the admin area.
func (u *User) IsAdmin() bool { return u.SuperUser }

func (u *User) String() string { return u.Email }

// RecordLogin shifts the current login tracking columns into the last
// slots and records the new sign-in.
func (u *User) RecordLogin(ip string, at time.Time) {
	u.LastLoginAt = u.CurrentLoginAt
	u.LastLoginIP = u.CurrentLoginIP
	now := at
	u.CurrentLoginAt = &now
	u.CurrentLoginIP = ip
	u.LoginCount++
}

// Role is a named grant attachable to users.
type Role struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:80;uniqueIndex" label:"Name"`
	Description string `gorm:"size:255" label:"Description"`

	Users []User `gorm:"many2many:users_roles;constraint:OnDelete:CASCADE"`

	Timestamps
}

func (Role) TableName() string { return "role" }

func (r *Role) String() string { return r.Name }

// Job is a posted job ad. Spec holds the media-relative path of the
// uploaded specification file.
type Job struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;index"`

	Title string `gorm:"size:64;not null" label:"Job Title"`
	Blurb string `gorm:"size:144;not null" label:"Blurb"`
	Spec  string `gorm:"size:512;not null" label:"Spec (PDF)"`

	User *User `gorm:"constraint:OnDelete:CASCADE"`

	Timestamps
}

func (Job) TableName() string { return "jobs" }

func (j *Job) String() string { return j.Title }

// All lists every model for test automigrations. Production schema
// comes from the SQL migrations.
func All() []any {
	return []any{&User{}, &Role{}, &Job{}}
}

// Migrate creates the schema for all models. Test helper.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
