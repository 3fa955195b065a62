package auth

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/models"
	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/form"
)

const credentialsMessage = "Incorrect email or password combination."

// HashPassword encrypts a plaintext password for storage.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// AuthenticationForm validates a sign-in attempt. Credential failures
// surface as field errors, never as distinct "no such user" messages.
type AuthenticationForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`

	db   *gorm.DB
	user *models.User
}

// NewAuthenticationForm creates a login form bound to the database.
func NewAuthenticationForm(db *gorm.DB) *AuthenticationForm {
	return &AuthenticationForm{db: db}
}

func (f *AuthenticationForm) Bind(r *http.Request) error {
	return form.Decode(r, f)
}

func (f *AuthenticationForm) Validate() (form.Errors, error) {
	errs, err := form.Validate(f)
	if err != nil {
		return nil, err
	}
	if errs.Any() {
		return errs, nil
	}

	var user models.User
	if err := f.db.Where("email = ?", f.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			errs.Add("password", credentialsMessage)
			return errs, nil
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(f.Password)) != nil {
		errs.Add("password", credentialsMessage)
		return errs, nil
	}
	if !user.Active {
		errs.Add("password", "This account is not active.")
		return errs, nil
	}

	f.user = &user
	return errs, nil
}

// User returns the authenticated user after a successful Validate.
func (f *AuthenticationForm) User() *models.User {
	return f.user
}

// NewUserForm creates a user from the admin area. The password is
// hashed during Populate.
type NewUserForm struct {
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required,min=8"`
	Active    bool   `form:"active"`
	SuperUser bool   `form:"super_user"`
}

func (f *NewUserForm) Bind(r *http.Request) error {
	return form.Decode(r, f)
}

func (f *NewUserForm) Validate() (form.Errors, error) {
	return form.Validate(f)
}

func (f *NewUserForm) Populate(c web.Context, u *models.User) error {
	hash, err := HashPassword(f.Password)
	if err != nil {
		return err
	}
	u.Email = f.Email
	u.Password = hash
	u.Active = f.Active
	u.SuperUser = f.SuperUser
	return nil
}

// UpdateUserForm edits account details without touching the password.
type UpdateUserForm struct {
	Email     string `form:"email" validate:"required,email"`
	Active    bool   `form:"active"`
	SuperUser bool   `form:"super_user"`
}

func (f *UpdateUserForm) Bind(r *http.Request) error {
	return form.Decode(r, f)
}

func (f *UpdateUserForm) Validate() (form.Errors, error) {
	return form.Validate(f)
}

func (f *UpdateUserForm) Populate(c web.Context, u *models.User) error {
	u.Email = f.Email
	u.Active = f.Active
	u.SuperUser = f.SuperUser
	return nil
}

func (f *UpdateUserForm) Prefill(u *models.User) {
	f.Email = u.Email
	f.Active = u.Active
	f.SuperUser = u.SuperUser
}

// PasswordForm changes a user's password; both fields must match.
type PasswordForm struct {
	Password string `form:"password" validate:"required,min=8,eqfield=Confirm"`
	Confirm  string `form:"confirm" validate:"required"`
}

func (f *PasswordForm) Bind(r *http.Request) error {
	return form.Decode(r, f)
}

func (f *PasswordForm) Validate() (form.Errors, error) {
	return form.Validate(f)
}

func (f *PasswordForm) Populate(c web.Context, u *models.User) error {
	hash, err := HashPassword(f.Password)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

// RoleForm creates and edits roles.
type RoleForm struct {
	Name        string `form:"name" validate:"required,max=80"`
	Description string `form:"description" validate:"max=255"`
}

func (f *RoleForm) Bind(r *http.Request) error {
	return form.Decode(r, f)
}

func (f *RoleForm) Validate() (form.Errors, error) {
	return form.Validate(f)
}

func (f *RoleForm) Populate(c web.Context, role *models.Role) error {
	role.Name = f.Name
	role.Description = f.Description
	return nil
}

func (f *RoleForm) Prefill(role *models.Role) {
	f.Name = role.Name
	f.Description = role.Description
}
