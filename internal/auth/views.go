// Package auth serves sign-in, sign-out, and the user and role admin
// sections.
package auth

import (
	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/admin"
	"github.com/dmitrymomot/soon/internal/models"
	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/view"
)

// RegisterUserAdmin builds the user admin section and mounts it under
// the given router (expected prefix /admin/users).
func RegisterUserAdmin(r web.Router, db *gorm.DB) error {
	const base = "/admin/users"

	list, err := view.NewList[models.User](db, view.Config{
		Template: "admin/users/list",
		Columns:  []string{"email", "active", "super_user", "last_login_at"},
		Formatters: map[string]view.Formatter{
			"active":        admin.BoolFormatter,
			"super_user":    admin.BoolFormatter,
			"last_login_at": admin.DateTimeFormatter,
		},
		Paginate:  true,
		CreateURL: base + "/create",
		UpdateURL: base + "/update",
		DeleteURL: base + "/delete",
	})
	if err != nil {
		return err
	}

	create, err := view.NewCreate(db, view.Config{
		Template:   "admin/users/create",
		SuccessURL: base,
		CancelURL:  base,
		Flash:      "User created.",
	}, func() view.Form[models.User] { return &NewUserForm{} })
	if err != nil {
		return err
	}

	update, err := view.NewMultiForm(db, view.Config{
		Template:   "admin/users/update",
		SuccessURL: base,
		CancelURL:  base,
		Flash:      "User updated.",
	},
		view.SubForm[models.User]{
			Name: "form1",
			New:  func() view.Form[models.User] { return &PasswordForm{} },
		},
		view.SubForm[models.User]{
			Name: "form2",
			New:  func() view.Form[models.User] { return &UpdateUserForm{} },
		},
	)
	if err != nil {
		return err
	}

	del, err := view.NewDelete[models.User](db, view.Config{
		Template:   "admin/confirm",
		SuccessURL: base,
		CancelURL:  base,
		Flash:      "User deleted.",
	})
	if err != nil {
		return err
	}

	multiDel, err := view.NewMultiDelete[models.User](db, view.Config{
		Template:   "admin/confirm_multi",
		SuccessURL: base,
		CancelURL:  base,
	})
	if err != nil {
		return err
	}

	r.GET("/", list.Handle)
	r.GET("/page/{current_page}", list.Handle)
	r.GET("/create", create.HandleGet)
	r.POST("/create", create.HandlePost)
	r.GET("/update/{pk}", update.HandleGet)
	r.POST("/update/{pk}", update.HandlePost)
	r.GET("/delete/{pk}", del.Handle)
	r.GET("/delete", multiDel.HandleGet)
	r.POST("/delete", multiDel.HandlePost)
	return nil
}

// RegisterRoleAdmin builds the role admin section and mounts it under
// the given router (expected prefix /admin/roles).
func RegisterRoleAdmin(r web.Router, db *gorm.DB) error {
	const base = "/admin/roles"

	list, err := view.NewList[models.Role](db, view.Config{
		Template: "admin/roles/list",
		Columns:  []string{"name", "description", "created"},
		Formatters: map[string]view.Formatter{
			"created": admin.DateTimeFormatter,
		},
		CreateURL: base + "/create",
		UpdateURL: base + "/update",
		DeleteURL: base + "/delete",
	})
	if err != nil {
		return err
	}

	create, err := view.NewCreate(db, view.Config{
		Template:   "admin/roles/create",
		SuccessURL: base,
		CancelURL:  base,
		Flash:      "Role created.",
	}, func() view.Form[models.Role] { return &RoleForm{} })
	if err != nil {
		return err
	}

	update, err := view.NewUpdate(db, view.Config{
		Template:   "admin/roles/update",
		SuccessURL: base,
		CancelURL:  base,
		Flash:      "Role updated.",
	}, func() view.Form[models.Role] { return &RoleForm{} })
	if err != nil {
		return err
	}

	del, err := view.NewDelete[models.Role](db, view.Config{
		Template:   "admin/confirm",
		SuccessURL: base,
		CancelURL:  base,
		Flash:      "Role deleted.",
	})
	if err != nil {
		return err
	}

	multiDel, err := view.NewMultiDelete[models.Role](db, view.Config{
		Template:   "admin/confirm_multi",
		SuccessURL: base,
		CancelURL:  base,
	})
	if err != nil {
		return err
	}

	r.GET("/", list.Handle)
	r.GET("/create", create.HandleGet)
	r.POST("/create", create.HandlePost)
	r.GET("/update/{pk}", update.HandleGet)
	r.POST("/update/{pk}", update.HandlePost)
	r.GET("/delete/{pk}", del.Handle)
	r.GET("/delete", multiDel.HandleGet)
	r.POST("/delete", multiDel.HandlePost)
	return nil
}
