// Package jobs serves the public job board and the jobs admin section.
package jobs

import (
	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/admin"
	"github.com/dmitrymomot/soon/internal/models"
	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/markdown"
	"github.com/dmitrymomot/soon/pkg/storage"
	"github.com/dmitrymomot/soon/pkg/view"
)

// RegisterPublic mounts the home page: all job ads newest first, with
// the blurb rendered as sanitized markdown.
func RegisterPublic(r web.Router, db *gorm.DB) error {
	home, err := view.NewList[models.Job](db, view.Config{
		Template: "home",
		Columns:  []string{"title", "blurb", "spec", "created"},
		Formatters: map[string]view.Formatter{
			"blurb": func(c web.Context, value any) any {
				s, ok := value.(string)
				if !ok {
					return value
				}
				return markdown.Render(s)
			},
			"created": admin.DateTimeFormatter,
		},
	})
	if err != nil {
		return err
	}

	r.GET("/", home.Handle)
	return nil
}

// RegisterAdmin builds the jobs admin section and mounts it under the
// given router (expected prefix /admin/jobs). Deleting rows removes
// their spec files from store.
func RegisterAdmin(r web.Router, db *gorm.DB, store storage.Storage) error {
	const base = "/admin/jobs"

	list, err := view.NewList[models.Job](db, view.Config{
		Template: "admin/jobs/list",
		Columns:  []string{"title", "created", "updated"},
		Formatters: map[string]view.Formatter{
			"created": admin.DateTimeFormatter,
			"updated": admin.DateTimeFormatter,
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
		Template:   "admin/jobs/create",
		SuccessURL: base,
		CancelURL:  base,
		Flash:      "Job created.",
	}, func() view.Form[models.Job] { return NewJobForm(store) })
	if err != nil {
		return err
	}

	update, err := view.NewUpdate(db, view.Config{
		Template:   "admin/jobs/update",
		SuccessURL: base,
		CancelURL:  base,
		Flash:      "Job updated.",
	}, func() view.Form[models.Job] { return NewJobUpdateForm(store) })
	if err != nil {
		return err
	}

	del, err := view.NewDelete(db, view.Config{
		Template:   "admin/confirm",
		SuccessURL: base,
		CancelURL:  base,
		Flash:      "Job deleted.",
	}, view.WithBeforeDelete(FileCleanup(store)))
	if err != nil {
		return err
	}

	multiDel, err := view.NewMultiDelete(db, view.Config{
		Template:   "admin/confirm_multi",
		SuccessURL: base,
		CancelURL:  base,
	}, view.WithBeforeDelete(FileCleanup(store)))
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
