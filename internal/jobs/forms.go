package jobs

import (
	"mime/multipart"
	"net/http"

	"github.com/dmitrymomot/soon/internal/models"
	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/form"
	"github.com/dmitrymomot/soon/pkg/storage"
)

const uploadDir = "jobs"

// JobForm creates a job ad. The spec upload is required and is written
// to media storage during Populate; the job row stores the file's
// media-relative key.
type JobForm struct {
	Title string `form:"title" validate:"required,max=64"`
	Blurb string `form:"blurb" validate:"required,max=144"`

	store  storage.Storage
	file   multipart.File
	header *multipart.FileHeader
}

// NewJobForm creates a job creation form writing uploads to store.
func NewJobForm(store storage.Storage) *JobForm {
	return &JobForm{store: store}
}

func (f *JobForm) Bind(r *http.Request) error {
	if err := form.Decode(r, f); err != nil {
		return err
	}
	f.bindFile(r)
	return nil
}

func (f *JobForm) bindFile(r *http.Request) {
	file, header, err := r.FormFile("spec")
	if err != nil {
		return
	}
	f.file = file
	f.header = header
}

func (f *JobForm) Validate() (form.Errors, error) {
	errs, err := form.Validate(f)
	if err != nil {
		return nil, err
	}
	if f.header == nil {
		errs.Add("spec", "A specification file is required.")
	}
	return errs, nil
}

func (f *JobForm) Populate(c web.Context, job *models.Job) error {
	info, err := f.store.Put(c, f.file, uploadDir, f.header.Filename)
	if err != nil {
		return err
	}

	job.Title = f.Title
	job.Blurb = f.Blurb
	job.Spec = info.Key
	if job.UserID == 0 {
		job.UserID = c.UserID()
	}
	return nil
}

// JobUpdateForm edits a job ad. The spec upload is optional; when a new
// file arrives the old one is replaced and removed from storage.
type JobUpdateForm struct {
	Title string `form:"title" validate:"required,max=64"`
	Blurb string `form:"blurb" validate:"required,max=144"`

	store  storage.Storage
	file   multipart.File
	header *multipart.FileHeader
}

// NewJobUpdateForm creates a job edit form writing uploads to store.
func NewJobUpdateForm(store storage.Storage) *JobUpdateForm {
	return &JobUpdateForm{store: store}
}

func (f *JobUpdateForm) Bind(r *http.Request) error {
	if err := form.Decode(r, f); err != nil {
		return err
	}
	if file, header, err := r.FormFile("spec"); err == nil {
		f.file = file
		f.header = header
	}
	return nil
}

func (f *JobUpdateForm) Validate() (form.Errors, error) {
	return form.Validate(f)
}

func (f *JobUpdateForm) Populate(c web.Context, job *models.Job) error {
	job.Title = f.Title
	job.Blurb = f.Blurb

	if f.header != nil {
		info, err := f.store.Put(c, f.file, uploadDir, f.header.Filename)
		if err != nil {
			return err
		}
		if job.Spec != "" && job.Spec != info.Key {
			if err := f.store.Delete(c, job.Spec); err != nil {
				c.Logger().Warn("failed to remove replaced spec file",
					"key", job.Spec, "error", err.Error())
			}
		}
		job.Spec = info.Key
	}
	return nil
}

func (f *JobUpdateForm) Prefill(job *models.Job) {
	f.Title = job.Title
	f.Blurb = job.Blurb
}
