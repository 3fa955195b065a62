package jobs_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmitrymomot/soon/internal/jobs"
	"github.com/dmitrymomot/soon/internal/models"
	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/cookie"
	"github.com/dmitrymomot/soon/pkg/render"
	"github.com/dmitrymomot/soon/pkg/storage"
)

type harness struct {
	db    *gorm.DB
	media *storage.Local
	mux   *web.Mux
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(gdb))

	media, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	page := func(body string) *fstest.MapFile {
		return &fstest.MapFile{Data: []byte(`{{define "content"}}` + body + `{{end}}`)}
	}
	renderer, err := render.New(fstest.MapFS{
		"layouts/base.html": {Data: []byte(
			`{{define "layout"}}{{block "content" .}}{{end}}{{end}}`,
		)},
		"home.html":              page(`home;{{range .rows}}[{{index .Cells 0}}|{{index .Cells 1}}]{{end}}`),
		"admin/jobs/list.html":   page(`jobs;{{range .rows}}[{{index .Cells 0}}]{{end}}`),
		"admin/jobs/create.html": page(`create;{{if .errors}}{{.errors.First "spec"}}{{end}}`),
		"admin/jobs/update.html": page(`update;title={{.form.Title}}`),
		"admin/confirm.html":     page(`confirm`),
		"admin/confirm_multi.html": page(
			`confirm-multi;{{len .objs}}`,
		),
	})
	require.NoError(t, err)

	mux := web.NewMux(&web.Deps{
		Cookies:  cookie.New(cookie.WithSecret("0123456789abcdef0123456789abcdef")),
		Renderer: renderer,
	}, func(c web.Context, err error) {
		code := http.StatusInternalServerError
		if httpErr := web.AsHTTPError(err); httpErr != nil {
			code = httpErr.Code
		}
		http.Error(c.Response(), err.Error(), code)
	})

	require.NoError(t, jobs.RegisterPublic(mux.Router(), gdb))
	mux.Router().Route("/admin/jobs", func(r web.Router) {
		require.NoError(t, jobs.RegisterAdmin(r, gdb, media))
	})

	return &harness{db: gdb, media: media, mux: mux}
}

func (h *harness) createUser(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{Email: "a@b.c", Password: "x", Active: true}
	require.NoError(t, h.db.Create(user).Error)
	return user
}

// postJob submits the create form as multipart with an optional file.
func (h *harness) postJob(t *testing.T, target, title, blurb, filename string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("blurb", blurb))
	if filename != "" {
		part, err := w.CreateFormFile("spec", filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, "%PDF-1.4 fake spec")
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateJob_StoresFileAndRedirects(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t)

	rec := h.postJob(t, "/admin/jobs/create", "Gopher Wanted", "come work with us", "my spec.pdf")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/jobs", rec.Header().Get("Location"))

	var job models.Job
	require.NoError(t, h.db.First(&job).Error)
	assert.Equal(t, "Gopher Wanted", job.Title)
	assert.Equal(t, "jobs/my_spec.pdf", job.Spec)

	_, err := os.Stat(filepath.Join(h.media.Root(), "jobs", "my_spec.pdf"))
	assert.NoError(t, err)
}

func TestCreateJob_MissingFileIsFieldError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	rec := h.postJob(t, "/admin/jobs/create", "Gopher Wanted", "blurb", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A specification file is required.")

	var count int64
	require.NoError(t, h.db.Model(&models.Job{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateJob_DuplicateFilenameGetsSuffix(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t)

	require.Equal(t, http.StatusSeeOther,
		h.postJob(t, "/admin/jobs/create", "First", "blurb", "spec.pdf").Code)
	require.Equal(t, http.StatusSeeOther,
		h.postJob(t, "/admin/jobs/create", "Second", "blurb", "spec.pdf").Code)

	var specs []string
	require.NoError(t, h.db.Model(&models.Job{}).Order("id").Pluck("spec", &specs).Error)
	require.Len(t, specs, 2)
	assert.Equal(t, "jobs/spec.pdf", specs[0])
	assert.NotEqual(t, specs[0], specs[1])
	assert.Regexp(t, `^jobs/spec_\d+\.pdf$`, specs[1])

	// both files exist, nothing was overwritten
	for _, key := range specs {
		_, err := os.Stat(filepath.Join(h.media.Root(), filepath.FromSlash(key)))
		assert.NoError(t, err)
	}
}

func TestUpdateJob_KeepsFileWithoutNewUpload(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t)
	h.postJob(t, "/admin/jobs/create", "Old Title", "blurb", "spec.pdf")

	rec := h.postJob(t, "/admin/jobs/update/1", "New Title", "new blurb", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var job models.Job
	require.NoError(t, h.db.First(&job, 1).Error)
	assert.Equal(t, "New Title", job.Title)
	assert.Equal(t, "jobs/spec.pdf", job.Spec)
}

func TestUpdateJob_NewUploadReplacesFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t)
	h.postJob(t, "/admin/jobs/create", "Title", "blurb", "old.pdf")

	rec := h.postJob(t, "/admin/jobs/update/1", "Title", "blurb", "new.pdf")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var job models.Job
	require.NoError(t, h.db.First(&job, 1).Error)
	assert.Equal(t, "jobs/new.pdf", job.Spec)

	_, err := os.Stat(filepath.Join(h.media.Root(), "jobs", "old.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteJob_RemovesFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t)
	h.postJob(t, "/admin/jobs/create", "Title", "blurb", "spec.pdf")

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/jobs/delete/1?confirm=1", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var count int64
	require.NoError(t, h.db.Model(&models.Job{}).Count(&count).Error)
	assert.Zero(t, count)

	_, err := os.Stat(filepath.Join(h.media.Root(), "jobs", "spec.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteJob_MissingFileIsNoOp(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t)
	h.postJob(t, "/admin/jobs/create", "Title", "blurb", "spec.pdf")
	require.NoError(t, os.Remove(filepath.Join(h.media.Root(), "jobs", "spec.pdf")))

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/jobs/delete/1?confirm=1", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestMultiDeleteJobs_RemovesFiles(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t)
	h.postJob(t, "/admin/jobs/create", "One", "blurb", "one.pdf")
	h.postJob(t, "/admin/jobs/create", "Two", "blurb", "two.pdf")
	h.postJob(t, "/admin/jobs/create", "Three", "blurb", "three.pdf")

	req := httptest.NewRequest(http.MethodPost, "/admin/jobs/delete",
		bytes.NewBufferString("objects=1&objects=3&confirm=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var count int64
	require.NoError(t, h.db.Model(&models.Job{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err := os.Stat(filepath.Join(h.media.Root(), "jobs", "one.pdf"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(h.media.Root(), "jobs", "two.pdf"))
	assert.NoError(t, err)
}

func TestHome_RendersMarkdownBlurb(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	user := h.createUser(t)
	require.NoError(t, h.db.Create(&models.Job{
		UserID: user.ID,
		Title:  "Gopher",
		Blurb:  "work on **cool** things",
		Spec:   "jobs/spec.pdf",
	}).Error)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>cool</strong>")
	assert.Contains(t, rec.Body.String(), "Gopher")
}

func TestOrphanSweep(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t)
	h.postJob(t, "/admin/jobs/create", "Keep", "blurb", "keep.pdf")

	// drop an orphan next to the referenced file
	orphan := filepath.Join(h.media.Root(), "jobs", "orphan.pdf")
	require.NoError(t, os.WriteFile(orphan, []byte("x"), 0o600))

	sweeper := jobs.NewOrphanSweeper(h.db, h.media, nil)
	require.NoError(t, sweeper.Sweep(context.Background()))

	_, err := os.Stat(orphan)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(h.media.Root(), "jobs", "keep.pdf"))
	assert.NoError(t, err)
}

func TestOrphanSweep_NoUploadsDir(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	sweeper := jobs.NewOrphanSweeper(h.db, h.media, nil)
	assert.NoError(t, sweeper.Sweep(context.Background()))
}
