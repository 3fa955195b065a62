package view

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/dmitrymomot/soon/internal/web"
)

// ListView renders a model's rows, optionally paginated. The page
// number comes from the "current_page" path parameter and defaults
// to the first page.
type ListView[T any] struct {
	db     *gorm.DB
	cfg    Config
	labels []string
}

// NewList creates a listing view.
func NewList[T any](db *gorm.DB, cfg Config) (*ListView[T], error) {
	if err := cfg.requireTemplate("list"); err != nil {
		return nil, err
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("%w: list view requires Columns", ErrConfig)
	}
	cfg.applyDefaults()

	var model T
	labels := make([]string, len(cfg.Columns))
	for i, col := range cfg.Columns {
		labels[i] = columnLabel(model, col)
	}

	return &ListView[T]{db: db, cfg: cfg, labels: labels}, nil
}

// Row is one rendered list entry: the primary key plus one formatted
// cell per configured column.
type Row struct {
	PK    any
	Cells []any
}

func (v *ListView[T]) Handle(c web.Context) error {
	page := currentPage(c)

	var objs []T
	pages := 1

	q := v.db.WithContext(c).Model(new(T))
	if v.cfg.Paginate {
		var total int64
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		pages = int((total + int64(v.cfg.PerPage) - 1) / int64(v.cfg.PerPage))
		if pages < 1 {
			pages = 1
		}
		q = q.Offset((page - 1) * v.cfg.PerPage).Limit(v.cfg.PerPage)
	}
	if err := q.Find(&objs).Error; err != nil {
		return err
	}

	rows := make([]Row, len(objs))
	for i := range objs {
		cells := make([]any, len(v.cfg.Columns))
		for j, col := range v.cfg.Columns {
			cells[j] = v.Value(c, &objs[i], col)
		}
		rows[i] = Row{PK: v.pk(&objs[i]), Cells: cells}
	}

	data := map[string]any{
		"objs":     objs,
		"rows":     rows,
		"columns":  v.cfg.Columns,
		"labels":   v.labels,
		"model":    modelName[T](),
		"page":     page,
		"pages":    pages,
		"base_url": baseURL(c),
	}
	v.cfg.listURLs(data)

	return c.Render(v.cfg.Template, data)
}

// Value resolves one column of one row. An unknown column yields a
// sentinel string instead of an error so one bad column reference never
// breaks the whole listing. A registered formatter runs last.
func (v *ListView[T]) Value(c web.Context, instance *T, field string) any {
	val, ok := attrValue(instance, field)
	if !ok {
		return invalidAttrPrefix + field
	}
	if fmtr, ok := v.cfg.Formatters[field]; ok {
		return fmtr(c, val)
	}
	return val
}

// ColumnName resolves the display label for a column.
func (v *ListView[T]) ColumnName(field string) string {
	var model T
	return columnLabel(model, field)
}

func (v *ListView[T]) pk(instance *T) any {
	if val, ok := attrValue(instance, "id"); ok {
		return val
	}
	return nil
}

// baseURL strips the pagination suffix from the request path so
// templates can build links to other pages.
func baseURL(c web.Context) string {
	p := c.Request().URL.Path
	if i := strings.Index(p, "/page/"); i >= 0 {
		p = p[:i]
	}
	return strings.TrimSuffix(p, "/")
}

func currentPage(c web.Context) int {
	raw := c.Param("current_page")
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func modelName[T any]() string {
	t := reflect.TypeOf(*new(T))
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}
