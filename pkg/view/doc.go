// Package view provides composable CRUD views over gorm models.
//
// Each view is a small struct built from a Config that is validated at
// construction, so wiring mistakes surface at startup rather than on
// the first request. Views expose HandlerFunc-compatible methods and
// render through the request context:
//
//	list, err := view.NewList[models.Job](db, view.Config{
//		Template: "admin/jobs/list",
//		Columns:  []string{"title", "created"},
//	})
//	if err != nil {
//		return err
//	}
//	r.GET("/jobs", list.Handle)
//	r.GET("/jobs/{current_page}", list.Handle)
//
// Form-backed views (create, update, multi-form) share one contract:
// bind the request, validate into field errors, and populate the model
// instance only when validation passes. Validation failures re-render
// the form with the user's input preserved; success redirects.
package view
