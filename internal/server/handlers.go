package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/openapi"
	"github.com/goliatone/go-crudform/pkg/page"
	"github.com/goliatone/go-crudform/pkg/render"
	"github.com/goliatone/go-crudform/pkg/renderers/vanilla"
)

// CodeUnavailable is returned when a post targets a page whose schema could
// not be loaded.
const CodeUnavailable = "schema_unavailable"

func (s *Server) routes() {
	r := s.engine
	r.StaticFS(AssetsPath, http.FS(vanilla.AssetsFS()))

	r.GET("/healthz", s.health)

	api := r.Group("/api/pages")
	api.GET("", s.listPages)
	api.GET("/:name/schema", s.pageSchema)
	api.GET("/:name/openapi", s.pageOpenAPI)

	pages := r.Group("/pages/:name")
	pages.GET("", s.showList)
	pages.POST("/records", s.createRecords)
	pages.GET("/records/:id", s.showRecord)
	pages.POST("/records/:id", s.updateRecord)
	pages.GET("/records/:id/print", s.printRecord)
	pages.POST("/records/:id/delete", s.deleteRecord)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type pageSummary struct {
	Name    string       `json:"name"`
	Title   string       `json:"title"`
	Schema  string       `json:"schema"`
	FormAPI crud.FormAPI `json:"formApi"`
}

func (s *Server) listPages(c *gin.Context) {
	out := make([]pageSummary, 0, len(s.cfg.Pages))
	for _, pc := range s.cfg.Pages {
		out = append(out, pageSummary{
			Name:    pc.Name,
			Title:   pc.DisplayTitle(),
			Schema:  pc.Schema,
			FormAPI: pc.FormAPI,
		})
	}
	c.JSON(http.StatusOK, gin.H{"pages": out})
}

func (s *Server) pageSchema(c *gin.Context) {
	p, ok := s.mount(c)
	if !ok {
		return
	}
	defer p.Close()

	body := gin.H{
		"name":   p.Name(),
		"state":  p.State(),
		"ready":  p.Props().Ready(),
		"result": p.Result(),
	}
	if err := p.Err(); err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) pageOpenAPI(c *gin.Context) {
	p, ok := s.mount(c)
	if !ok {
		return
	}
	defer p.Close()

	pc := p.Config()
	doc, err := openapi.Build(c.Request.Context(),
		openapi.PageFromProps(pc.Name, pc.DisplayTitle(), p.Props()),
		openapi.WithServer(s.cfg.API.BaseURL),
	)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) showList(c *gin.Context) {
	p, ok := s.mount(c)
	if !ok {
		return
	}
	defer p.Close()
	s.renderList(c, p, render.RenderOptions{}, http.StatusOK)
}

func (s *Server) createRecords(c *gin.Context) {
	p, ok := s.mount(c)
	if !ok {
		return
	}
	defer p.Close()

	props, ok := s.readyProps(c, p)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		s.fail(c, badRequest(err, "invalid form body"))
		return
	}

	sub := render.ParseSubmission(props, c.Request.PostForm)
	if !sub.Valid() {
		s.renderList(c, p, render.RenderOptions{
			Values:     sub.Values,
			Errors:     sub.Errors,
			FormErrors: sub.FormErrors,
		}, http.StatusUnprocessableEntity)
		return
	}

	if _, err := s.records.Create(c.Request.Context(), props.FormAPI, sub.CreateRecords()...); err != nil {
		mapping, ok := backendErrors(props, err)
		if !ok {
			s.fail(c, err)
			return
		}
		s.renderList(c, p, render.RenderOptions{
			Values:     sub.Values,
			Errors:     mapping.Fields,
			FormErrors: mapping.Form,
		}, http.StatusUnprocessableEntity)
		return
	}
	c.Redirect(http.StatusSeeOther, basePath(p))
}

func (s *Server) showRecord(c *gin.Context) {
	p, ok := s.mount(c)
	if !ok {
		return
	}
	defer p.Close()

	props, ok := s.readyProps(c, p)
	if !ok {
		return
	}
	id := c.Param("id")
	record, err := s.records.Get(c.Request.Context(), props.FormAPI, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderRecord(c, p, id, render.RenderOptions{Mode: render.ModeForm, Record: record}, http.StatusOK)
}

func (s *Server) updateRecord(c *gin.Context) {
	p, ok := s.mount(c)
	if !ok {
		return
	}
	defer p.Close()

	props, ok := s.readyProps(c, p)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		s.fail(c, badRequest(err, "invalid form body"))
		return
	}

	// Edits always post a single record, even on multiple-entry pages.
	props.MultipleEntry = false
	id := c.Param("id")
	sub := render.ParseSubmission(props, c.Request.PostForm)
	if !sub.Valid() {
		s.renderRecord(c, p, id, render.RenderOptions{
			Mode:       render.ModeForm,
			Values:     sub.Values,
			Errors:     sub.Errors,
			FormErrors: sub.FormErrors,
		}, http.StatusUnprocessableEntity)
		return
	}

	if _, err := s.records.Update(c.Request.Context(), props.FormAPI, id, sub.Records[0]); err != nil {
		mapping, ok := backendErrors(props, err)
		if !ok {
			s.fail(c, err)
			return
		}
		s.renderRecord(c, p, id, render.RenderOptions{
			Mode:       render.ModeForm,
			Values:     sub.Values,
			Errors:     mapping.Fields,
			FormErrors: mapping.Form,
		}, http.StatusUnprocessableEntity)
		return
	}
	c.Redirect(http.StatusSeeOther, basePath(p))
}

func (s *Server) printRecord(c *gin.Context) {
	p, ok := s.mount(c)
	if !ok {
		return
	}
	defer p.Close()

	props, ok := s.readyProps(c, p)
	if !ok {
		return
	}
	id := c.Param("id")
	record, err := s.records.Get(c.Request.Context(), props.FormAPI, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderRecord(c, p, id, render.RenderOptions{Mode: render.ModePrint, Record: record}, http.StatusOK)
}

func (s *Server) deleteRecord(c *gin.Context) {
	p, ok := s.mount(c)
	if !ok {
		return
	}
	defer p.Close()

	props, ok := s.readyProps(c, p)
	if !ok {
		return
	}
	if err := s.records.Delete(c.Request.Context(), props.FormAPI, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, basePath(p))
}

// mount creates a fresh page per request so every view re-fetches the
// schema. Callers close it.
func (s *Server) mount(c *gin.Context) (*page.Page, bool) {
	name := c.Param("name")
	pc, ok := s.cfg.Page(name)
	if !ok {
		s.fail(c, notFound("page %q not found", name))
		return nil, false
	}
	p := page.New(pc, s.fetcher, page.WithLogger(s.log))
	if _, err := p.Load(c.Request.Context()); err != nil {
		p.Close()
		s.fail(c, err)
		return nil, false
	}
	return p, true
}

func (s *Server) readyProps(c *gin.Context, p *page.Page) (render.Props, bool) {
	props := p.Props()
	if !props.Ready() {
		s.fail(c, &httpError{
			Status:  http.StatusServiceUnavailable,
			Code:    CodeUnavailable,
			Message: "page schema is not available",
			Details: map[string]any{"page": p.Name(), "state": p.State()},
		})
		return render.Props{}, false
	}
	return props, true
}

// renderList shows the table and the create form. Rows are only requested
// once the schema is ready.
func (s *Server) renderList(c *gin.Context, p *page.Page, opts render.RenderOptions, status int) {
	props := p.Props()
	if props.Ready() {
		rows, err := s.records.List(c.Request.Context(), props.FormAPI)
		if err != nil {
			s.fail(c, err)
			return
		}
		opts.Rows = rows
	}
	opts.Mode = render.ModeList
	opts.BasePath = basePath(p)
	opts.Action = basePath(p) + "/records"
	s.renderHTML(c, p, opts, status)
}

func (s *Server) renderRecord(c *gin.Context, p *page.Page, id string, opts render.RenderOptions, status int) {
	opts.RecordID = id
	opts.BasePath = basePath(p)
	opts.Action = basePath(p) + "/records/" + id
	s.renderHTML(c, p, opts, status)
}

func (s *Server) renderHTML(c *gin.Context, p *page.Page, opts render.RenderOptions, status int) {
	selected, err := s.theme(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	opts.Theme = selected

	out, err := p.Render(c.Request.Context(), s.renderer, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(status, s.renderer.ContentType(), out)
}

func (s *Server) theme(c *gin.Context) (*render.ThemeConfig, error) {
	if s.themes == nil {
		return nil, nil
	}
	selected, err := s.themes.Resolve(c.Query("theme"), c.Query("variant"))
	if err != nil {
		return nil, badRequest(err, "unknown theme")
	}
	return selected, nil
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// backendErrors maps a backend validation failure onto the form.
func backendErrors(props render.Props, err error) (render.ErrorMapping, bool) {
	var apiErr *crud.APIError
	if !errors.As(err, &apiErr) || !apiErr.IsValidation() {
		return render.ErrorMapping{}, false
	}
	mapping := render.MapErrorPayload(props, apiErr.FieldErrors())
	mapping.Form = render.MergeFormErrors(mapping.Form, apiErr.Message())
	if len(mapping.Fields) == 0 && len(mapping.Form) == 0 {
		mapping.Form = []string{http.StatusText(apiErr.Status)}
	}
	return mapping, true
}

func basePath(p *page.Page) string {
	return "/pages/" + p.Name()
}
