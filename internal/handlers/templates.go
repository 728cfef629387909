package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"lead-crm/internal/middleware"
	"lead-crm/internal/models"
	"lead-crm/internal/util"
	"lead-crm/internal/views"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	templates     *template.Template
	templatesOnce sync.Once
	templatesErr  error

	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
)

// contentTemplates maps page files to the block the layout renders.
var contentTemplates = map[string]string{
	"login.html":       "login_content",
	"signup.html":      "signup_content",
	"dashboard.html":   "dashboard_content",
	"conversions.html": "conversions_content",
	"leads_list.html":  "leads_list_content",
	"lead_form.html":   "lead_form_content",
	"lead_detail.html": "lead_detail_content",
	"courses.html":     "courses_content",
	"origins.html":     "origins_content",
	"users.html":       "users_content",
	"settings.html":    "settings_content",
}

// Templates that use auth_layout instead of main layout
var authLayoutTemplates = map[string]bool{
	"login.html":  true,
	"signup.html": true,
}

// renderMarkdown renders interaction notes. goldmark drops raw HTML by default.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"urlquery": url.QueryEscape,
		"len": func(slice interface{}) int {
			val := reflect.ValueOf(slice)
			if val.Kind() == reflect.Slice || val.Kind() == reflect.Array || val.Kind() == reflect.Map {
				return val.Len()
			}
			return 0
		},
		"sub":             func(a, b int) int { return a - b },
		"add":             func(a, b int) int { return a + b },
		"formatDate":      util.FormatDateBR,
		"formatDateTime":  util.FormatDateTimeBR,
		"isoDate":         func(t time.Time) string { return t.Format("2006-01-02") },
		"statusInfo":      models.GetStatusDisplayInfo,
		"stageName":       models.StageDisplayName,
		"interactionName": models.InteractionDisplayName,
		"markdown":        renderMarkdown,
		"pct": func(v, max int) int {
			if max <= 0 {
				return 0
			}
			return v * 100 / max
		},
		"hasRole": func(role string, roles ...string) bool {
			for _, r := range roles {
				if r == role {
					return true
				}
			}
			return false
		},
	}
}

// InitTemplates parses every embedded page once.
func InitTemplates(logger *slog.Logger) error {
	templatesOnce.Do(func() {
		entries, err := fs.ReadDir(views.TemplatesFS, ".")
		if err != nil {
			templatesErr = fmt.Errorf("failed to read template directory: %w", err)
			return
		}
		var files []string
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
				files = append(files, entry.Name())
			}
		}
		if len(files) == 0 {
			templatesErr = fmt.Errorf("no template files found in embedded filesystem")
			return
		}

		templates, templatesErr = template.New("").Funcs(templateFuncs()).ParseFS(views.TemplatesFS, "*.html")
		if templatesErr != nil {
			return
		}
		for name, content := range contentTemplates {
			if templates.Lookup(content) == nil {
				templatesErr = fmt.Errorf("content template %q for %s not found", content, name)
				return
			}
		}
		logger.Debug("templates parsed", "files", len(files))
	})
	return templatesErr
}

// render executes the page inside its layout. Flashes, the signed-in user and
// the CSRF field are added to data.
func (d *Deps) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) {
	if err := InitTemplates(d.Logger); err != nil {
		d.Logger.Error("templates not initialized", "error", err)
		http.Error(w, "Templates not initialized", http.StatusInternalServerError)
		return
	}

	contentTemplateName, ok := contentTemplates[name]
	if !ok {
		d.Logger.Error("no content template mapping", "template", name)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	data["ContentTemplate"] = contentTemplateName
	data["Flashes"] = middleware.PopFlashes(w, r, d.Sessions)
	data["CSRFField"] = csrf.TemplateField(r)
	data["Path"] = r.URL.Path
	data["UserRole"] = middleware.GetUserRole(r)
	if id, ok := middleware.GetIdentity(r); ok {
		data["User"] = id
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = "CRM"
	}

	layoutName := "layout"
	if authLayoutTemplates[name] {
		layoutName = "auth_layout"
	}

	// render to a buffer so a template error never leaves a half-written page
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, layoutName, data); err != nil {
		d.Logger.Error("template execute error", "template", name, "error", err)
		http.Error(w, "Erro ao renderizar a página", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	d.Config.Debugf("rendered %s", name)
}
