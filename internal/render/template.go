package render

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var buttonRadii = map[string]string{
	"rounded": "12px",
	"pill":    "9999px",
	"square":  "0",
	"outline": "12px",
}

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"buttonRadius": func(style string) string {
		if r, ok := buttonRadii[style]; ok {
			return r
		}
		return buttonRadii["rounded"]
	},
}).ParseFS(templateFS, "templates/*.html"))

func WritePage(w io.Writer, p *Page) error {
	return pages.ExecuteTemplate(w, "page.html", p)
}

// WriteNotFound renders the 404 page with a link to signUpURL when set.
func WriteNotFound(w io.Writer, signUpURL string) error {
	return pages.ExecuteTemplate(w, "notfound.html", signUpURL)
}
