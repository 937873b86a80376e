package preview

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
)

// FileName is the page written into the preview directory.
const FileName = "insurance-preview.html"

const mermaidCDN = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

// pageScript starts Mermaid and lets each section collapse.
const pageScript = `
document.addEventListener("DOMContentLoaded", function () {
  mermaid.initialize({ startOnLoad: true, theme: "default" });
  var headings = document.querySelectorAll("section > h2");
  for (var i = 0; i < headings.length; i++) {
    headings[i].addEventListener("click", function (event) {
      var section = event.currentTarget.parentElement;
      section.classList.toggle("collapsed");
    });
  }
});
`

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Page.Title}}</title>
<script src="{{.CDN}}"></script>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2em auto; }
section h2 { cursor: pointer; }
section.collapsed > :not(h2) { display: none; }
.seed { color: #666; font-size: 0.9em; }
.portrait img { max-height: 160px; border: 4px solid; }
.interpretation { white-space: pre-wrap; background: #f6f6f6; padding: 1em; }
</style>
</head>
<body>
<h1>{{.Page.Title}}</h1>
{{range .Page.Sections}}<section id="{{.ID}}">
<h2>{{.Title}}</h2>
{{if .SeedText}}<p class="seed">{{.SeedText}}</p>{{end}}
{{range .Portraits}}<figure class="portrait">
<img src="{{.Src}}" alt="{{.Label}}" style="border-color: {{.Color}}">
<figcaption>{{.Label}}</figcaption>
</figure>
{{end}}{{range .Charts}}<figure>
<pre class="mermaid">
{{.Source}}
</pre>
{{if .Caption}}<figcaption>{{.Caption}}</figcaption>{{end}}
</figure>
{{end}}<div class="interpretation">{{.Interpretation}}</div>
</section>
{{end}}<script>{{.Script}}</script>
</body>
</html>
`))

// MinifyScript shrinks the page script with esbuild's transform API.
func MinifyScript(src string) (string, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("failed to minify page script: %s", result.Errors[0].Text)
	}
	return string(result.Code), nil
}

// Render writes the page as HTML.
func Render(w io.Writer, page *Page) error {
	script, err := MinifyScript(pageScript)
	if err != nil {
		return err
	}
	return pageTemplate.Execute(w, struct {
		Page   *Page
		CDN    string
		Script template.JS
	}{Page: page, CDN: mermaidCDN, Script: template.JS(script)})
}

// Write renders the page into dir and returns the file path.
func Write(page *Page, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create preview directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create preview file: %w", err)
	}
	defer f.Close()

	if err := Render(f, page); err != nil {
		return "", err
	}
	log.Info().Str("path", path).Msg("Preview written")
	return path, nil
}

// Open shows the written page in the default browser.
func Open(path string) error {
	return browser.OpenFile(path)
}
