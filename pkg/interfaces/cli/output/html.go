package output

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f3f3f3; }
dt { font-weight: bold; float: left; clear: left; width: 14em; }
dd { margin-left: 15em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Summary}}<dl>{{range .Summary}}<dt>{{.Label}}</dt><dd>{{.Value}}</dd>{{end}}</dl>{{end}}
{{range .Tables}}{{if .Rows}}
<h2>{{.Name}}</h2>
<table>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
{{end}}{{end}}
</body>
</html>
`))

// generateHTMLOutput renders the document tables as a standalone HTML page
func generateHTMLOutput(doc *Document, config Config) error {
	var buf bytes.Buffer
	if err := writeHTML(&buf, doc); err != nil {
		return err
	}

	if config.OutputDir == "" {
		_, err := config.Stdout.Write(buf.Bytes())
		return err
	}

	filename, err := outputFile(config, doc.Name+".html")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Stdout, "💾 HTML report saved to: %s\n", filename)
	}
	return nil
}

func writeHTML(w io.Writer, doc *Document) error {
	if err := htmlTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}
