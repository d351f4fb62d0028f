package reportwriter

import (
	"html/template"

	"github.com/emenda-labs/xsdiff/core/comparison"
	"github.com/emenda-labs/xsdiff/core/report"
)

var _ report.Writer = (*HTMLWriter)(nil)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Header}}</title>
<link rel="stylesheet" href="css/xsdiff.css">
<script src="js/xsdiff.js"></script>
</head>
<body>
<div class="file-header">{{.Header}}</div>
<p>{{.Summary.Types}} complex types, {{.Summary.WithDifferences}} with differences, {{.Summary.WithAdditions}} with additions.
<button id="toggle-unchanged" type="button">toggle unchanged</button></p>
<table class="diff">
<tr><th>NAME</th><th>ONLY IN FIRST</th><th>ONLY IN SECOND</th></tr>
{{- range .Records}}
<tr class="{{if .HasDifferences}}changed{{else}}unchanged{{end}}"><td>{{.TypeName}}</td><td class="only-first">{{.OnlyInFirst}}</td><td class="only-second">{{.OnlyInSecond}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

// HTMLWriter renders one HTML page per job, linking the bundled
// stylesheet and script.
type HTMLWriter struct{}

// NewHTMLWriter creates an HTMLWriter.
func NewHTMLWriter() *HTMLWriter {
	return &HTMLWriter{}
}

func (w *HTMLWriter) Format() string { return "html" }

// Begin opens a session for dir/diff-report-<hint>.html.
func (w *HTMLWriter) Begin(dir, hint, header string) (report.Session, error) {
	f, err := createAtomic(dir, FileName(hint, "html"))
	if err != nil {
		return nil, err
	}
	return &htmlSession{file: f, header: header}, nil
}

type htmlSession struct {
	file    *atomicFile
	header  string
	records []comparison.Record
}

func (s *htmlSession) Write(rec comparison.Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *htmlSession) Finish() error {
	data := struct {
		Header  string
		Summary comparison.Summary
		Records []comparison.Record
	}{
		Header:  s.header,
		Summary: comparison.Summarize(s.records),
		Records: s.records,
	}
	if err := htmlTemplate.Execute(s.file, data); err != nil {
		s.file.abort()
		return err
	}
	return s.file.commit()
}

func (s *htmlSession) Abort() {
	s.file.abort()
}
