package site

import (
	"html/template"
	"time"
)

type postPageData struct {
	SiteTitle string
	Title     string
	Date      time.Time
	Layout    string
	Permalink string
	Body      template.HTML
}

type indexPageData struct {
	SiteTitle string
	BaseURL   string
	Pages     []Page
}

var templateFuncs = template.FuncMap{
	"isoDate": func(t time.Time) string { return t.Format("2006-01-02") },
}

var postTemplate = template.Must(template.New("post").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} &mdash; {{.SiteTitle}}</title>
</head>
<body class="layout-{{.Layout}}">
<header><a href="/">{{.SiteTitle}}</a></header>
<main>
<article>
<h1>{{.Title}}</h1>
<time datetime="{{isoDate .Date}}">{{isoDate .Date}}</time>
{{.Body}}</article>
</main>
</body>
</html>
`))

var indexTemplate = template.Must(template.New("index").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.SiteTitle}}</title>
{{- if .BaseURL}}
<link rel="canonical" href="{{.BaseURL}}">
{{- end}}
</head>
<body class="layout-index">
<header>{{.SiteTitle}}</header>
<main>
<ul>
{{- range .Pages}}
<li>
<time datetime="{{isoDate .Date}}">{{isoDate .Date}}</time>
<a href="{{.Permalink}}">{{.Title}}</a>
{{- if .Excerpt}}
<p>{{.Excerpt}}</p>
{{- end}}
</li>
{{- end}}
</ul>
</main>
</body>
</html>
`))
