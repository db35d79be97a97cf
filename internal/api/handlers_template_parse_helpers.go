package api

import (
	"fmt"
	"html/template"
	"io/fs"
	"sort"
	"strings"
)

func parsePageTemplates(files fs.FS, funcMap template.FuncMap, pages map[string][]string) (map[string]*template.Template, error) {
	names := make([]string, 0, len(pages))
	for page := range pages {
		names = append(names, page)
	}
	sort.Strings(names)

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range names {
		patterns := append([]string{"base.html", page + ".html"}, pages[page]...)
		parsed, err := template.New("base").Funcs(funcMap).ParseFS(files, patterns...)
		if err != nil {
			return nil, fmt.Errorf("parse page template %s: %w", page, err)
		}
		templates[page] = parsed
	}
	return templates, nil
}

func parsePartialTemplates(files fs.FS, funcMap template.FuncMap, partialFiles []string) (map[string]*template.Template, error) {
	partials := make(map[string]*template.Template, len(partialFiles))
	for _, partial := range partialFiles {
		name := strings.TrimSuffix(partial, ".html")
		parsed, err := template.New(name).Funcs(funcMap).ParseFS(files, partial)
		if err != nil {
			return nil, fmt.Errorf("parse partial %s: %w", partial, err)
		}
		partials[name] = parsed
	}
	return partials, nil
}
