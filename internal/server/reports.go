package server

import (
	"fmt"
	"html"
	"io/fs"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// registerReports mounts a read-only browser for generated report files.
// Reports written after startup show up without a restart; the index is
// rebuilt on every request. Returns false when there is nothing to mount.
func registerReports(mux *http.ServeMux, reportsFS fs.FS) bool {
	if reportsFS == nil {
		return false
	}

	fileServer := http.StripPrefix("/reports/", http.FileServer(http.FS(reportsFS)))
	mux.Handle("/reports", http.RedirectHandler("/reports/", http.StatusMovedPermanently))
	mux.Handle("/reports/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if strings.TrimPrefix(r.URL.Path, "/reports/") == "" {
			writeReportIndex(w, reportsFS)
			return
		}
		fileServer.ServeHTTP(w, r)
	}))
	return true
}

func writeReportIndex(w http.ResponseWriter, reportsFS fs.FS) {
	names := reportNames(reportsFS)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintln(w, "<!doctype html><title>agentpack reports</title><h1>Reports</h1>")
	if len(names) == 0 {
		fmt.Fprintln(w, "<p>No reports yet.</p>")
		return
	}
	fmt.Fprintln(w, "<ul>")
	for _, name := range names {
		fmt.Fprintf(w, "<li><a href=\"/reports/%s\">%s</a></li>\n", url.PathEscape(name), html.EscapeString(name))
	}
	fmt.Fprintln(w, "</ul>")
}

func reportNames(reportsFS fs.FS) []string {
	entries, err := fs.ReadDir(reportsFS, ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}
