package api

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"regexp"
)

// sampleCourseTables are fixed course tables, grouped by weekday, that
// clients render while developing against the server.
//
//go:embed samples/*.json
var sampleCourseTables embed.FS

var sampleNameRegex = regexp.MustCompile(`^[a-z]+$`)

func (s *Server) handleSampleCourseTables(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := r.PathValue("name")
	if !sampleNameRegex.MatchString(name) {
		writeError(ctx, w, http.StatusNotFound, "unknown sample "+name, userMessages[http.StatusNotFound])
		return
	}
	body, err := sampleCourseTables.ReadFile("samples/" + name + ".json")
	if errors.Is(err, fs.ErrNotExist) {
		writeError(ctx, w, http.StatusNotFound, "unknown sample "+name, userMessages[http.StatusNotFound])
		return
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
