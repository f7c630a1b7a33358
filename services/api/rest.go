package api

import (
	"net/http"
	"strconv"

	"kuasap-backend/lib/htmlutil"
	"kuasap-backend/lib/serviceutil"
	"kuasap-backend/lib/sessions"
	"kuasap-backend/services/ap"
	"kuasap-backend/services/news"

	"go.opentelemetry.io/otel/codes"
)

const (
	courseTablesQuery = "ag222"
	scoresQuery       = "ag008"
)

// credentialToken returns the token a request authenticates with, either a
// bearer token or a basic auth username holding the token.
func credentialToken(r *http.Request) (string, bool) {
	token, ok := serviceutil.BearerToken(r.Header)
	if ok {
		return token, true
	}
	username, _, ok := r.BasicAuth()
	if ok && username != "" {
		return username, true
	}
	return "", false
}

func (s *Server) restMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", s.handleLogin)
	mux.HandleFunc("GET /token", s.withSession(s.handleIsValid))
	mux.HandleFunc("DELETE /token", s.withSession(s.handleLogout))
	mux.HandleFunc("GET /ap/users/coursetables/{year}/{semester}", s.withSession(s.handleCourseTables))
	mux.HandleFunc("GET /ap/users/scores/{year}/{semester}", s.withSession(s.handleScores))
	mux.HandleFunc("POST /ap/queries/semester", s.withSession(s.handleRawQuery))
	mux.HandleFunc("GET /ap/samples/coursetables/{name}", s.handleSampleCourseTables)
	mux.HandleFunc("GET /ap/semester", s.handleSemesters)
	mux.HandleFunc("GET /news", s.handleNews)
	mux.HandleFunc("GET /news/all", s.handleNewsAll)
	mux.HandleFunc("GET /news/search", s.handleNewsSearch)
	return mux
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, token string, session sessions.Session)

func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := credentialToken(r)
		if !ok {
			w.Header().Set("www-authenticate", `Basic realm="Authentication Required"`)
			writeError(r.Context(), w, http.StatusUnauthorized, "missing credentials", userMessages[http.StatusUnauthorized])
			return
		}
		session, err := s.ap.Session(token)
		if err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		next(w, r, token, session)
	}
}

type tokenResponse struct {
	AuthToken string `json:"auth_token"`
	TokenType string `json:"token_type"`
	Duration  int64  `json:"duration"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "rest:Login")
	defer span.End()

	username, password, ok := r.BasicAuth()
	if !ok {
		username = r.PostFormValue("username")
		password = r.PostFormValue("password")
	}
	if username == "" || password == "" {
		w.Header().Set("www-authenticate", `Basic realm="Authentication Required"`)
		writeError(ctx, w, http.StatusUnauthorized, "missing username or password", userMessages[http.StatusUnauthorized])
		return
	}

	token, err := s.ap.Login(ctx, username, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login")
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, tokenResponse{
		AuthToken: token,
		TokenType: "Basic",
		Duration:  int64(s.ap.IdleTimeout().Seconds()),
	})
}

func (s *Server) handleIsValid(w http.ResponseWriter, r *http.Request, _ string, session sessions.Session) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"status":   statusOk,
		"messages": "",
		"valid":    true,
		"username": session.Username,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, token string, _ sessions.Session) {
	s.ap.Logout(token)
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"status":   statusOk,
		"messages": "",
	})
}

func termArgs(r *http.Request) (map[string]string, bool) {
	year := r.PathValue("year")
	semester := r.PathValue("semester")
	_, yearErr := strconv.Atoi(year)
	_, semesterErr := strconv.Atoi(semester)
	if yearErr != nil || semesterErr != nil {
		return nil, false
	}
	return map[string]string{"arg01": year, "arg02": semester}, true
}

// tableQuery runs a query and responds with its table rows under field,
// an empty result is reported with an inner status of 204.
func (s *Server) tableQuery(w http.ResponseWriter, r *http.Request, token, qid string, args map[string]string, field, emptyMessage string) {
	ctx := r.Context()

	payload, err := s.ap.Query(ctx, token, qid, args)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	rows, err := htmlutil.ParseTables(ctx, payload)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if len(rows) == 0 {
		writeJSON(ctx, w, http.StatusOK, map[string]any{
			"status":   statusNoContent,
			"messages": emptyMessage,
			field:      rows,
		})
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"status":   statusOk,
		"messages": "",
		field:      rows,
	})
}

func (s *Server) handleCourseTables(w http.ResponseWriter, r *http.Request, token string, _ sessions.Session) {
	args, ok := termArgs(r)
	if !ok {
		writeError(r.Context(), w, http.StatusBadRequest, "year and semester must be integers", userMessages[http.StatusBadRequest])
		return
	}
	s.tableQuery(w, r, token, courseTablesQuery, args, "coursetables", "學生目前無選課資料")
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request, token string, session sessions.Session) {
	args, ok := termArgs(r)
	if !ok {
		writeError(r.Context(), w, http.StatusBadRequest, "year and semester must be integers", userMessages[http.StatusBadRequest])
		return
	}
	args["arg03"] = session.Username
	s.tableQuery(w, r, token, scoresQuery, args, "scores", "目前無學生個人成績資料")
}

func (s *Server) handleRawQuery(w http.ResponseWriter, r *http.Request, token string, _ sessions.Session) {
	ctx := r.Context()

	err := r.ParseForm()
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err.Error(), userMessages[http.StatusBadRequest])
		return
	}
	fncid := r.PostForm.Get("fncid")
	if fncid == "" {
		writeError(ctx, w, http.StatusBadRequest, "missing fncid", userMessages[http.StatusBadRequest])
		return
	}
	args := map[string]string{}
	for _, name := range []string{"arg01", "arg02", "arg03", "arg04"} {
		if r.PostForm.Has(name) {
			args[name] = r.PostForm.Get(name)
		}
	}

	payload, err := s.ap.Query(ctx, token, fncid, args)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	rows, err := htmlutil.ParseTables(ctx, payload)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"status":   statusOk,
		"messages": "",
		"payload":  string(payload),
		"rows":     rows,
	})
}

type semesterJSON struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Selected int    `json:"selected"`
}

func toSemesterJSON(s ap.Semester) semesterJSON {
	selected := 0
	if s.Selected {
		selected = 1
	}
	return semesterJSON{Value: s.Value, Text: s.Text, Selected: selected}
}

// limitSemesters keeps the first limit semesters, a negative limit drops
// that many from the end instead.
func limitSemesters(semesters []ap.Semester, limit int) []ap.Semester {
	if limit < 0 {
		limit = max(len(semesters)+limit, 0)
	}
	if limit < len(semesters) {
		return semesters[:limit]
	}
	return semesters
}

func (s *Server) handleSemesters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("limit")
	limit := 0
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, "Error value for limit.", "You type a wrong value for limit.")
			return
		}
		limit = parsed
	}

	list, err := s.ap.Semesters(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	def := toSemesterJSON(list.Default)
	if r.URL.Query().Get("default") == "1" {
		writeJSON(ctx, w, http.StatusOK, map[string]any{"default": def})
		return
	}

	semesters := list.Semesters
	if raw != "" {
		semesters = limitSemesters(semesters, limit)
	}
	out := make([]semesterJSON, len(semesters))
	for i, semester := range semesters {
		out[i] = toSemesterJSON(semester)
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"semester": out,
		"default":  def,
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.news.Random(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, news.Legacy(n))
}

func (s *Server) handleNewsAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	all, err := s.news.All(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, all)
}

func (s *Server) handleNewsSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(ctx, w, http.StatusBadRequest, "missing query parameter q", userMessages[http.StatusBadRequest])
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(ctx, w, http.StatusBadRequest, "Error value for limit.", "You type a wrong value for limit.")
			return
		}
		limit = parsed
	}

	results, err := s.news.Search(ctx, query, limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"status":   statusOk,
		"messages": "",
		"results":  results,
	})
}
