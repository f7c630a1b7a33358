// Package kuasaptest emulates the portal's login, priming and query pages
// for tests.
package kuasaptest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "JSESSIONID"

type Portal struct {
	server *httptest.Server

	mu       sync.Mutex
	accounts map[string]string
	sessions map[string]string
	nonces   map[string]string
	payloads map[string]string
	status   int
	delay    time.Duration

	logins  int
	primes  int
	queries map[string]int
}

// NewPortal starts a portal that accepts the given username -> password pairs.
func NewPortal(accounts map[string]string) *Portal {
	p := &Portal{
		accounts: accounts,
		sessions: make(map[string]string),
		nonces:   make(map[string]string),
		payloads: make(map[string]string),
		queries:  make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /kuas/perchk.jsp", p.handleLogin)
	mux.HandleFunc("POST /kuas/fnc.jsp", p.handleFunction)
	mux.HandleFunc("POST /kuas/{category}/{page}", p.handleQuery)
	p.server = httptest.NewServer(p.middleware(mux))
	return p
}

// URL is the base url clients should be configured with.
func (p *Portal) URL() string {
	return p.server.URL + "/kuas"
}

func (p *Portal) Close() {
	p.server.Close()
}

// SetPayload replaces the body returned for a query id.
func (p *Portal) SetPayload(qid, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads[qid] = body
}

// SetStatus makes every page respond with the given status, 0 restores
// normal behavior.
func (p *Portal) SetStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
}

// SetDelay delays every response.
func (p *Portal) SetDelay(delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = delay
}

func (p *Portal) LoginCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logins
}

func (p *Portal) PrimeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.primes
}

// QueryCount is the number of successful queries made for qid.
func (p *Portal) QueryCount(qid string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queries[qid]
}

func (p *Portal) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		status := p.status
		delay := p.delay
		p.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Portal) session(r *http.Request) (string, string) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return cookie.Value, p.sessions[cookie.Value]
}

func (p *Portal) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("uid")
	password := r.PostFormValue("pwd")

	p.mu.Lock()
	p.logins++
	expected, ok := p.accounts[username]
	p.mu.Unlock()

	if !ok || expected != password {
		fmt.Fprint(w, `<html><script>alert("帳號或密碼錯誤");history.back();</script></html>`)
		return
	}

	id := uuid.NewString()
	p.mu.Lock()
	p.sessions[id] = username
	p.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/kuas"})
	fmt.Fprint(w, `<html><script>top.location.href="f_index.html";</script></html>`)
}

func (p *Portal) handleFunction(w http.ResponseWriter, r *http.Request) {
	id, username := p.session(r)
	if username == "" {
		fmt.Fprint(w, `<html><body>session timeout</body></html>`)
		return
	}

	fncid := r.PostFormValue("fncid")
	nonce := uuid.NewString()

	p.mu.Lock()
	p.primes++
	p.nonces[id] = nonce
	p.mu.Unlock()

	// the portal never closes its input tags
	fmt.Fprintf(
		w,
		`<html><body><form method="post"><input type="hidden" name="fncid" value="%s"><input type="hidden" name="uid" value="%s"><input type="hidden" name="ls_randnum" value="%s"><input type="hidden" name="arg01"><input type="hidden" name="arg02"></form></body></html>`,
		fncid, username, nonce,
	)
}

func (p *Portal) handleQuery(w http.ResponseWriter, r *http.Request) {
	id, username := p.session(r)
	if username == "" {
		fmt.Fprint(w, `<html><body>session timeout</body></html>`)
		return
	}

	qid := strings.TrimSuffix(r.PathValue("page"), ".jsp")
	if r.PathValue("category") != qid[:min(2, len(qid))]+"_pro" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.PostFormValue("fncid") != strings.ToUpper(qid) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "function id mismatch")
		return
	}

	p.mu.Lock()
	nonce := p.nonces[id]
	delete(p.nonces, id)
	if nonce == "" || r.PostFormValue("ls_randnum") != nonce {
		p.mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "invalid nonce")
		return
	}
	p.queries[qid]++
	payload, ok := p.payloads[qid]
	p.mu.Unlock()

	if ok {
		fmt.Fprint(w, payload)
		return
	}
	fmt.Fprintf(
		w,
		`<html><body><table><tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr></table></body></html>`,
		qid,
		r.PostFormValue("uid"),
		r.PostFormValue("arg01"),
		r.PostFormValue("arg02"),
		r.PostFormValue("arg03"),
	)
}
