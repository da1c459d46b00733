// Package moodtest runs an in-process fake of the remote mood-tracking
// service for tests. It speaks the same envelope format as the real service,
// keeps everything in memory, and offers knobs to fail, hold or count calls.
package moodtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const jsTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Time marshals like a JavaScript Date (millisecond precision, UTC).
type Time time.Time

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(jsTimeLayout))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Time(parsed)
	return nil
}

// Entry is the service-side mood entry document.
type Entry struct {
	ID            string   `json:"_id"`
	User          string   `json:"user"`
	Date          Time     `json:"date"`
	Mood          string   `json:"mood"`
	MoodIntensity int      `json:"moodIntensity"`
	JournalEntry  string   `json:"journalEntry"`
	Activities    []string `json:"activities"`
	SleepHours    *float64 `json:"sleepHours,omitempty"`
	Weather       string   `json:"weather,omitempty"`
	Tags          []string `json:"tags"`
	CreatedAt     Time     `json:"createdAt"`
	UpdatedAt     Time     `json:"updatedAt"`
}

// Profile is the optional personal detail on an account.
type Profile struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

// User is the service-side account.
type User struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Profile   *Profile `json:"profile,omitempty"`
	CreatedAt Time     `json:"createdAt"`

	password string
}

type failure struct {
	method, prefix string
	status         int
	message        string
}

type hold struct {
	method, prefix string
	release        chan struct{}
}

// Server is the fake service. URL is the API base including the /api prefix.
type Server struct {
	URL string

	srv *httptest.Server

	mu       sync.Mutex
	now      func() time.Time
	users    map[string]*User // by email
	tokens   map[string]string
	entries  map[string][]*Entry // by user id
	failures []failure
	holds    []hold
	calls    map[string]int
}

// NewServer starts a fake service. Close it when done.
func NewServer() *Server {
	s := &Server{
		now:     time.Now,
		users:   map[string]*User{},
		tokens:  map[string]string{},
		entries: map[string][]*Entry{},
		calls:   map[string]int{},
	}

	r := mux.NewRouter()
	r.Use(s.instrument)
	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	a.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	p := a.NewRoute().Subrouter()
	p.Use(s.authenticate)
	p.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	p.HandleFunc("/auth/profile", s.handleProfile).Methods(http.MethodPut)
	p.HandleFunc("/auth/change-password", s.handleChangePassword).Methods(http.MethodPut)
	p.HandleFunc("/mood/entries", s.handleList).Methods(http.MethodGet)
	p.HandleFunc("/mood/entries", s.handleCreate).Methods(http.MethodPost)
	p.HandleFunc("/mood/entries/today", s.handleToday).Methods(http.MethodGet)
	p.HandleFunc("/mood/entries/{id}", s.handleGet).Methods(http.MethodGet)
	p.HandleFunc("/mood/entries/{id}", s.handleUpdate).Methods(http.MethodPut)
	p.HandleFunc("/mood/entries/{id}", s.handleDelete).Methods(http.MethodDelete)
	p.HandleFunc("/mood/stats", s.handleStats).Methods(http.MethodGet)
	p.HandleFunc("/mood/calendar", s.handleCalendar).Methods(http.MethodGet)

	s.srv = httptest.NewServer(r)
	s.URL = s.srv.URL + "/api"
	return s
}

// Close shuts the server down, releasing any held requests first.
func (s *Server) Close() {
	s.mu.Lock()
	for _, h := range s.holds {
		closeOnce(h.release)
	}
	s.holds = nil
	s.mu.Unlock()
	s.srv.Close()
}

// SetNow fixes the service clock used for "today" and stats windows.
func (s *Server) SetNow(fn func() time.Time) {
	s.mu.Lock()
	s.now = fn
	s.mu.Unlock()
}

// AddUser registers an account and returns a valid token for it.
func (s *Server) AddUser(name, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &User{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: Time(s.now()), password: password}
	s.users[email] = u
	return s.issueToken(u.ID)
}

// Seed stores entries for the owner of token as if they had been created
// earlier. Missing ids are assigned.
func (s *Server) Seed(token string, entries ...Entry) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := s.tokens[token]
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e := e
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.User = uid
		if time.Time(e.CreatedAt).IsZero() {
			e.CreatedAt = Time(s.now())
		}
		e.UpdatedAt = e.CreatedAt
		s.entries[uid] = append(s.entries[uid], &e)
		out = append(out, e)
	}
	return out
}

// Entries returns the stored entries of token's owner, newest date first.
func (s *Server) Entries(token string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.sorted(s.tokens[token]) {
		out = append(out, *e)
	}
	return out
}

// RevokeTokens invalidates every issued token.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.tokens = map[string]string{}
	s.mu.Unlock()
}

// FailNext makes the next request matching method and path prefix (relative
// to /api) answer status with message.
func (s *Server) FailNext(method, prefix string, status int, message string) {
	s.mu.Lock()
	s.failures = append(s.failures, failure{method: method, prefix: prefix, status: status, message: message})
	s.mu.Unlock()
}

// Hold blocks the next request matching method and prefix until the returned
// release func is called. The request is handled after release.
func (s *Server) Hold(method, prefix string) (release func()) {
	h := hold{method: method, prefix: prefix, release: make(chan struct{})}
	s.mu.Lock()
	s.holds = append(s.holds, h)
	s.mu.Unlock()
	return func() { closeOnce(h.release) }
}

// Calls returns how many requests matched method and prefix so far.
func (s *Server) Calls(method, prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, v := range s.calls {
		m, path, _ := strings.Cut(k, " ")
		if m == method && strings.HasPrefix(path, prefix) {
			n += v
		}
	}
	return n
}

func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")

		s.mu.Lock()
		s.calls[r.Method+" "+path]++
		var fail *failure
		for i, f := range s.failures {
			if f.method == r.Method && strings.HasPrefix(path, f.prefix) {
				fail = &f
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				break
			}
		}
		var release chan struct{}
		for i, h := range s.holds {
			if h.method == r.Method && strings.HasPrefix(path, h.prefix) {
				release = h.release
				s.holds = append(s.holds[:i], s.holds[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if release != nil {
			<-release
		}
		if fail != nil {
			writeJSON(w, fail.status, map[string]any{"success": false, "message": fail.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		uid, ok := s.tokens[tok]
		s.mu.Unlock()
		if tok == "" || !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Token is not valid"})
			return
		}
		r.Header.Set("X-User-ID", uid)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) issueToken(uid string) string {
	tok := uuid.NewString()
	s.tokens[tok] = uid
	return tok
}

func (s *Server) userByID(uid string) *User {
	for _, u := range s.users {
		if u.ID == uid {
			return u
		}
	}
	return nil
}

// sorted returns uid's entries ordered by date, newest first. Callers hold mu.
func (s *Server) sorted(uid string) []*Entry {
	out := append([]*Entry(nil), s.entries[uid]...)
	sort.SliceStable(out, func(i, j int) bool {
		return time.Time(out[i].Date).After(time.Time(out[j].Date))
	})
	return out
}

func (s *Server) find(uid, id string) (int, *Entry) {
	for i, e := range s.entries[uid] {
		if e.ID == id {
			return i, e
		}
	}
	return -1, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

// ---------------------------------------------------------------------------
// auth

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct{ Name, Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		fail(w, http.StatusBadRequest, "Please provide name, email and password")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		fail(w, http.StatusBadRequest, "User already exists")
		return
	}
	u := &User{ID: uuid.NewString(), Name: req.Name, Email: req.Email, CreatedAt: Time(s.now()), password: req.Password}
	s.users[req.Email] = u
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "token": s.issueToken(u.ID), "user": u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, exists := s.users[req.Email]
	if !exists || u.password != req.Password {
		fail(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": s.issueToken(u.ID), "user": u})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := s.userByID(r.Header.Get("X-User-ID"))
	s.mu.Unlock()
	if u == nil {
		fail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string   `json:"name"`
		Email   string   `json:"email"`
		Profile *Profile `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Malformed profile")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByID(r.Header.Get("X-User-ID"))
	if u == nil {
		fail(w, http.StatusNotFound, "User not found")
		return
	}
	if req.Email != "" && req.Email != u.Email {
		if _, taken := s.users[req.Email]; taken {
			fail(w, http.StatusBadRequest, "Email already in use")
			return
		}
		delete(s.users, u.Email)
		u.Email = req.Email
		s.users[u.Email] = u
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Profile != nil {
		p := *req.Profile
		u.Profile = &p
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct{ CurrentPassword, NewPassword string }
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByID(r.Header.Get("X-User-ID"))
	if u == nil {
		fail(w, http.StatusNotFound, "User not found")
		return
	}
	if u.password != req.CurrentPassword {
		fail(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if len(req.NewPassword) < 6 {
		fail(w, http.StatusBadRequest, "New password must be at least 6 characters")
		return
	}
	u.password = req.NewPassword
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password updated successfully"})
}

// ---------------------------------------------------------------------------
// entries

type entryBody struct {
	Date          *Time     `json:"date"`
	Mood          *string   `json:"mood"`
	MoodIntensity *int      `json:"moodIntensity"`
	JournalEntry  *string   `json:"journalEntry"`
	Activities    *[]string `json:"activities"`
	SleepHours    *float64  `json:"sleepHours"`
	Weather       *string   `json:"weather"`
	Tags          *[]string `json:"tags"`
}

func (b entryBody) apply(e *Entry) {
	if b.Date != nil && !time.Time(*b.Date).IsZero() {
		e.Date = *b.Date
	}
	if b.Mood != nil {
		e.Mood = *b.Mood
	}
	if b.MoodIntensity != nil {
		e.MoodIntensity = *b.MoodIntensity
	}
	if b.JournalEntry != nil {
		e.JournalEntry = *b.JournalEntry
	}
	if b.Activities != nil {
		e.Activities = *b.Activities
	}
	if b.SleepHours != nil {
		e.SleepHours = b.SleepHours
	}
	if b.Weather != nil {
		e.Weather = *b.Weather
	}
	if b.Tags != nil {
		e.Tags = *b.Tags
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var start, end time.Time
	if v := q.Get("startDate"); v != "" {
		start, _ = time.Parse(time.RFC3339, v)
	}
	if v := q.Get("endDate"); v != "" {
		end, _ = time.Parse(time.RFC3339, v)
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	var out []*Entry
	for _, e := range s.sorted(r.Header.Get("X-User-ID")) {
		d := time.Time(e.Date)
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		if m := q.Get("mood"); m != "" && e.Mood != m {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	s.mu.Unlock()

	if limit > 0 {
		from := (page - 1) * limit
		if from > len(out) {
			from = len(out)
		}
		to := from + limit
		if to > len(out) {
			to = len(out)
		}
		out = out[from:to]
	}
	if out == nil {
		out = []*Entry{}
	}
	ok(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var b entryBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		fail(w, http.StatusBadRequest, "Malformed entry")
		return
	}
	if b.Mood == nil || *b.Mood == "" {
		fail(w, http.StatusBadRequest, "Mood is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e := &Entry{ID: uuid.NewString(), User: r.Header.Get("X-User-ID"), Date: Time(now), MoodIntensity: 5,
		Activities: []string{}, Tags: []string{}, CreatedAt: Time(now), UpdatedAt: Time(now)}
	b.apply(e)
	s.entries[e.User] = append(s.entries[e.User], e)
	current, _ := streaks(s.sorted(e.User), now)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": e, "streak": current})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, e := s.find(r.Header.Get("X-User-ID"), mux.Vars(r)["id"])
	if e == nil {
		fail(w, http.StatusNotFound, "Mood entry not found")
		return
	}
	ok(w, http.StatusOK, e)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	y, m, d := s.now().Date()
	for _, e := range s.sorted(r.Header.Get("X-User-ID")) {
		ey, em, ed := time.Time(e.Date).In(s.now().Location()).Date()
		if ey == y && em == m && ed == d {
			ok(w, http.StatusOK, e)
			return
		}
	}
	ok(w, http.StatusOK, nil)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var b entryBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		fail(w, http.StatusBadRequest, "Malformed entry")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, e := s.find(r.Header.Get("X-User-ID"), mux.Vars(r)["id"])
	if e == nil {
		fail(w, http.StatusNotFound, "Mood entry not found")
		return
	}
	b.apply(e)
	e.UpdatedAt = Time(s.now())
	ok(w, http.StatusOK, e)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid := r.Header.Get("X-User-ID")
	i, e := s.find(uid, mux.Vars(r)["id"])
	if e == nil {
		fail(w, http.StatusNotFound, "Mood entry not found")
		return
	}
	s.entries[uid] = append(s.entries[uid][:i], s.entries[uid][i+1:]...)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Mood entry deleted"})
}

// ---------------------------------------------------------------------------
// stats

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		days = 30
	}
	s.mu.Lock()
	now := s.now()
	all := s.sorted(r.Header.Get("X-User-ID"))
	s.mu.Unlock()

	since := now.AddDate(0, 0, -days)
	moods := map[string]int{}
	acts := map[string]int{}
	var trend []map[string]any
	sum, n := 0, 0
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
		d := time.Time(e.Date)
		if d.Before(since) {
			continue
		}
		n++
		sum += e.MoodIntensity
		moods[e.Mood]++
		for _, a := range e.Activities {
			acts[a]++
		}
		trend = append(trend, map[string]any{"date": d.In(now.Location()).Format("2006-01-02"), "mood": e.MoodIntensity})
	}

	avg := 0.0
	if n > 0 {
		avg = float64(sum) / float64(n)
	}
	current, longest := streaks(all, now)
	ok(w, http.StatusOK, map[string]any{
		"totalEntries":      n,
		"streak":            map[string]int{"current": current, "longest": longest},
		"averageMood":       avg,
		"moodDistribution":  counts(moods, "mood"),
		"moodTrend":         nonNil(trend),
		"activityFrequency": counts(acts, "activity"),
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, yerr := strconv.Atoi(q.Get("year"))
	month, merr := strconv.Atoi(q.Get("month"))
	if yerr != nil || merr != nil || month < 1 || month > 12 {
		fail(w, http.StatusBadRequest, "Please provide year and month")
		return
	}
	s.mu.Lock()
	loc := s.now().Location()
	var out []*Entry
	for _, e := range s.sorted(r.Header.Get("X-User-ID")) {
		y, m, _ := time.Time(e.Date).In(loc).Date()
		if y == year && int(m) == month {
			cp := *e
			out = append(out, &cp)
		}
	}
	s.mu.Unlock()
	if out == nil {
		out = []*Entry{}
	}
	ok(w, http.StatusOK, out)
}

func streaks(newestFirst []*Entry, now time.Time) (current, longest int) {
	days := map[string]bool{}
	for _, e := range newestFirst {
		days[time.Time(e.Date).In(now.Location()).Format("2006-01-02")] = true
	}
	day := now
	if !days[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}
	for days[day.Format("2006-01-02")] {
		current++
		day = day.AddDate(0, 0, -1)
	}
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	run := 0
	var prev time.Time
	for _, k := range keys {
		d, _ := time.Parse("2006-01-02", k)
		if run > 0 && d.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = d
	}
	return current, longest
}

func counts(m map[string]int, key string) []map[string]any {
	out := make([]map[string]any, 0, len(m))
	for k, v := range m {
		out = append(out, map[string]any{key: k, "count": v})
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i]["count"].(int), out[j]["count"].(int)
		if ci != cj {
			return ci > cj
		}
		return out[i][key].(string) < out[j][key].(string)
	})
	return out
}

func nonNil(v []map[string]any) []map[string]any {
	if v == nil {
		return []map[string]any{}
	}
	return v
}
