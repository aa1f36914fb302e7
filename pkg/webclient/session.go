package webclient

// Session is the single source of truth for "who is logged in and what do
// they see". Its operations are pure state transitions and cannot fail; all
// network failure handling happens in the calling view, which only ever hands
// the session already-validated payloads. The UI serializes user actions, so
// the session has exactly one logical owner at a time and carries no lock.
type Session struct {
	Name       string
	Email      string
	Img        string
	IsLoggedIn bool
	IsAdmin    bool
	Classes    []EnrolledClass
	StudentID  string
	Consent    bool

	cache *ContentCache
}

// NewSession returns a logged-out session. The cache may be nil when the
// caller manages content caching separately.
func NewSession(cache *ContentCache) *Session {
	s := &Session{cache: cache}
	s.reset()
	return s
}

// Login replaces all session fields atomically with the given profile. Fields
// absent from the payload are dropped, not merged.
func (s *Session) Login(p Profile) {
	s.Name = p.Name
	s.Email = p.Email
	s.Img = p.Img
	s.IsLoggedIn = p.IsLoggedIn
	s.IsAdmin = p.IsAdmin
	s.Classes = append([]EnrolledClass{}, p.Classes...)
	s.StudentID = p.StudentID
	s.Consent = p.Consent
}

// Logout resets every field to its empty default and clears the content
// cache, which has no life beyond the session backing it.
func (s *Session) Logout() {
	s.reset()
	if s.cache != nil {
		s.cache.Clear()
	}
}

func (s *Session) reset() {
	s.Name = ""
	s.Email = ""
	s.Img = ""
	s.IsLoggedIn = false
	s.IsAdmin = false
	s.Classes = []EnrolledClass{}
	s.StudentID = ""
	s.Consent = false
}

// Enroll appends a class to the session's class list only if the session is
// logged in. A never-authenticated session silently no-ops; this is a guard,
// not an error.
func (s *Session) Enroll(c EnrolledClass) {
	if !s.IsLoggedIn {
		return
	}
	s.Classes = append(s.Classes, c)
}

func (s *Session) SetStudentID(id string) {
	s.StudentID = id
}

func (s *Session) SetConsent(consent bool) {
	s.Consent = consent
}
