// Package webclient holds the client-side state the web front end keeps per
// signed-in user: the session profile, the read-through cache for "my created
// content", and the class-enrollment flow. State lives in explicit objects
// handed to each view rather than ambient globals; the UI event loop is the
// single writer.
package webclient

import "context"

// EnrolledClass is a user's membership in one class.
type EnrolledClass struct {
	CID  string `json:"cid"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Profile is the payload a sign-in callback delivers.
type Profile struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Img        string          `json:"img,omitempty"`
	IsLoggedIn bool            `json:"is_logged_in"`
	IsAdmin    bool            `json:"is_admin"`
	Classes    []EnrolledClass `json:"classes"`
	StudentID  string          `json:"student_id,omitempty"`
	Consent    bool            `json:"consent"`
}

// Stem is an authored question stem as the API serves it.
type Stem struct {
	ID        string `json:"id"`
	CID       string `json:"cid"`
	Text      string `json:"raw_string"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// OptionRecord is an authored option; it references its parent stem by id
// only, so displaying it requires a second resolve call.
type OptionRecord struct {
	ID       string `json:"id"`
	QStemID  string `json:"qstem"`
	Text     string `json:"option_text"`
	IsAnswer bool   `json:"is_answer"`
}

// MadeOption is an authored option joined with its parent stem's text.
type MadeOption struct {
	Option   OptionRecord `json:"option"`
	StemText string       `json:"stem_text"`
}

// Fetcher is the slice of the backend API the session-scoped state consumes.
// api.Client implements it; tests substitute fakes.
type Fetcher interface {
	// MadeStems lists the caller's authored stems in creation order.
	MadeStems(ctx context.Context) ([]Stem, error)
	// MadeOptions lists the caller's authored options in creation order.
	MadeOptions(ctx context.Context) ([]OptionRecord, error)
	// StemsByIDs resolves stems in one batch, output order matching ids.
	StemsByIDs(ctx context.Context, ids []string) ([]Stem, error)
	// JoinClass redeems a class code. A zero-CID result means the code was
	// rejected.
	JoinClass(ctx context.Context, code string) (EnrolledClass, error)
	RegisterStudentID(ctx context.Context, studentID string) error
	SetConsent(ctx context.Context, consent bool) error
}
