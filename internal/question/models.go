package question

import "encoding/json"

// QStem is the question text/body of a multiple-choice item.
type QStem struct {
	ID                string   `json:"id"`
	ClassID           string   `json:"cid"`
	AuthorID          string   `json:"author"`
	StemText          string   `json:"raw_string"`
	Explanation       string   `json:"explanation,omitempty"`
	LearningObjective string   `json:"learning_objective,omitempty"`
	Keywords          []string `json:"keywords,omitempty"`
	CreatedAt         int64    `json:"created_at,omitempty"`
}

// Option is a candidate answer (marked answer or distractor) attached to a stem.
type Option struct {
	ID         string   `json:"id"`
	QStemID    string   `json:"qstem"`
	ClassID    string   `json:"cid"`
	AuthorID   string   `json:"author"`
	OptionText string   `json:"option_text"`
	IsAnswer   bool     `json:"is_answer"`
	Keywords   []string `json:"keywords,omitempty"`
	CreatedAt  int64    `json:"created_at,omitempty"`
}

// Topic is an instructor-defined learning-objective grouping of stems.
type Topic struct {
	ID                     string `json:"id"`
	ClassID                string `json:"cid"`
	Label                  string `json:"label"`
	RequiredQuestionNumber int    `json:"required_question_number"`
	RequiredOptionNumber   int    `json:"required_option_number"`
	CreatedAt              int64  `json:"created_at,omitempty"`
}

type Class struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	CurrentTopic string `json:"current_topic,omitempty"`
	CreatedAt    int64  `json:"created_at,omitempty"`
}

type SolveRecord struct {
	ID             string   `json:"id"`
	QStemID        string   `json:"qid"`
	UserID         string   `json:"uid"`
	SelectedOption string   `json:"selected_option"`
	IsCorrect      bool     `json:"is_correct"`
	OptionSet      []string `json:"option_set"`
	CreatedAt      int64    `json:"created_at,omitempty"`
}

type Report struct {
	ID        string `json:"id"`
	QStemID   string `json:"qid"`
	UserID    string `json:"uid"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// ClassRef is a user's membership in one class.
type ClassRef struct {
	CID  string `json:"cid"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Profile is the session payload served by GET /me.
type Profile struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Img       string     `json:"img,omitempty"`
	IsAdmin   bool       `json:"is_admin"`
	Classes   []ClassRef `json:"classes"`
	StudentID string     `json:"student_id,omitempty"`
	Consent   bool       `json:"consent"`
}

type ClassInfo struct {
	Name           string  `json:"name"`
	Topics         []Topic `json:"topics"`
	StudentsNumber int     `json:"students_number"`
	QStemsNumber   int     `json:"qstems_number"`
	CurrentTopic   string  `json:"current_topic,omitempty"`
}

// Activity is the per-user authoring summary shown on admin dashboards.
type Activity struct {
	NumberOfStems   int `json:"number_of_stems"`
	NumberOfOptions int `json:"number_of_options"`
}

type ListOpts struct {
	ClassID string
	Topic   string // case-insensitive substring match on learning objective
	Page    int    // 1-based
	PerPage int
}

type StemPage struct {
	Stems    []QStem `json:"problem_list"`
	MaxPages int     `json:"max_pages"`
}

type AuthoredOpts struct {
	UserID  string
	ClassID string // optional
	Topic   string // optional
}

// Cluster is the server-side option clustering for a stem, consumed as an
// opaque JSON array.
type Cluster = json.RawMessage
