package question

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	CreateStem(ctx context.Context, s QStem) (QStem, error)
	CreateOption(ctx context.Context, o Option) (Option, error)
	GetStem(ctx context.Context, id string) (QStem, error)
	StemOptions(ctx context.Context, qstemID string) ([]Option, error)
	ListClassStems(ctx context.Context, opts ListOpts) (StemPage, error)

	Cluster(ctx context.Context, qstemID string) (Cluster, error)
	PutCluster(ctx context.Context, qstemID string, c Cluster) error

	AuthoredStems(ctx context.Context, opts AuthoredOpts) ([]QStem, error)
	AuthoredOptions(ctx context.Context, opts AuthoredOpts) ([]Option, error)
	// StemsByIDs resolves stems in one batch; result order matches the input
	// id order. Unknown ids yield no row.
	StemsByIDs(ctx context.Context, ids []string) ([]QStem, error)

	JoinClassByCode(ctx context.Context, code, userID string) (Class, error)
	Profile(ctx context.Context, userID string) (Profile, error)
	SetStudentID(ctx context.Context, userID, studentID string) error
	SetConsent(ctx context.Context, userID string, consent bool) error

	CreateClass(ctx context.Context, name, code string) (Class, error)
	ClassInfo(ctx context.Context, classID string) (ClassInfo, error)
	ListStudents(ctx context.Context, classID string) ([]Profile, error)
	UserActivity(ctx context.Context, classID, topic, userID string) (Activity, error)

	CreateTopic(ctx context.Context, t Topic) (Topic, error)
	UpdateTopic(ctx context.Context, t Topic) error
	DeleteTopic(ctx context.Context, topicID string) error
	SetCurrentTopic(ctx context.Context, classID, topicID string) error

	RecordSolve(ctx context.Context, rec SolveRecord) error
	CreateReport(ctx context.Context, rep Report) error
}

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// topicMatches reports whether a stem's learning objective matches a topic
// filter, as a case-insensitive substring. Empty filter matches everything.
func topicMatches(objective, topic string) bool {
	if topic == "" {
		return true
	}
	return strings.Contains(strings.ToLower(objective), strings.ToLower(topic))
}

// memoryStore keeps stems/options in creation-ordered slices so that list
// operations return the same ordering the SQL store does.
type memoryStore struct {
	mu       sync.RWMutex
	users    map[string]*Profile
	classes  map[string]*Class
	enrolled map[string][]string // classID -> studentIDs in join order
	topics   []*Topic
	stems    []*QStem
	stemByID map[string]*QStem
	options  []*Option
	clusters map[string]Cluster
	solves   []SolveRecord
	reports  []Report
}

// NewInMemoryStore is used by tests and the offline demo mode.
func NewInMemoryStore() Store {
	return &memoryStore{
		users:    map[string]*Profile{},
		classes:  map[string]*Class{},
		enrolled: map[string][]string{},
		stemByID: map[string]*QStem{},
		clusters: map[string]Cluster{},
	}
}

func (m *memoryStore) CreateStem(_ context.Context, s QStem) (QStem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.classes[s.ClassID]; !ok {
		return QStem{}, errors.New("class not found")
	}
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().Unix()
	m.stems = append(m.stems, &s)
	m.stemByID[s.ID] = &s
	return s, nil
}

func (m *memoryStore) CreateOption(_ context.Context, o Option) (Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stem, ok := m.stemByID[o.QStemID]
	if !ok {
		return Option{}, errors.New("stem not found")
	}
	o.ID = uuid.NewString()
	o.ClassID = stem.ClassID
	o.CreatedAt = time.Now().Unix()
	m.options = append(m.options, &o)
	return o, nil
}

func (m *memoryStore) GetStem(_ context.Context, id string) (QStem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stemByID[id]
	if !ok {
		return QStem{}, ErrNotFound
	}
	return *s, nil
}

func (m *memoryStore) StemOptions(_ context.Context, qstemID string) ([]Option, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Option{}
	for _, o := range m.options {
		if o.QStemID == qstemID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memoryStore) ListClassStems(_ context.Context, opts ListOpts) (StemPage, error) {
	if opts.PerPage <= 0 {
		opts.PerPage = 20
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := []QStem{}
	for _, s := range m.stems {
		if s.ClassID == opts.ClassID && topicMatches(s.LearningObjective, opts.Topic) {
			all = append(all, *s)
		}
	}
	maxPages := (len(all) + opts.PerPage - 1) / opts.PerPage
	start := (opts.Page - 1) * opts.PerPage
	if start >= len(all) {
		return StemPage{Stems: []QStem{}, MaxPages: maxPages}, nil
	}
	end := start + opts.PerPage
	if end > len(all) {
		end = len(all)
	}
	return StemPage{Stems: all[start:end], MaxPages: maxPages}, nil
}

func (m *memoryStore) Cluster(_ context.Context, qstemID string) (Cluster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.stemByID[qstemID]; !ok {
		return nil, ErrNotFound
	}
	c, ok := m.clusters[qstemID]
	if !ok {
		return Cluster(`[]`), nil
	}
	return c, nil
}

func (m *memoryStore) PutCluster(_ context.Context, qstemID string, c Cluster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stemByID[qstemID]; !ok {
		return ErrNotFound
	}
	m.clusters[qstemID] = c
	return nil
}

func (m *memoryStore) AuthoredStems(_ context.Context, opts AuthoredOpts) ([]QStem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []QStem{}
	for _, s := range m.stems {
		if s.AuthorID != opts.UserID {
			continue
		}
		if opts.ClassID != "" && s.ClassID != opts.ClassID {
			continue
		}
		if !topicMatches(s.LearningObjective, opts.Topic) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *memoryStore) AuthoredOptions(_ context.Context, opts AuthoredOpts) ([]Option, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Option{}
	for _, o := range m.options {
		if o.AuthorID != opts.UserID {
			continue
		}
		if opts.ClassID != "" && o.ClassID != opts.ClassID {
			continue
		}
		if opts.Topic != "" {
			stem, ok := m.stemByID[o.QStemID]
			if !ok || !topicMatches(stem.LearningObjective, opts.Topic) {
				continue
			}
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *memoryStore) StemsByIDs(_ context.Context, ids []string) ([]QStem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]QStem, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.stemByID[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memoryStore) JoinClassByCode(_ context.Context, code, userID string) (Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return Class{}, errors.New("user not found")
	}
	for _, c := range m.classes {
		if c.Code != code {
			continue
		}
		for _, sid := range m.enrolled[c.ID] {
			if sid == userID {
				return *c, nil // idempotent join
			}
		}
		m.enrolled[c.ID] = append(m.enrolled[c.ID], userID)
		u.Classes = append(u.Classes, ClassRef{CID: c.ID, Name: c.Name, Code: c.Code})
		return *c, nil
	}
	return Class{}, ErrNotFound
}

func (m *memoryStore) Profile(_ context.Context, userID string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return *u, nil
}

func (m *memoryStore) SetStudentID(_ context.Context, userID, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.StudentID = studentID
	return nil
}

func (m *memoryStore) SetConsent(_ context.Context, userID string, consent bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Consent = consent
	return nil
}

func (m *memoryStore) CreateClass(_ context.Context, name, code string) (Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.classes {
		if c.Code == code {
			return Class{}, ErrAlreadyExists
		}
	}
	c := Class{ID: uuid.NewString(), Name: name, Code: code, CreatedAt: time.Now().Unix()}
	m.classes[c.ID] = &c
	return c, nil
}

func (m *memoryStore) ClassInfo(_ context.Context, classID string) (ClassInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.classes[classID]
	if !ok {
		return ClassInfo{}, ErrNotFound
	}
	info := ClassInfo{Name: c.Name, Topics: []Topic{}, CurrentTopic: c.CurrentTopic}
	for _, t := range m.topics {
		if t.ClassID == classID {
			info.Topics = append(info.Topics, *t)
		}
	}
	info.StudentsNumber = len(m.enrolled[classID])
	for _, s := range m.stems {
		if s.ClassID == classID {
			info.QStemsNumber++
		}
	}
	return info, nil
}

func (m *memoryStore) ListStudents(_ context.Context, classID string) ([]Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Profile{}
	for _, sid := range m.enrolled[classID] {
		if u, ok := m.users[sid]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memoryStore) UserActivity(_ context.Context, classID, topic, userID string) (Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var act Activity
	topicStems := map[string]bool{}
	for _, s := range m.stems {
		if s.ClassID != classID || !topicMatches(s.LearningObjective, topic) {
			continue
		}
		topicStems[s.ID] = true
		if s.AuthorID == userID {
			act.NumberOfStems++
		}
	}
	authoredOptions := 0
	for _, o := range m.options {
		if o.AuthorID == userID && topicStems[o.QStemID] {
			authoredOptions++
		}
	}
	// Each authored stem carries its author's answer option; count only the
	// extra distractor contributions.
	act.NumberOfOptions = authoredOptions - act.NumberOfStems
	if act.NumberOfOptions < 0 {
		act.NumberOfOptions = 0
	}
	return act, nil
}

func (m *memoryStore) CreateTopic(_ context.Context, t Topic) (Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.classes[t.ClassID]; !ok {
		return Topic{}, errors.New("class not found")
	}
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().Unix()
	m.topics = append(m.topics, &t)
	return t, nil
}

func (m *memoryStore) UpdateTopic(_ context.Context, t Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, old := range m.topics {
		if old.ID == t.ID {
			old.Label = t.Label
			old.RequiredQuestionNumber = t.RequiredQuestionNumber
			old.RequiredOptionNumber = t.RequiredOptionNumber
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryStore) DeleteTopic(_ context.Context, topicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.topics {
		if t.ID == topicID {
			m.topics = append(m.topics[:i], m.topics[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryStore) SetCurrentTopic(_ context.Context, classID, topicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classes[classID]
	if !ok {
		return ErrNotFound
	}
	c.CurrentTopic = topicID
	return nil
}

func (m *memoryStore) RecordSolve(_ context.Context, rec SolveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stemByID[rec.QStemID]; !ok {
		return errors.New("stem not found")
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().Unix()
	m.solves = append(m.solves, rec)
	return nil
}

func (m *memoryStore) CreateReport(_ context.Context, rep Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep.ID = uuid.NewString()
	rep.CreatedAt = time.Now().Unix()
	m.reports = append(m.reports, rep)
	return nil
}

// AddUser seeds a user profile; not part of the Store interface, used by
// tests and the offline demo mode.
func (m *memoryStore) AddUser(p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Classes == nil {
		p.Classes = []ClassRef{}
	}
	m.users[p.ID] = &p
}
