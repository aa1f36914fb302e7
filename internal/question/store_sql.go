package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) CreateStem(ctx context.Context, q QStem) (QStem, error) {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM classes WHERE id=$1`, q.ClassID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return QStem{}, errors.New("class not found")
		}
		return QStem{}, err
	}
	q.ID = uuid.NewString()
	q.CreatedAt = time.Now().Unix()
	kw, _ := json.Marshal(q.Keywords)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO qstems (id,class_id,author_id,stem_text,explanation,learning_objective,keywords_json,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		q.ID, q.ClassID, q.AuthorID, q.StemText, q.Explanation, q.LearningObjective, string(kw), q.CreatedAt)
	if err != nil {
		return QStem{}, err
	}
	return q, nil
}

func (s *SQLStore) CreateOption(ctx context.Context, o Option) (Option, error) {
	var classID string
	if err := s.db.QueryRowContext(ctx, `SELECT class_id FROM qstems WHERE id=$1`, o.QStemID).Scan(&classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Option{}, errors.New("stem not found")
		}
		return Option{}, err
	}
	o.ID = uuid.NewString()
	o.ClassID = classID
	o.CreatedAt = time.Now().Unix()
	kw, _ := json.Marshal(o.Keywords)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO options (id,qstem_id,class_id,author_id,option_text,is_answer,keywords_json,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.QStemID, o.ClassID, o.AuthorID, o.OptionText, o.IsAnswer, string(kw), o.CreatedAt)
	if err != nil {
		return Option{}, err
	}
	return o, nil
}

const stemCols = `id,class_id,author_id,stem_text,explanation,learning_objective,keywords_json,created_at`

func scanStem(row interface{ Scan(...any) error }) (QStem, error) {
	var q QStem
	var kw string
	if err := row.Scan(&q.ID, &q.ClassID, &q.AuthorID, &q.StemText, &q.Explanation,
		&q.LearningObjective, &kw, &q.CreatedAt); err != nil {
		return QStem{}, err
	}
	if err := json.Unmarshal([]byte(kw), &q.Keywords); err != nil {
		q.Keywords = nil
	}
	return q, nil
}

func (s *SQLStore) GetStem(ctx context.Context, id string) (QStem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+stemCols+` FROM qstems WHERE id=$1`, id)
	q, err := scanStem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return QStem{}, ErrNotFound
	}
	return q, err
}

func (s *SQLStore) StemOptions(ctx context.Context, qstemID string) ([]Option, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,qstem_id,class_id,author_id,option_text,is_answer,keywords_json,created_at
		   FROM options WHERE qstem_id=$1 ORDER BY created_at, id`, qstemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Option{}
	for rows.Next() {
		var o Option
		var kw string
		if err := rows.Scan(&o.ID, &o.QStemID, &o.ClassID, &o.AuthorID, &o.OptionText,
			&o.IsAnswer, &kw, &o.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(kw), &o.Keywords); err != nil {
			o.Keywords = nil
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListClassStems(ctx context.Context, opts ListOpts) (StemPage, error) {
	if opts.PerPage <= 0 {
		opts.PerPage = 20
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	filter := ` WHERE class_id=$1 AND LOWER(learning_objective) LIKE '%' || LOWER($2) || '%'`

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qstems`+filter,
		opts.ClassID, opts.Topic).Scan(&total); err != nil {
		return StemPage{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stemCols+` FROM qstems`+filter+` ORDER BY created_at, id LIMIT $3 OFFSET $4`,
		opts.ClassID, opts.Topic, opts.PerPage, (opts.Page-1)*opts.PerPage)
	if err != nil {
		return StemPage{}, err
	}
	defer rows.Close()

	page := StemPage{Stems: []QStem{}, MaxPages: (total + opts.PerPage - 1) / opts.PerPage}
	for rows.Next() {
		q, err := scanStem(rows)
		if err != nil {
			return StemPage{}, err
		}
		page.Stems = append(page.Stems, q)
	}
	return page, rows.Err()
}

func (s *SQLStore) Cluster(ctx context.Context, qstemID string) (Cluster, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT cluster_json FROM qstems WHERE id=$1`, qstemID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return Cluster(raw), nil
}

func (s *SQLStore) PutCluster(ctx context.Context, qstemID string, c Cluster) error {
	res, err := s.db.ExecContext(ctx, `UPDATE qstems SET cluster_json=$1 WHERE id=$2`, string(c), qstemID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) AuthoredStems(ctx context.Context, opts AuthoredOpts) ([]QStem, error) {
	sqlStr := `SELECT ` + stemCols + ` FROM qstems WHERE author_id=$1`
	args := []any{opts.UserID}
	if opts.ClassID != "" {
		args = append(args, opts.ClassID)
		sqlStr += ` AND class_id=$` + strconv.Itoa(len(args))
	}
	if opts.Topic != "" {
		args = append(args, opts.Topic)
		sqlStr += ` AND LOWER(learning_objective) LIKE '%' || LOWER($` + strconv.Itoa(len(args)) + `) || '%'`
	}
	sqlStr += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []QStem{}
	for rows.Next() {
		q, err := scanStem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) AuthoredOptions(ctx context.Context, opts AuthoredOpts) ([]Option, error) {
	sqlStr := `SELECT o.id,o.qstem_id,o.class_id,o.author_id,o.option_text,o.is_answer,o.keywords_json,o.created_at
	             FROM options o`
	args := []any{opts.UserID}
	where := ` WHERE o.author_id=$1`
	if opts.Topic != "" {
		sqlStr += ` JOIN qstems q ON q.id=o.qstem_id`
		args = append(args, opts.Topic)
		where += ` AND LOWER(q.learning_objective) LIKE '%' || LOWER($` + strconv.Itoa(len(args)) + `) || '%'`
	}
	if opts.ClassID != "" {
		args = append(args, opts.ClassID)
		where += ` AND o.class_id=$` + strconv.Itoa(len(args))
	}
	rows, err := s.db.QueryContext(ctx, sqlStr+where+` ORDER BY o.created_at, o.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Option{}
	for rows.Next() {
		var o Option
		var kw string
		if err := rows.Scan(&o.ID, &o.QStemID, &o.ClassID, &o.AuthorID, &o.OptionText,
			&o.IsAnswer, &kw, &o.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(kw), &o.Keywords); err != nil {
			o.Keywords = nil
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// StemsByIDs returns stems keyed back into the input id order, so callers can
// rely on a stable correspondence regardless of how the database returns rows.
func (s *SQLStore) StemsByIDs(ctx context.Context, ids []string) ([]QStem, error) {
	if len(ids) == 0 {
		return []QStem{}, nil
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stemCols+` FROM qstems WHERE id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := map[string]QStem{}
	for rows.Next() {
		q, err := scanStem(rows)
		if err != nil {
			return nil, err
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]QStem, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *SQLStore) JoinClassByCode(ctx context.Context, code, userID string) (Class, error) {
	var c Class
	var cur sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,code,current_topic,created_at FROM classes WHERE code=$1`, code).
		Scan(&c.ID, &c.Name, &c.Code, &cur, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Class{}, ErrNotFound
	}
	if err != nil {
		return Class{}, err
	}
	c.CurrentTopic = cur.String
	// idempotent join: a double-click must not duplicate the enrollment
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO class_students (class_id, student_id, enrolled_at) VALUES ($1,$2,$3)
		 ON CONFLICT (class_id, student_id) DO NOTHING`,
		c.ID, userID, time.Now().Unix())
	if err != nil {
		return Class{}, err
	}
	return c, nil
}

func (s *SQLStore) Profile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,email,img,role,student_id,consent FROM users WHERE id=$1`, userID).
		Scan(&p.ID, &p.Name, &p.Email, &p.Img, &role, &p.StudentID, &p.Consent)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	p.IsAdmin = role == "admin"

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.code
		   FROM classes c
		   JOIN class_students cs ON cs.class_id=c.id
		  WHERE cs.student_id=$1
		  ORDER BY cs.enrolled_at, c.id`, userID)
	if err != nil {
		return Profile{}, err
	}
	defer rows.Close()
	p.Classes = []ClassRef{}
	for rows.Next() {
		var ref ClassRef
		if err := rows.Scan(&ref.CID, &ref.Name, &ref.Code); err != nil {
			return Profile{}, err
		}
		p.Classes = append(p.Classes, ref)
	}
	return p, rows.Err()
}

func (s *SQLStore) SetStudentID(ctx context.Context, userID, studentID string) error {
	return s.updateUserField(ctx, `UPDATE users SET student_id=$1 WHERE id=$2`, studentID, userID)
}

func (s *SQLStore) SetConsent(ctx context.Context, userID string, consent bool) error {
	return s.updateUserField(ctx, `UPDATE users SET consent=$1 WHERE id=$2`, consent, userID)
}

func (s *SQLStore) updateUserField(ctx context.Context, stmt string, val any, userID string) error {
	res, err := s.db.ExecContext(ctx, stmt, val, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) CreateClass(ctx context.Context, name, code string) (Class, error) {
	c := Class{ID: uuid.NewString(), Name: name, Code: code, CreatedAt: time.Now().Unix()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO classes (id,name,code,created_at) VALUES ($1,$2,$3,$4)`,
		c.ID, c.Name, c.Code, c.CreatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return Class{}, ErrAlreadyExists
		}
		return Class{}, err
	}
	return c, nil
}

func (s *SQLStore) ClassInfo(ctx context.Context, classID string) (ClassInfo, error) {
	var info ClassInfo
	var cur sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT name, current_topic FROM classes WHERE id=$1`, classID).Scan(&info.Name, &cur)
	if errors.Is(err, sql.ErrNoRows) {
		return ClassInfo{}, ErrNotFound
	}
	if err != nil {
		return ClassInfo{}, err
	}
	info.CurrentTopic = cur.String

	rows, err := s.db.QueryContext(ctx,
		`SELECT id,class_id,label,required_question_number,required_option_number,created_at
		   FROM topics WHERE class_id=$1 ORDER BY created_at, id`, classID)
	if err != nil {
		return ClassInfo{}, err
	}
	defer rows.Close()
	info.Topics = []Topic{}
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.ClassID, &t.Label, &t.RequiredQuestionNumber,
			&t.RequiredOptionNumber, &t.CreatedAt); err != nil {
			return ClassInfo{}, err
		}
		info.Topics = append(info.Topics, t)
	}
	if err := rows.Err(); err != nil {
		return ClassInfo{}, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM class_students WHERE class_id=$1`, classID).Scan(&info.StudentsNumber); err != nil {
		return ClassInfo{}, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM qstems WHERE class_id=$1`, classID).Scan(&info.QStemsNumber); err != nil {
		return ClassInfo{}, err
	}
	return info, nil
}

func (s *SQLStore) ListStudents(ctx context.Context, classID string) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.student_id, u.consent
		   FROM users u
		   JOIN class_students cs ON cs.student_id=u.id
		  WHERE cs.class_id=$1
		  ORDER BY u.name, u.id`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Profile{}
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.StudentID, &p.Consent); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) UserActivity(ctx context.Context, classID, topic, userID string) (Activity, error) {
	var act Activity
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM qstems
		  WHERE class_id=$1 AND author_id=$2
		    AND LOWER(learning_objective) LIKE '%' || LOWER($3) || '%'`,
		classID, userID, topic).Scan(&act.NumberOfStems)
	if err != nil {
		return Activity{}, err
	}
	var authoredOptions int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM options o
		   JOIN qstems q ON q.id=o.qstem_id
		  WHERE q.class_id=$1 AND o.author_id=$2
		    AND LOWER(q.learning_objective) LIKE '%' || LOWER($3) || '%'`,
		classID, userID, topic).Scan(&authoredOptions)
	if err != nil {
		return Activity{}, err
	}
	act.NumberOfOptions = authoredOptions - act.NumberOfStems
	if act.NumberOfOptions < 0 {
		act.NumberOfOptions = 0
	}
	return act, nil
}

func (s *SQLStore) CreateTopic(ctx context.Context, t Topic) (Topic, error) {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM classes WHERE id=$1`, t.ClassID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Topic{}, errors.New("class not found")
		}
		return Topic{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (id,class_id,label,required_question_number,required_option_number,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.ClassID, t.Label, t.RequiredQuestionNumber, t.RequiredOptionNumber, t.CreatedAt)
	if err != nil {
		return Topic{}, err
	}
	return t, nil
}

func (s *SQLStore) UpdateTopic(ctx context.Context, t Topic) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE topics SET label=$1, required_question_number=$2, required_option_number=$3 WHERE id=$4`,
		t.Label, t.RequiredQuestionNumber, t.RequiredOptionNumber, t.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteTopic(ctx context.Context, topicID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE id=$1`, topicID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) SetCurrentTopic(ctx context.Context, classID, topicID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE classes SET current_topic=$1 WHERE id=$2`, topicID, classID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) RecordSolve(ctx context.Context, rec SolveRecord) error {
	set, _ := json.Marshal(rec.OptionSet)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO solve_records (id,qstem_id,user_id,selected_option,is_correct,option_set_json,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		uuid.NewString(), rec.QStemID, rec.UserID, rec.SelectedOption, rec.IsCorrect, string(set), time.Now().Unix())
	return err
}

func (s *SQLStore) CreateReport(ctx context.Context, rep Report) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id,qstem_id,user_id,content,created_at) VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), rep.QStemID, rep.UserID, rep.Content, time.Now().Unix())
	return err
}
