// Package api is the HTTP client for the kuiz gateway. It implements
// webclient.Fetcher so the session-scoped state in pkg/webclient can be
// driven against a live server or a fake interchangeably.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kixlab/kuiz/pkg/webclient"
)

type Config struct {
	BaseURL string
	// Token is the bearer token from /auth/login or the OAuth callback.
	Token   string
	Timeout time.Duration
}

type Client struct {
	base  string
	token string
	http  *http.Client

	// cid and topic scope the "my created content" queries; empty means
	// all classes / all topics.
	cid   string
	topic string
}

func New(cfg Config) *Client {
	h := &http.Client{}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		token: cfg.Token,
		http:  h,
	}
}

// SetToken swaps the bearer token, e.g. after a fresh login.
func (c *Client) SetToken(tok string) { c.token = tok }

// SetScope narrows authored-content queries to one class and topic label.
func (c *Client) SetScope(cid, topic string) {
	c.cid, c.topic = cid, topic
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, res.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Login exchanges username/password for a bearer token and stores it on the
// client. Only available when the gateway runs with local auth enabled.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var res struct {
		AccessToken string `json:"access_token"`
	}
	in := map[string]string{"username": username, "password": password}
	if err := c.postJSON(ctx, "/auth/login", in, &res); err != nil {
		return err
	}
	c.token = res.AccessToken
	return nil
}

// Me fetches the signed-in user's session payload.
func (c *Client) Me(ctx context.Context) (webclient.Profile, error) {
	var res struct {
		Name      string                    `json:"name"`
		Email     string                    `json:"email"`
		Img       string                    `json:"img"`
		IsAdmin   bool                      `json:"is_admin"`
		Classes   []webclient.EnrolledClass `json:"classes"`
		StudentID string                    `json:"student_id"`
		Consent   bool                      `json:"consent"`
	}
	if err := c.getJSON(ctx, "/me", &res); err != nil {
		return webclient.Profile{}, err
	}
	return webclient.Profile{
		Name:       res.Name,
		Email:      res.Email,
		Img:        res.Img,
		IsLoggedIn: true,
		IsAdmin:    res.IsAdmin,
		Classes:    res.Classes,
		StudentID:  res.StudentID,
		Consent:    res.Consent,
	}, nil
}

func (c *Client) MadeStems(ctx context.Context) ([]webclient.Stem, error) {
	var res struct {
		MadeStem []webclient.Stem `json:"made_stem"`
	}
	in := map[string]string{"cid": c.cid, "topic": c.topic}
	if err := c.postJSON(ctx, "/question/made/stem", in, &res); err != nil {
		return nil, err
	}
	return res.MadeStem, nil
}

func (c *Client) MadeOptions(ctx context.Context) ([]webclient.OptionRecord, error) {
	var res struct {
		MadeOption []webclient.OptionRecord `json:"made_option"`
	}
	in := map[string]string{"cid": c.cid, "topic": c.topic}
	if err := c.postJSON(ctx, "/question/made/option", in, &res); err != nil {
		return nil, err
	}
	return res.MadeOption, nil
}

func (c *Client) StemsByIDs(ctx context.Context, ids []string) ([]webclient.Stem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var res struct {
		QStems []webclient.Stem `json:"qstems"`
	}
	in := map[string][]string{"qstems": ids}
	if err := c.postJSON(ctx, "/question/stems-by-option", in, &res); err != nil {
		return nil, err
	}
	return res.QStems, nil
}

// JoinClass redeems a class code. An unrecognized code comes back as 404 and
// is reported as a zero-CID class, not an error; transport and auth failures
// are errors.
func (c *Client) JoinClass(ctx context.Context, code string) (webclient.EnrolledClass, error) {
	body, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return webclient.EnrolledClass{}, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.base+"/auth/class/join", bytes.NewReader(body))
	if err != nil {
		return webclient.EnrolledClass{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return webclient.EnrolledClass{}, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return webclient.EnrolledClass{}, nil
	}
	if res.StatusCode/100 != 2 {
		return webclient.EnrolledClass{}, fmt.Errorf("join class: %s", res.Status)
	}
	var out struct {
		CID  string `json:"cid"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return webclient.EnrolledClass{}, err
	}
	return webclient.EnrolledClass{CID: out.CID, Name: out.Name, Code: code}, nil
}

// CreateStem submits a new question stem. The caller should invalidate its
// content cache afterwards so "my page" picks up the new entry.
func (c *Client) CreateStem(ctx context.Context, cid, stemText, explanation, objective string, keywords []string) (webclient.Stem, error) {
	var out webclient.Stem
	in := map[string]any{
		"cid":                cid,
		"stem_text":          stemText,
		"explanation":        explanation,
		"learning_objective": objective,
		"keywords":           keywords,
	}
	if err := c.postJSON(ctx, "/question/create", in, &out); err != nil {
		return webclient.Stem{}, err
	}
	return out, nil
}

// CreateOption attaches an answer or distractor to a stem.
func (c *Client) CreateOption(ctx context.Context, qstemID, text string, isAnswer bool, keywords []string) (webclient.OptionRecord, error) {
	var out webclient.OptionRecord
	in := map[string]any{
		"qstem":       qstemID,
		"option_text": text,
		"is_answer":   isAnswer,
		"keywords":    keywords,
	}
	if err := c.postJSON(ctx, "/question/option/create", in, &out); err != nil {
		return webclient.OptionRecord{}, err
	}
	return out, nil
}

func (c *Client) RegisterStudentID(ctx context.Context, studentID string) error {
	in := map[string]string{"student_id": studentID}
	return c.postJSON(ctx, "/auth/student-id", in, nil)
}

func (c *Client) SetConsent(ctx context.Context, consent bool) error {
	in := map[string]bool{"consent": consent}
	return c.postJSON(ctx, "/auth/consent", in, nil)
}

var _ webclient.Fetcher = (*Client)(nil)
