package auth

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teachdl/internal/browser/browsertest"
	"teachdl/internal/logging"
)

const (
	courseURL = "https://school.test/courses/enrolled/7"
	signIn    = "https://sso.school.test/sign_in"
)

type node = browsertest.Node

type form struct {
	email, password, submit *node
}

func loginDoc(extra map[string][]*node) (*browsertest.Doc, form) {
	f := form{email: &node{}, password: &node{}, submit: &node{}}
	nodes := map[string][]*node{
		emailSel:    {f.email},
		passwordSel: {f.password},
		submitSel:   {f.submit},
	}
	for k, v := range extra {
		nodes[k] = v
	}
	return &browsertest.Doc{Nodes: nodes}, f
}

func newAuth(page *browsertest.Page, stdin string) (*Authenticator, *bytes.Buffer) {
	var out bytes.Buffer
	a := New(page, logging.Discard(), strings.NewReader(stdin), &out)
	a.Settle = 0
	a.PollInterval = time.Millisecond
	return a, &out
}

func TestLoginWithExplicitURL(t *testing.T) {
	doc, f := loginDoc(nil)
	page := browsertest.New("about:blank", map[string]*browsertest.Doc{signIn: doc})
	a, out := newAuth(page, "")

	err := a.Login(context.Background(), courseURL, Credentials{Email: "me@x.io", Password: "pw", LoginURL: signIn})
	require.NoError(t, err)

	assert.Equal(t, []string{signIn}, page.Navigations)
	assert.Equal(t, []string{"me@x.io"}, f.email.Inputs)
	assert.Equal(t, []string{"pw"}, f.password.Inputs)
	assert.Equal(t, 1, f.submit.Clicks)
	assert.Empty(t, out.String(), "no prompts without challenge or otp")
}

func TestLoginFindsLoginLink(t *testing.T) {
	doc, _ := loginDoc(nil)
	page := browsertest.New("about:blank", map[string]*browsertest.Doc{
		courseURL: {Nodes: map[string][]*node{"a": {
			{InnerText: "Courses", Attrs: map[string]string{"href": "https://school.test/courses"}},
			{InnerText: " Login ", Attrs: map[string]string{"href": signIn}},
		}}},
		signIn: doc,
	})
	a, _ := newAuth(page, "")

	require.NoError(t, a.Login(context.Background(), courseURL, Credentials{Email: "e", Password: "p"}))
	assert.Equal(t, []string{courseURL, signIn}, page.Navigations)
}

func TestLoginFallsBackToSignInPath(t *testing.T) {
	doc, _ := loginDoc(nil)
	page := browsertest.New("about:blank", map[string]*browsertest.Doc{
		"https://school.test/sign_in": doc,
	})
	a, _ := newAuth(page, "")

	require.NoError(t, a.Login(context.Background(), courseURL, Credentials{Email: "e", Password: "p"}))
	assert.Equal(t, "https://school.test/sign_in", page.URL())
}

func TestLoginBadCredentials(t *testing.T) {
	doc, _ := loginDoc(map[string][]*node{
		toastSel: {{InnerText: "Your email or password is incorrect."}},
	})
	page := browsertest.New("about:blank", map[string]*browsertest.Doc{signIn: doc})
	a, _ := newAuth(page, "")

	err := a.Login(context.Background(), courseURL, Credentials{LoginURL: signIn})
	assert.True(t, errors.Is(err, ErrBadCredentials))
}

func TestLoginPausesForChallengeAndOTP(t *testing.T) {
	doc, f := loginDoc(map[string][]*node{
		challengeSel: {{}},
		otpSel:       {{}},
	})
	page := browsertest.New("about:blank", map[string]*browsertest.Doc{signIn: doc})
	a, out := newAuth(page, "\n\n")

	require.NoError(t, a.Login(context.Background(), courseURL, Credentials{Email: "e", Password: "p", LoginURL: signIn}))
	assert.Equal(t, 1, f.submit.Clicks)
	assert.Contains(t, out.String(), "browser check")
	assert.Contains(t, out.String(), "one-time code")
}

func TestLoginMissingForm(t *testing.T) {
	page := browsertest.New("about:blank", map[string]*browsertest.Doc{signIn: {}})
	a, _ := newAuth(page, "")

	err := a.Login(context.Background(), courseURL, Credentials{LoginURL: signIn})
	assert.ErrorContains(t, err, "login form")
}

// urlSequence reports a scripted series of current URLs.
type urlSequence struct {
	*browsertest.Page
	urls []string
}

func (u *urlSequence) URL() string {
	if len(u.urls) == 0 {
		return ""
	}
	next := u.urls[0]
	if len(u.urls) > 1 {
		u.urls = u.urls[1:]
	}
	return next
}

func TestManualLoginWaitsForURL(t *testing.T) {
	page := &urlSequence{
		Page: browsertest.New("about:blank", nil),
		urls: []string{courseURL, signIn, signIn, "https://school.test/courses/enrolled"},
	}
	var out bytes.Buffer
	a := New(page, logging.Discard(), strings.NewReader(""), &out)
	a.PollInterval = time.Millisecond

	require.NoError(t, a.ManualLogin(context.Background(), courseURL, "https://school.test/courses/enrolled"))
	assert.Equal(t, []string{courseURL}, page.Navigations)
	assert.Contains(t, out.String(), "Log in manually")
}

func TestManualLoginCancelled(t *testing.T) {
	page := browsertest.New("about:blank", nil)
	a, _ := newAuth(page, "")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := a.ManualLogin(ctx, courseURL, "https://never")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSignInURL(t *testing.T) {
	got, err := SignInURL("https://school.test/courses/enrolled/7?x=1")
	require.NoError(t, err)
	assert.Equal(t, "https://school.test/sign_in", got)

	_, err = SignInURL("not a url")
	assert.Error(t, err)
}
