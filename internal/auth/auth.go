// Package auth signs the browser session in before courses are walked.
package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"teachdl/internal/browser"
)

const (
	challengeSel = "#challenge-stage"
	emailSel     = "#email"
	passwordSel  = "#password"
	submitSel    = "[name=commit]"
	toastSel     = "div.toast, span.text-with-icon"
	otpSel       = "[name=otp_code]"

	badCredentialsText = "Your email or password is incorrect"
)

var ErrBadCredentials = errors.New("email or password is incorrect")

// Credentials for the platform's own sign-in form.
type Credentials struct {
	Email    string
	Password string
	// LoginURL overrides login page discovery.
	LoginURL string
}

// Authenticator drives the sign-in pages and asks the user on in/out when
// a step needs a human.
type Authenticator struct {
	page browser.Page
	log  *slog.Logger
	in   *bufio.Reader
	out  io.Writer

	// Timeout bounds waiting for the login form.
	Timeout time.Duration
	// Settle is the pause after submitting the form.
	Settle time.Duration
	// PollInterval is how often manual login checks the current URL.
	PollInterval time.Duration
}

func New(page browser.Page, log *slog.Logger, in io.Reader, out io.Writer) *Authenticator {
	return &Authenticator{
		page:         page,
		log:          log,
		in:           bufio.NewReader(in),
		out:          out,
		Timeout:      30 * time.Second,
		Settle:       3 * time.Second,
		PollInterval: 3 * time.Second,
	}
}

// SignInURL is the platform's default sign-in page for a course URL.
func SignInURL(courseURL string) (string, error) {
	u, err := url.Parse(courseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse course url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("course url %q has no host", courseURL)
	}
	return u.Scheme + "://" + u.Host + "/sign_in", nil
}

// Login fills the sign-in form with c.
func (a *Authenticator) Login(ctx context.Context, courseURL string, c Credentials) error {
	target := c.LoginURL
	if target == "" {
		var err error
		if target, err = a.findLogin(courseURL); err != nil {
			return err
		}
	}

	a.log.Info("opening login page", "url", target)
	if err := a.page.Navigate(target); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}

	if a.page.Has(challengeSel) {
		if err := a.pause(ctx, "Complete the browser check in the window, then press Enter"); err != nil {
			return err
		}
	}

	email, err := a.page.WaitElement(emailSel, a.Timeout)
	if err != nil {
		return fmt.Errorf("failed to find login form: %w", err)
	}
	if err := email.Input(c.Email); err != nil {
		return fmt.Errorf("failed to enter email: %w", err)
	}
	password, err := a.page.Element(passwordSel)
	if err != nil {
		return fmt.Errorf("failed to find password field: %w", err)
	}
	if err := password.Input(c.Password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	submit, err := a.page.Element(submitSel)
	if err != nil {
		return fmt.Errorf("failed to find login button: %w", err)
	}
	if err := submit.Click(); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}

	if err := sleep(ctx, a.Settle); err != nil {
		return err
	}

	toasts, _ := a.page.Elements(toastSel)
	for _, t := range toasts {
		if text, err := t.Text(); err == nil && strings.Contains(text, badCredentialsText) {
			return ErrBadCredentials
		}
	}

	if a.page.Has(otpSel) {
		if err := a.pause(ctx, "Enter the one-time code in the browser window, then press Enter"); err != nil {
			return err
		}
	}

	a.log.Info("logged in")
	return nil
}

// ManualLogin opens the course and waits until the user has signed in by
// hand and the browser shows doneURL.
func (a *Authenticator) ManualLogin(ctx context.Context, courseURL, doneURL string) error {
	if err := a.page.Navigate(courseURL); err != nil {
		return fmt.Errorf("failed to open course page: %w", err)
	}
	fmt.Fprintf(a.out, "Log in manually in the browser window; waiting for %s\n", doneURL)

	for a.page.URL() != doneURL {
		if err := sleep(ctx, a.PollInterval); err != nil {
			return err
		}
	}
	a.log.Info("manual login detected")
	return nil
}

// findLogin looks for a "Login" link on the course page and falls back to
// the default sign-in path.
func (a *Authenticator) findLogin(courseURL string) (string, error) {
	if a.page.URL() != courseURL {
		if err := a.page.Navigate(courseURL); err != nil {
			return "", fmt.Errorf("failed to open course page: %w", err)
		}
	}
	links, _ := a.page.Elements("a")
	for _, l := range links {
		text, err := l.Text()
		if err != nil || !strings.EqualFold(strings.TrimSpace(text), "login") {
			continue
		}
		if href, err := browser.Href(l); err == nil {
			return href, nil
		}
	}
	a.log.Info("no login link on course page, using default sign-in url")
	return SignInURL(courseURL)
}

func (a *Authenticator) pause(ctx context.Context, msg string) error {
	fmt.Fprintln(a.out, msg)
	done := make(chan error, 1)
	go func() {
		_, err := a.in.ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
