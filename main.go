package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"teachdl/internal/auth"
	"teachdl/internal/batch"
	"teachdl/internal/browser"
	"teachdl/internal/config"
	"teachdl/internal/course"
	"teachdl/internal/download"
	"teachdl/internal/fetcher"
	"teachdl/internal/logging"
	"teachdl/internal/media"
	_ "teachdl/internal/sites/classic"
	_ "teachdl/internal/sites/colossal"
	_ "teachdl/internal/sites/simple"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	courseURL       string
	urlFile         string
	email           string
	password        string
	verbose         int
	completeLecture bool
	loginURL        string
	manLoginURL     string
	userAgent       string
	timeout         time.Duration
	outputDir       string
	configPath      string
	showUI          bool
	proxyURL        string
	attachments     bool
	notes           bool
	fileTimeout     time.Duration
	concurrency     int
	passCookies     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:     "teachdl",
		Short:   "Download online courses through a real browser session",
		Version: version,
		Long: `teachdl logs into a course platform with a browser, works out which
course page template is in use, and saves every lecture page, video and
optional attachment under courses/<course>/<NN-chapter>/.`,
		Example: `  # Download one course with credentials from .env
  teachdl --url https://school.example.com/courses/enrolled/123456

  # Download a list of courses, logging in by hand first
  teachdl -f courses.txt --man-login-url https://school.example.com/courses/enrolled

  # Keep attachments and notes, mark lectures complete, show the browser
  teachdl --url https://school.example.com/p/course -e me@example.com -p secret \
    --attachments --notes --complete-lecture --showui -v`,
		Args:         cobra.NoArgs,
		RunE:         run,
		SilenceUsage: true,
	}

	f := rootCmd.Flags()
	f.StringVar(&courseURL, "url", "", "URL of the course (defaults to URL env var)")
	f.StringVarP(&urlFile, "file", "f", "", "Path to a text file with one course URL per line")
	f.StringVarP(&email, "email", "e", "", "Account email (defaults to EMAIL env var)")
	f.StringVarP(&password, "password", "p", "", "Account password (defaults to PASSWORD env var)")
	f.CountVarP(&verbose, "verbose", "v", "Increase verbosity (repeat for more)")
	f.BoolVar(&completeLecture, "complete-lecture", false, "Mark each lecture complete after downloading")
	f.StringVar(&loginURL, "login-url", "", "URL of the SSO login page")
	f.StringVar(&manLoginURL, "man-login-url", "", "Log in manually and start once this URL is reached")
	f.StringVar(&userAgent, "user-agent", config.DefaultUserAgent, "User agent for the browser and video requests")
	f.DurationVarP(&timeout, "timeout", "t", 10*time.Second, "Timeout for page loads and element waits")
	f.StringVarP(&outputDir, "output", "o", ".", "Directory that receives the courses folder")
	f.StringVar(&configPath, "config", "", "YAML config file")
	f.BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	f.StringVar(&proxyURL, "proxy", "", "Proxy URL (e.g. http://127.0.0.1:7890), defaults to TEACHDL_PROXY env var")
	f.BoolVar(&attachments, "attachments", false, "Download lecture file attachments")
	f.BoolVar(&notes, "notes", false, "Save lecture text as Markdown")
	f.DurationVar(&fileTimeout, "file-timeout", 10*time.Minute, "Max wait for a native video file download (0 waits forever)")
	f.IntVar(&concurrency, "concurrency", 15, "Concurrent fragment downloads per video")
	f.BoolVar(&passCookies, "pass-cookies", false, "Hand the browser session cookies to yt-dlp")

	return rootCmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logging.New(os.Stderr, cfg.Verbose)

	urls, err := cfg.URLs()
	if err != nil {
		return err
	}
	for i, u := range urls {
		urls[i] = normalizeURL(u)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
	}()

	b, err := browser.New(ctx, browser.Config{
		Headless:  !cfg.ShowUI,
		ProxyURL:  cfg.Proxy,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create browser: %w", err)
	}
	defer b.Close()

	if err := login(ctx, b, log, cfg, urls[0]); err != nil {
		return err
	}

	var cookiesFile string
	if cfg.PassCookies {
		if cookiesFile, err = b.WriteCookies(); err != nil {
			log.Warn("could not export cookies", "err", err)
		} else {
			defer os.Remove(cookiesFile)
		}
	}

	headers := cfg.Headers()
	client := fetcher.NewClient(0, headers)
	orch := download.New(b, media.NewYtDlp(log), client, log, download.Options{
		Notes:         cfg.Notes,
		Attachments:   cfg.Attachments,
		Complete:      cfg.CompleteLecture,
		CompleteDelay: cfg.CompleteDelay,
		FileTimeout:   cfg.FileTimeout,
		Media: media.Options{
			Concurrency: cfg.Concurrency,
			Headers:     headers,
			CookiesFile: cookiesFile,
			Verbose:     cfg.Verbose >= 2,
		},
	})
	env := course.Env{
		Page:      b,
		HTTP:      client,
		Log:       log,
		OutputDir: cfg.Output,
		Timeout:   cfg.Timeout,
	}

	sum := batch.New(env, orch).Run(ctx, urls)
	for _, c := range sum.Courses {
		if c.Err != nil {
			fmt.Fprintf(os.Stderr, "FAILED  %s: %v\n", c.URL, c.Err)
			continue
		}
		fmt.Fprintf(os.Stderr, "OK      %s: %d/%d lectures with video -> %s\n", c.URL, c.Downloaded, c.Lectures, c.Course.Root)
	}

	if ctx.Err() != nil {
		return errors.New("interrupted by user")
	}
	if len(sum.Courses) > 0 && sum.Failed() == len(sum.Courses) {
		return errors.New("no course could be downloaded")
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(".env"); err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies every flag given on the command line into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("url", func() { cfg.URL = courseURL })
	set("file", func() { cfg.File = urlFile })
	set("email", func() { cfg.Email = email })
	set("password", func() { cfg.Password = password })
	set("verbose", func() { cfg.Verbose = verbose })
	set("complete-lecture", func() { cfg.CompleteLecture = completeLecture })
	set("login-url", func() { cfg.LoginURL = loginURL })
	set("man-login-url", func() { cfg.ManualLoginURL = manLoginURL })
	set("user-agent", func() { cfg.UserAgent = userAgent })
	set("timeout", func() { cfg.Timeout = timeout })
	set("output", func() { cfg.Output = outputDir })
	set("showui", func() { cfg.ShowUI = showUI })
	set("proxy", func() { cfg.Proxy = proxyURL })
	set("attachments", func() { cfg.Attachments = attachments })
	set("notes", func() { cfg.Notes = notes })
	set("file-timeout", func() { cfg.FileTimeout = fileTimeout })
	set("concurrency", func() { cfg.Concurrency = concurrency })
	set("pass-cookies", func() { cfg.PassCookies = passCookies })
}

func login(ctx context.Context, b *browser.Browser, log *slog.Logger, cfg *config.Config, firstURL string) error {
	a := auth.New(b, log, os.Stdin, os.Stderr)
	a.Timeout = cfg.Timeout

	if cfg.ManualLoginURL != "" {
		if err := a.ManualLogin(ctx, firstURL, cfg.ManualLoginURL); err != nil {
			return fmt.Errorf("manual login: %w", err)
		}
		return nil
	}
	err := a.Login(ctx, firstURL, auth.Credentials{
		Email:    cfg.Email,
		Password: cfg.Password,
		LoginURL: cfg.LoginURL,
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// normalizeURL trims the URL and adds https:// if no protocol prefix
func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "https://" + rawURL
	}
	return rawURL
}
