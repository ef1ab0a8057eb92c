package browser

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// WriteCookies dumps the session cookies to a temporary Netscape cookie
// file so an external downloader can reuse the login. The caller removes
// the file.
func (b *Browser) WriteCookies() (string, error) {
	cookies, err := b.browser.GetCookies()
	if err != nil {
		return "", fmt.Errorf("get cookies: %w", err)
	}

	f, err := os.CreateTemp("", "teachdl-cookies-*.txt")
	if err != nil {
		return "", fmt.Errorf("create cookie file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# Netscape HTTP Cookie File")
	for _, c := range cookies {
		domain := c.Domain
		includeSub := "FALSE"
		if strings.HasPrefix(domain, ".") {
			includeSub = "TRUE"
		}
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		expires := int64(c.Expires)
		if c.Session || expires < 0 {
			expires = 0
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain, includeSub, c.Path, secure, expires, c.Name, c.Value)
	}
	if err := w.Flush(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write cookie file: %w", err)
	}
	return f.Name(), nil
}
