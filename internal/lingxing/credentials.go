package lingxing

import (
	"net/url"
	"strings"

	"lxsync/pkg/syncerr"
)

// Credentials identify the single tenant this process syncs.
type Credentials struct {
	AppID     string
	AppSecret string
	Host      string
}

// Validate rejects malformed credentials before any request is made.
func (c Credentials) Validate() error {
	switch {
	case c.AppID == "":
		return syncerr.Config("lingxing app id is empty")
	case c.AppSecret == "":
		return syncerr.Config("lingxing app secret is empty")
	case strings.ContainsAny(c.AppID, " \t\r\n"), strings.ContainsAny(c.AppSecret, " \t\r\n"):
		return syncerr.Config("lingxing credentials must not contain whitespace")
	}
	u, err := url.Parse(c.Host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return syncerr.Config("lingxing host must be an absolute http(s) URL: " + c.Host)
	}
	return nil
}

func (c Credentials) endpoint(path string) string {
	return strings.TrimRight(c.Host, "/") + path
}
