package privexec

import (
	"strings"

	"github.com/hnrobert/key2root/internal/usermgr"
)

// allowList names the variables copied from the caller into a sanitized
// environment. An entry ending in "_" matches every name it prefixes.
var allowList = []string{
	"DISPLAY",
	"WAYLAND_DISPLAY",
	"XAUTHORITY",
	"LANG",
	"LANGUAGE",
	"LC_",
	"TERM",
	"COLORTERM",
	"COLUMNS",
	"LINES",
	"TZ",
	"http_proxy",
	"https_proxy",
	"ftp_proxy",
	"no_proxy",
	"all_proxy",
	"HTTP_PROXY",
	"HTTPS_PROXY",
	"FTP_PROXY",
	"NO_PROXY",
	"ALL_PROXY",
}

// identityVars are always recomputed.
var identityVars = map[string]bool{
	"HOME":    true,
	"LOGNAME": true,
	"USER":    true,
	"MAIL":    true,
	"SHELL":   true,
	"PATH":    true,
}

func allowed(name string, keep []string) bool {
	for _, lists := range [][]string{allowList, keep} {
		for _, a := range lists {
			if a == name || (strings.HasSuffix(a, "_") && strings.HasPrefix(name, a)) {
				return true
			}
		}
	}
	return false
}

// Sanitize builds the environment for a command run as target. Allowed
// variables keep their first value from environ, in order. HOME, LOGNAME,
// USER, MAIL and SHELL describe target and PATH is set to securePath.
func Sanitize(environ []string, target *usermgr.Identity, keep []string, securePath string) []string {
	out := make([]string, 0, len(environ)+6)
	seen := map[string]bool{}
	for _, kv := range environ {
		name, _, ok := strings.Cut(kv, "=")
		if !ok || name == "" || seen[name] || identityVars[name] {
			continue
		}
		if !allowed(name, keep) {
			continue
		}
		seen[name] = true
		out = append(out, kv)
	}
	return append(out,
		"HOME="+target.Home,
		"LOGNAME="+target.Name,
		"USER="+target.Name,
		"MAIL=/var/mail/"+target.Name,
		"SHELL="+target.Shell,
		"PATH="+securePath,
	)
}

// lookupEnv returns the first value of name in environ.
func lookupEnv(environ []string, name string) (string, bool) {
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == name {
			return v, true
		}
	}
	return "", false
}
