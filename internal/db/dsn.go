package db

import (
	"net/url"
	"regexp"
	"strings"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var kvPairRegex = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)

// NormalizeDSN accepts a URL style DSN (postgres://...), a lib/pq key=value list
// or a sqlite DSN ("sqlite:path", "file:..." or a *.db path) and returns the
// driver to use with the cleaned DSN.
func NormalizeDSN(raw string) (driver, dsn string) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return "", ""
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		return DriverSQLite, s[len("sqlite://"):]
	case strings.HasPrefix(lower, "sqlite:"):
		return DriverSQLite, s[len("sqlite:"):]
	case strings.HasPrefix(lower, "file:"), strings.HasSuffix(lower, ".db"), lower == ":memory:":
		return DriverSQLite, s
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres, s
	}
	if !kvPairRegex.MatchString(s) {
		// let the driver report it
		return DriverPostgres, s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return DriverPostgres, cleaned
}

// ToURLDSN converts a key=value postgres DSN into URL form, which golang-migrate
// requires. Other inputs are returned unchanged.
func ToURLDSN(kvDSN string) string {
	if kvDSN == "" {
		return kvDSN
	}
	lower := strings.ToLower(kvDSN)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return kvDSN
	}
	m := map[string]string{}
	for _, part := range strings.Fields(kvDSN) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			m[strings.ToLower(kv[0])] = kv[1]
		}
	}
	host, user, dbname := m["host"], m["user"], m["dbname"]
	if host == "" || user == "" || dbname == "" {
		return kvDSN
	}
	u := &url.URL{Scheme: "postgres", Host: host, Path: "/" + dbname}
	if port := m["port"]; port != "" {
		u.Host = host + ":" + port
	}
	if pass := m["password"]; pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	if sslm, ok := m["sslmode"]; ok {
		u.RawQuery = url.Values{"sslmode": {sslm}}.Encode()
	}
	return u.String()
}

var passwordKV = regexp.MustCompile(`(password=)(\S+)`)

// Masked hides the password of a DSN for logging.
func Masked(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
			return u.String()
		}
	}
	return passwordKV.ReplaceAllString(dsn, `${1}***`)
}
