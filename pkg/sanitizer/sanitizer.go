package sanitizer

import (
	"net/url"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func lower(s string) string {
	return strings.ToLower(s)
}

func spacesToUnderscores(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}

// RoomName returns the lookup key of a room: lowercase, each space replaced by
// an underscore. Nothing else is touched so that keys stay stable across
// versions.
func RoomName(input string) string {
	p := Pipeline{
		spacesToUnderscores,
		lower,
	}
	return p.Apply(input)
}

// BaseURL normalizes the public URL that room links are built on. It returns
// an empty string when the input is not an absolute http(s) URL.
func BaseURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return u.String()
}
