// Package embedurl rewrites video links into player URLs that can be framed.
package embedurl

import (
	"net/url"
	"strings"
)

const youtubeEmbedBase = "https://www.youtube.com/embed/"

// Normalize maps a YouTube watch link to its embeddable player URL.
// Anything else, including strings that fail to parse, is returned unchanged.
func Normalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	if !isYouTubeHost(u.Hostname()) {
		return raw
	}
	id := u.Query().Get("v")
	if id == "" {
		return raw
	}
	return youtubeEmbedBase + url.PathEscape(id)
}

func isYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}
