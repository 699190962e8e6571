package capture

import (
	"net/url"
	"regexp"
	"strings"
)

// manifestURLPattern finds HLS playlist URLs embedded in page markup.
var manifestURLPattern = regexp.MustCompile(`https?://[^\s"'<>]+\.m3u8(?:\?[^\s"'<>]*)?`)

// IsUCSDPodcastURL reports whether a URL points at the UCSD podcast site.
// Those pages hide the stream behind a Kaltura player, so the manifest has
// to be captured from browser traffic.
func IsUCSDPodcastURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Host), "podcast.ucsd.edu")
}

// IsManifestURL reports whether a request URL is a usable HLS playlist.
// JSONP callback URLs are player API requests, not streams.
func IsManifestURL(rawURL string) bool {
	if strings.Contains(rawURL, "callback=") && strings.Contains(rawURL, "responseFormat=jsonp") {
		return false
	}
	return strings.Contains(rawURL, ".m3u8")
}

// CleanManifestURL strips JSONP callback and cache-buster query parameters
// that break ffmpeg's playlist handling.
func CleanManifestURL(rawURL string) string {
	if !strings.Contains(rawURL, "responseFormat=jsonp") && !strings.Contains(rawURL, "callback=") {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	params := u.Query()
	for _, p := range []string{"callback", "responseFormat", "_"} {
		params.Del(p)
	}
	u.RawQuery = params.Encode()
	return u.String()
}

// scanHTMLForManifest extracts the first valid playlist URL from page markup.
// Used as a fallback when no matching network request was observed.
func scanHTMLForManifest(html string) string {
	for _, match := range manifestURLPattern.FindAllString(html, -1) {
		if IsManifestURL(match) {
			return match
		}
	}
	return ""
}

// manifestCollector accumulates observed playlist URLs and decides when the
// capture can stop early.
type manifestCollector struct {
	selected   string
	candidates []string
}

// add records a request URL. It returns true once a playlist good enough to
// stop waiting for has been seen.
func (mc *manifestCollector) add(rawURL string) bool {
	if !IsManifestURL(rawURL) {
		return false
	}
	mc.candidates = append(mc.candidates, rawURL)

	lower := strings.ToLower(rawURL)
	// Master playlists are the real thing; segment playlists still work.
	if strings.Contains(lower, "master.m3u8") || strings.Contains(lower, "index.m3u8") {
		mc.selected = rawURL
		return true
	}
	if strings.Contains(lower, "chunklist") || strings.Contains(lower, "media") || strings.Contains(lower, "segment") {
		if mc.selected == "" {
			mc.selected = rawURL
		}
		return true
	}
	return false
}

// pick returns the best playlist seen so far, or empty when none was.
func (mc *manifestCollector) pick() string {
	if mc.selected != "" {
		return mc.selected
	}
	if len(mc.candidates) > 0 {
		return mc.candidates[0]
	}
	return ""
}
