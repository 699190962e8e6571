package capture

import (
	"strings"
	"testing"
)

func TestIsUCSDPodcastURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://podcast.ucsd.edu/watch/wi26/cogs108_b00/6", true},
		{"http://podcast.ucsd.edu/watch/fa25/cse101_a00/12", true},
		{"https://www.youtube.com/watch?v=abc", false},
		{"https://example.com/podcast.ucsd.edu", false},
		{"not a url at all ://", false},
	}

	for _, tt := range tests {
		if got := IsUCSDPodcastURL(tt.url); got != tt.want {
			t.Errorf("IsUCSDPodcastURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestIsManifestURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.kaltura.com/hls/master.m3u8", true},
		{"https://cdn.kaltura.com/hls/chunklist_b1200.m3u8?ks=abc", true},
		{"https://api.kaltura.com/playManifest/a.m3u8?callback=jQuery123&responseFormat=jsonp", false},
		{"https://cdn.kaltura.com/segment001.ts", false},
	}

	for _, tt := range tests {
		if got := IsManifestURL(tt.url); got != tt.want {
			t.Errorf("IsManifestURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestCleanManifestURL(t *testing.T) {
	in := "https://cdn.kaltura.com/playManifest/index.m3u8?callback=jQuery123_456&responseFormat=jsonp&_=1700000000&ks=abc"
	got := CleanManifestURL(in)

	for _, banned := range []string{"callback=", "responseFormat=", "_="} {
		if strings.Contains(got, banned) {
			t.Errorf("cleaned URL still contains %q: %s", banned, got)
		}
	}
	if !strings.Contains(got, "ks=abc") {
		t.Errorf("legitimate parameter dropped: %s", got)
	}
	if !strings.HasPrefix(got, "https://cdn.kaltura.com/playManifest/index.m3u8") {
		t.Errorf("path mangled: %s", got)
	}
}

func TestCleanManifestURLPassthrough(t *testing.T) {
	in := "https://cdn.kaltura.com/hls/master.m3u8?ks=abc"
	if got := CleanManifestURL(in); got != in {
		t.Errorf("CleanManifestURL(%q) = %q, want unchanged", in, got)
	}
}

func TestManifestCollectorPrefersMaster(t *testing.T) {
	var mc manifestCollector

	if done := mc.add("https://cdn/segment001.ts"); done {
		t.Error("non-playlist URL should not stop the capture")
	}
	if done := mc.add("https://cdn/other.m3u8"); done {
		t.Error("plain playlist should be recorded but not stop the capture")
	}
	if done := mc.add("https://cdn/master.m3u8"); !done {
		t.Error("master playlist should stop the capture")
	}
	if got := mc.pick(); got != "https://cdn/master.m3u8" {
		t.Errorf("pick() = %q, want master playlist", got)
	}
}

func TestManifestCollectorAcceptsChunklist(t *testing.T) {
	var mc manifestCollector

	if done := mc.add("https://cdn/chunklist_b1200.m3u8"); !done {
		t.Error("chunklist playlist should stop the capture")
	}
	if got := mc.pick(); got != "https://cdn/chunklist_b1200.m3u8" {
		t.Errorf("pick() = %q, want chunklist", got)
	}
}

func TestManifestCollectorFallsBackToFirstCandidate(t *testing.T) {
	var mc manifestCollector

	mc.add("https://cdn/first.m3u8")
	mc.add("https://cdn/second.m3u8")

	if got := mc.pick(); got != "https://cdn/first.m3u8" {
		t.Errorf("pick() = %q, want first candidate", got)
	}
}

func TestManifestCollectorEmpty(t *testing.T) {
	var mc manifestCollector
	if got := mc.pick(); got != "" {
		t.Errorf("pick() on empty collector = %q, want empty", got)
	}
}

func TestScanHTMLForManifest(t *testing.T) {
	html := `<html><script>
		var api = "https://api.kaltura.com/a.m3u8?callback=jq&responseFormat=jsonp";
		var src = "https://cdn.kaltura.com/hls/index.m3u8?ks=abc";
	</script></html>`

	got := scanHTMLForManifest(html)
	if got != "https://cdn.kaltura.com/hls/index.m3u8?ks=abc" {
		t.Errorf("scanHTMLForManifest() = %q", got)
	}

	if got := scanHTMLForManifest("<html>no streams here</html>"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}
