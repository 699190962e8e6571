package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// IsYouTubeURL reports whether a URL can be handled by the YouTube fallback.
// Host-based on purpose: ytdl.ExtractVideoID accepts any URL with an
// eleven-character path segment.
func IsYouTubeURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	switch host {
	case "youtube.com", "youtu.be", "music.youtube.com":
		return true
	}
	return false
}

// audioExtension maps a format MIME type to a filename extension.
func audioExtension(mimeType string) string {
	if strings.Contains(mimeType, "mp4") {
		return ".m4a"
	}
	if strings.Contains(mimeType, "webm") {
		return ".webm"
	}
	return ".audio"
}

// FetchYouTube downloads the best audio-only track of a YouTube video to
// outBase plus a format-derived extension and returns the written path.
func (f *Fetcher) FetchYouTube(ctx context.Context, videoURL, outBase string) (string, error) {
	client := ytdl.Client{}

	video, err := client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return "", fmt.Errorf("%w: resolving video: %v", ErrDownload, err)
	}

	// Highest-bitrate audio-only format wins.
	var best *ytdl.Format
	for i := range video.Formats {
		format := &video.Formats[i]
		if !strings.HasPrefix(format.MimeType, "audio/") {
			continue
		}
		if best == nil || format.Bitrate > best.Bitrate {
			best = format
		}
	}
	if best == nil {
		return "", fmt.Errorf("%w: no audio-only formats available", ErrDownload)
	}

	stream, _, err := client.GetStreamContext(ctx, video, best)
	if err != nil {
		return "", fmt.Errorf("%w: opening stream: %v", ErrDownload, err)
	}
	defer stream.Close()

	outPath := outBase + audioExtension(best.MimeType)
	file, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("%w: creating file: %v", ErrDownload, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, stream); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("%w: downloading: %v", ErrDownload, err)
	}

	return outPath, nil
}
