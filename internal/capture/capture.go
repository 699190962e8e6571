// Package capture extracts HLS manifest URLs from podcast pages using a
// headless browser. The UCSD player never exposes the stream in static
// markup; it has to be observed in the network traffic the player generates.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrPageLoad indicates the podcast page itself could not be retrieved.
var ErrPageLoad = errors.New("failed to load podcast page")

// ErrStreamNotFound indicates no playlist request appeared before timeout.
// The video may require authentication or the URL may be wrong.
var ErrStreamNotFound = errors.New("video stream URL not found")

// playClickJS pokes every plausible play control plus the video elements
// themselves. Individual click failures are expected and swallowed.
const playClickJS = `() => {
	const selectors = "[class*='play'], [aria-label*='play'], button[title*='Play'], " +
		".playButton, .vjs-play-control, .largePlayBtn, [data-testid='play-button']";
	for (const el of document.querySelectorAll(selectors)) {
		try { el.click(); } catch (e) {}
	}
	for (const v of document.querySelectorAll("video")) {
		try { v.play(); } catch (e) {}
	}
}`

// Capturer drives a headless browser session per capture.
type Capturer struct {
	// Timeout bounds how long to watch network traffic for a playlist.
	Timeout time.Duration
}

// New creates a Capturer with the default one-minute traffic window.
func New() *Capturer {
	return &Capturer{Timeout: 60 * time.Second}
}

// CaptureManifest loads the page, triggers playback, and returns the first
// HLS playlist URL requested by the player, cleaned for ffmpeg consumption.
// The browser process is torn down on every exit path.
func (c *Capturer) CaptureManifest(ctx context.Context, pageURL string) (string, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("window-size", "1920,1080")

	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("%w: launching browser: %v", ErrPageLoad, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return "", fmt.Errorf("%w: connecting to browser: %v", ErrPageLoad, err)
	}
	defer func() {
		_ = browser.Close()
		l.Cleanup()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return "", fmt.Errorf("%w: opening page: %v", ErrPageLoad, err)
	}
	page = page.Context(ctx)

	// Subscribe before navigating so no early request is missed.
	requests := make(chan string, 256)
	wait := page.EachEvent(func(e *proto.NetworkRequestWillBeSent) {
		select {
		case requests <- e.Request.URL:
		default:
		}
	})
	go wait()

	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	// Give the player time to initialize; load errors here are not fatal,
	// heavy pages keep streaming subresources long after navigation.
	_ = page.WaitLoad()
	if _, err := page.Eval(playClickJS); err == nil {
		// Some players need a moment after the click before requesting
		// the playlist.
		time.Sleep(time.Second)
	}

	var mc manifestCollector
	deadline := time.NewTimer(c.timeout())
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return c.finish(page, &mc)
		case reqURL := <-requests:
			if mc.add(reqURL) {
				return CleanManifestURL(mc.pick()), nil
			}
		}
	}
}

// finish resolves the capture after the traffic window closed: take the best
// candidate seen, fall back to scanning the rendered markup, or fail.
func (c *Capturer) finish(page *rod.Page, mc *manifestCollector) (string, error) {
	if picked := mc.pick(); picked != "" {
		return CleanManifestURL(picked), nil
	}
	if html, err := page.HTML(); err == nil {
		if found := scanHTMLForManifest(html); found != "" {
			return CleanManifestURL(found), nil
		}
	}
	return "", ErrStreamNotFound
}

func (c *Capturer) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 60 * time.Second
	}
	return c.Timeout
}
