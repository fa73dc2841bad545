// -----------------------------------------------------------------------
// Browser session - one isolated Chrome instance per filing job
// -----------------------------------------------------------------------

package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/common"
)

// Session wraps a dedicated Chrome instance for a single filing job.
// Sessions are never shared between jobs; portal login state and cookies
// must not leak across cases. The whole session lives under a hard
// timeout so a wedged portal cannot hold a job open forever.
type Session struct {
	config       *common.BrowserConfig
	timings      timings
	logger       arbor.ILogger
	allocatorCtx context.Context
	browserCtx   context.Context
	cancelFns    []context.CancelFunc
	closed       bool
}

// timings holds the session's duration settings, parsed from the config
// strings once per session
type timings struct {
	actionTimeout  time.Duration
	sessionTimeout time.Duration
	minHumanDelay  time.Duration
	maxHumanDelay  time.Duration
}

func parseTimings(config *common.BrowserConfig) (timings, error) {
	var t timings
	var err error

	if t.actionTimeout, err = time.ParseDuration(config.ActionTimeout); err != nil {
		return t, fmt.Errorf("invalid action timeout duration '%s': %w", config.ActionTimeout, err)
	}
	if t.sessionTimeout, err = time.ParseDuration(config.SessionTimeout); err != nil {
		return t, fmt.Errorf("invalid session timeout duration '%s': %w", config.SessionTimeout, err)
	}
	if t.minHumanDelay, err = time.ParseDuration(config.MinHumanDelay); err != nil {
		return t, fmt.Errorf("invalid min human delay duration '%s': %w", config.MinHumanDelay, err)
	}
	if t.maxHumanDelay, err = time.ParseDuration(config.MaxHumanDelay); err != nil {
		return t, fmt.Errorf("invalid max human delay duration '%s': %w", config.MaxHumanDelay, err)
	}
	return t, nil
}

// NewSession launches a fresh Chrome instance
func NewSession(ctx context.Context, config *common.BrowserConfig, logger arbor.ILogger) (*Session, error) {
	tm, err := parseTimings(config)
	if err != nil {
		return nil, err
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(config.WindowWidth, config.WindowHeight),
		chromedp.UserAgent(config.UserAgent),
	)

	sessionCtx, sessionCancel := context.WithTimeout(ctx, tm.sessionTimeout)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(sessionCtx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	session := &Session{
		config:       config,
		timings:      tm,
		logger:       logger,
		allocatorCtx: allocatorCtx,
		browserCtx:   browserCtx,
		cancelFns:    []context.CancelFunc{browserCancel, allocatorCancel, sessionCancel},
	}

	// Start the browser and verify it responds
	startCtx, startCancel := context.WithTimeout(browserCtx, tm.actionTimeout)
	defer startCancel()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug().
		Bool("headless", config.Headless).
		Dur("session_timeout", tm.sessionTimeout).
		Msg("Browser session started")

	return session, nil
}

// Context returns the browser context for CDP-level operations
func (s *Session) Context() context.Context {
	return s.browserCtx
}

// Navigate loads a URL, waits for the body and injects the stealth script
func (s *Session) Navigate(url string) error {
	actionCtx, cancel := context.WithTimeout(s.browserCtx, s.timings.actionTimeout)
	defer cancel()

	if err := chromedp.Run(actionCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if err := s.injectStealthScript(); err != nil {
		s.logger.Warn().Err(err).Msg("Stealth script injection failed")
	}
	return nil
}

// Screenshot captures the visible viewport as PNG
func (s *Session) Screenshot() ([]byte, error) {
	actionCtx, cancel := context.WithTimeout(s.browserCtx, s.timings.actionTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(actionCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// HTML returns the serialized DOM of the current page
func (s *Session) HTML() (string, error) {
	actionCtx, cancel := context.WithTimeout(s.browserCtx, s.timings.actionTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(actionCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// CurrentURL returns the page's current location
func (s *Session) CurrentURL() (string, error) {
	actionCtx, cancel := context.WithTimeout(s.browserCtx, s.timings.actionTimeout)
	defer cancel()

	var url string
	if err := chromedp.Run(actionCtx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read page location: %w", err)
	}
	return url, nil
}

// ElementScreenshot captures a single element as PNG, used for challenge images
func (s *Session) ElementScreenshot(selector string) ([]byte, error) {
	actionCtx, cancel := context.WithTimeout(s.browserCtx, s.timings.actionTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(actionCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Screenshot(selector, &buf, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to capture element screenshot %s: %w", selector, err)
	}
	return buf, nil
}

// DownloadResource fetches a same-origin resource from inside the page,
// carrying the session's cookies. Used for the acuse document, which the
// portal serves only to the authenticated session.
func (s *Session) DownloadResource(url string) ([]byte, error) {
	actionCtx, cancel := context.WithTimeout(s.browserCtx, s.timings.actionTimeout)
	defer cancel()

	js := fmt.Sprintf(`
		fetch(%q, { credentials: 'include' })
			.then(r => { if (!r.ok) throw new Error('HTTP ' + r.status); return r.arrayBuffer(); })
			.then(buf => btoa(String.fromCharCode(...new Uint8Array(buf))))
	`, url)

	var encoded string
	err := chromedp.Run(actionCtx, chromedp.Evaluate(js, &encoded,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		},
	))
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode downloaded resource: %w", err)
	}
	return data, nil
}

// Close tears down the Chrome instance. Safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	for _, cancel := range s.cancelFns {
		cancel()
	}
	s.logger.Debug().Msg("Browser session closed")
}

// injectStealthScript masks the most common automation fingerprints.
// Government portals run off-the-shelf bot detection that keys on
// navigator.webdriver and friends.
func (s *Session) injectStealthScript() error {
	stealthJS := `
		Object.defineProperty(navigator, 'webdriver', {
			get: () => undefined,
			configurable: true
		});

		Object.defineProperty(navigator, 'languages', {
			get: () => ['es-MX', 'es', 'en'],
			configurable: true
		});

		Object.defineProperty(navigator, 'plugins', {
			get: () => {
				const plugins = [
					{ name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer' },
					{ name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai' },
					{ name: 'Native Client', filename: 'internal-nacl-plugin' }
				];
				plugins.length = 3;
				return plugins;
			},
			configurable: true
		});

		if (!window.chrome) window.chrome = {};
		window.chrome.runtime = { id: undefined };
	`

	actionCtx, cancel := context.WithTimeout(s.browserCtx, 5*time.Second)
	defer cancel()
	return chromedp.Run(actionCtx, chromedp.Evaluate(stealthJS, nil))
}
