// Package browser owns the automated client session used to query the
// answer service. One session exists at a time: it is created lazily,
// reused while healthy, and torn down on any error so the next run starts
// from a fresh browser.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ErrAnswerTimeout indicates the answer region never populated within the
// configured wait.
var ErrAnswerTimeout = errors.New("answer region did not populate before timeout")

// Config holds browser and query configuration.
type Config struct {
	ServiceURL          string   `yaml:"service_url"`
	Headless            bool     `yaml:"headless"`
	UserAgent           string   `yaml:"user_agent"`
	NoSandbox           bool     `yaml:"no_sandbox"`
	ViewportWidth       int      `yaml:"viewport_width"`
	ViewportHeight      int      `yaml:"viewport_height"`
	NavigationTimeoutMs int      `yaml:"navigation_timeout_ms"`
	InputSelector       string   `yaml:"input_selector"`
	AnswerSelectors     []string `yaml:"answer_selectors"`
	AnswerTimeoutMs     int      `yaml:"answer_timeout_ms"`
	PollIntervalMs      int      `yaml:"poll_interval_ms"`
	MinAnswerLen        int      `yaml:"min_answer_len"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ServiceURL:          "https://www.perplexity.ai",
		Headless:            true,
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		NoSandbox:           true,
		ViewportWidth:       1920,
		ViewportHeight:      1080,
		NavigationTimeoutMs: 30000,
		InputSelector:       "textarea",
		AnswerSelectors: []string{
			`[class*="answer"]`,
			`[class*="prose"]`,
			`main article`,
			`[class*="result"]`,
		},
		AnswerTimeoutMs: 45000,
		PollIntervalMs:  1500,
		MinAnswerLen:    100,
	}
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// AnswerTimeout returns the bounded wait for the answer region.
func (c Config) AnswerTimeout() time.Duration {
	if c.AnswerTimeoutMs == 0 {
		return 45 * time.Second
	}
	return time.Duration(c.AnswerTimeoutMs) * time.Millisecond
}

// PollInterval returns the answer-region polling interval.
func (c Config) PollInterval() time.Duration {
	if c.PollIntervalMs == 0 {
		return 1500 * time.Millisecond
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Manager owns the single browser session.
type Manager struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	launch   *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewManager creates a session manager. No browser is launched until the
// first Ensure.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Ensure returns once a healthy session exists, creating one if needed.
// Idempotent while the cached session is alive.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		m.logger.Warn("Stale browser connection detected, recreating session")
		m.disposeLocked()
	}

	launch := launcher.New().Headless(m.cfg.Headless)
	if m.cfg.NoSandbox {
		launch = launch.Set(flags.Flag("no-sandbox"))
	}
	if m.cfg.UserAgent != "" {
		launch = launch.Set(flags.Flag("user-agent"), m.cfg.UserAgent)
	}
	launch = launch.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	launch = launch.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", m.cfg.ViewportWidth, m.cfg.ViewportHeight))

	controlURL, err := launch.Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}

	// The browser outlives the caller's context; per-operation contexts
	// are applied in Ask.
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		launch.Cleanup()
		return fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		launch.Cleanup()
		return fmt.Errorf("create page: %w", err)
	}

	m.launch = launch
	m.browser = b
	m.page = page
	m.logger.Info("Browser session created", zap.Bool("headless", m.cfg.Headless))
	return nil
}

// Dispose tears down the session. Safe to call when no session exists.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposeLocked()
}

func (m *Manager) disposeLocked() {
	if m.page != nil {
		_ = m.page.Close()
		m.page = nil
	}
	if m.browser != nil {
		_ = m.browser.Close()
		m.browser = nil
	}
	if m.launch != nil {
		m.launch.Cleanup()
		m.launch = nil
	}
}

// Alive reports whether a session currently exists.
func (m *Manager) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser != nil
}

// Ask submits the prompt to the answer service and waits for the rendered
// answer text. The wait is a polling loop with an explicit deadline, not a
// blind sleep; ErrAnswerTimeout is returned when the region never fills.
func (m *Manager) Ask(ctx context.Context, prompt string) (string, error) {
	if err := m.Ensure(ctx); err != nil {
		return "", err
	}

	m.mu.Lock()
	page := m.page
	m.mu.Unlock()

	if err := page.Context(ctx).Timeout(m.cfg.NavigationTimeout()).Navigate(m.cfg.ServiceURL); err != nil {
		return "", fmt.Errorf("navigate to %s: %w", m.cfg.ServiceURL, err)
	}

	el, err := page.Context(ctx).Timeout(m.cfg.NavigationTimeout()).Element(m.cfg.InputSelector)
	if err != nil {
		return "", fmt.Errorf("query input %q not found: %w", m.cfg.InputSelector, err)
	}
	if err := el.Input(prompt); err != nil {
		return "", fmt.Errorf("type prompt: %w", err)
	}
	if err := page.Keyboard.Press(input.Enter); err != nil {
		return "", fmt.Errorf("submit prompt: %w", err)
	}

	return m.awaitAnswer(ctx, page)
}

// awaitAnswer polls the extraction strategies until the answer text reaches
// the configured minimum length or the deadline passes.
func (m *Manager) awaitAnswer(ctx context.Context, page *rod.Page) (string, error) {
	deadline := time.Now().Add(m.cfg.AnswerTimeout())
	ticker := time.NewTicker(m.cfg.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			text := m.extractOnce(page)
			if len(text) >= m.cfg.MinAnswerLen {
				m.logger.Debug("Answer region populated", zap.Int("chars", len(text)))
				return text, nil
			}
			if time.Now().After(deadline) {
				return "", ErrAnswerTimeout
			}
		}
	}
}

// extractOnce runs the selector strategies against the live page, with the
// paragraph scan over the full markup as the generic fallback.
func (m *Manager) extractOnce(page *rod.Page) string {
	lookup := func(selector string) (string, error) {
		els, err := page.Timeout(2 * time.Second).Elements(selector)
		if err != nil {
			return "", err
		}
		var parts []string
		for _, el := range els {
			text, terr := el.Text()
			if terr != nil {
				continue
			}
			if t := strings.TrimSpace(text); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n"), nil
	}
	fallback := func() (string, error) {
		src, err := page.HTML()
		if err != nil {
			return "", err
		}
		return ScanParagraphs(src)
	}
	return ExtractAnswer(lookup, m.cfg.AnswerSelectors, fallback)
}
