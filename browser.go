package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/chromedp/chromedp"
)

// ErrDriverNotFound means the browser executable for the selected variant is
// not installed where we expect it. This is a precondition failure; nothing
// retries it.
var ErrDriverNotFound = errors.New("browser executable not found")

// BrowserVariant is the closed set of browsers the sender can drive. Chromium
// family variants get automation countermeasures via command-line switches;
// Chrome and Brave additionally share the persistent profile directory so the
// WhatsApp Web login survives across runs.
type BrowserVariant int

const (
	BrowserChrome BrowserVariant = iota
	BrowserBrave
	BrowserEdge
	BrowserFirefox
)

func ParseBrowserVariant(s string) (BrowserVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chrome", "":
		return BrowserChrome, nil
	case "brave":
		return BrowserBrave, nil
	case "edge":
		return BrowserEdge, nil
	case "firefox":
		return BrowserFirefox, nil
	default:
		return 0, fmt.Errorf("unknown browser variant %q", s)
	}
}

func (v BrowserVariant) String() string {
	switch v {
	case BrowserChrome:
		return "chrome"
	case BrowserBrave:
		return "brave"
	case BrowserEdge:
		return "edge"
	case BrowserFirefox:
		return "firefox"
	default:
		return "unknown"
	}
}

func (v BrowserVariant) chromiumFamily() bool {
	return v != BrowserFirefox
}

// sharesProfile reports whether the persistent profile directory is reused
// across runs for this variant.
func (v BrowserVariant) sharesProfile() bool {
	return v == BrowserChrome || v == BrowserBrave
}

// executable resolves the browser binary for this variant: an explicit
// configured path wins, otherwise the per-OS well-known install locations are
// probed. Absence is ErrDriverNotFound.
func (v BrowserVariant) executable(cfg *Config) (string, error) {
	if cfg.Browser.ExecPath != "" {
		if _, err := os.Stat(cfg.Browser.ExecPath); err != nil {
			return "", fmt.Errorf("%w: %s (configured exec_path)", ErrDriverNotFound, cfg.Browser.ExecPath)
		}
		return cfg.Browser.ExecPath, nil
	}

	for _, path := range v.wellKnownPaths() {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: no %s installation detected, set browser.exec_path in the config", ErrDriverNotFound, v)
}

func (v BrowserVariant) wellKnownPaths() []string {
	switch runtime.GOOS {
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		programFilesX86 := os.Getenv("ProgramFiles(x86)")
		localAppData := os.Getenv("LOCALAPPDATA")
		switch v {
		case BrowserChrome:
			return []string{
				programFiles + `\Google\Chrome\Application\chrome.exe`,
				programFilesX86 + `\Google\Chrome\Application\chrome.exe`,
				localAppData + `\Google\Chrome\Application\chrome.exe`,
			}
		case BrowserBrave:
			return []string{programFiles + `\BraveSoftware\Brave-Browser\Application\brave.exe`}
		case BrowserEdge:
			return []string{programFilesX86 + `\Microsoft\Edge\Application\msedge.exe`}
		case BrowserFirefox:
			return []string{programFiles + `\Mozilla Firefox\firefox.exe`}
		}
	case "darwin":
		switch v {
		case BrowserChrome:
			return []string{"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"}
		case BrowserBrave:
			return []string{"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser"}
		case BrowserEdge:
			return []string{"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"}
		case BrowserFirefox:
			return []string{"/Applications/Firefox.app/Contents/MacOS/firefox"}
		}
	default: // linux and friends
		switch v {
		case BrowserChrome:
			return []string{"/usr/bin/google-chrome", "/usr/bin/google-chrome-stable", "/usr/bin/chromium-browser"}
		case BrowserBrave:
			return []string{"/usr/bin/brave-browser"}
		case BrowserEdge:
			return []string{"/usr/bin/microsoft-edge"}
		case BrowserFirefox:
			return []string{"/usr/bin/firefox"}
		}
	}
	return nil
}

// allocatorOptions builds the variant-specific launch configuration.
// Automation-detection countermeasures are applied for every variant; the
// Chromium-only switches are skipped for Gecko, which ignores them.
func (v BrowserVariant) allocatorOptions(cfg *Config, execPath string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1440, 900),
	)

	if v.chromiumFamily() {
		opts = append(opts,
			chromedp.Flag("disable-infobars", true),
			chromedp.Flag("excludeSwitches", "enable-automation"),
			chromedp.Flag("useAutomationExtension", false),
			chromedp.Flag("disable-prompt-on-repost", true),
		)
	}

	if v.sharesProfile() {
		opts = append(opts, chromedp.UserDataDir(cfg.Browser.ProfileDir))
	}

	return opts
}
