package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
)

// sanitizeInput removes null bytes and other invisible control characters from input
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 || (r < 32 && r != '\t' && r != '\n' && r != '\r') {
			return -1
		}
		return r
	}, s)
}

// PromptForTerm asks for the search term when none was given on the command line
func PromptForTerm() (string, error) {
	var term string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Search Term").
				Description("Word or phrase to look up in the Arquivo.pt web archive").
				Placeholder("e.g. euro 2004").
				Value(&term).
				Validate(func(s string) error {
					if strings.TrimSpace(sanitizeInput(s)) == "" {
						return fmt.Errorf("search term cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}

	return strings.TrimSpace(sanitizeInput(term)), nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// DefaultExportFilename derives a markdown filename from the search term
func DefaultExportFilename(term string, now time.Time) string {
	safe := strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.ToLower(term), "-"), "-")
	if safe == "" {
		safe = "peaks"
	}
	return fmt.Sprintf("%s-%s.md", safe, now.Format("2006-01-02"))
}

// PromptForFilename asks the user for an export filename
func PromptForFilename(defaultName string) (string, error) {
	var filename string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Export Filename").
				Description("Enter the filename for the markdown report").
				Placeholder(defaultName).
				Value(&filename),
		),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}

	return normalizeFilename(sanitizeInput(filename), defaultName), nil
}

// normalizeFilename falls back to defaultName and adds the .md extension
func normalizeFilename(filename, defaultName string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = defaultName
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".md") {
		filename = filename + ".md"
	}
	return filename
}
