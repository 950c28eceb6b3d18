package usecase

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/relwatch/pkg/domain/model"
)

const (
	footerMarkdown = "\n\n---\nPowered by [relwatch](https://github.com/m-mizutani/relwatch)"
	footerHTML     = "<hr><p>Powered by <a href='https://github.com/m-mizutani/relwatch'>relwatch</a></p>"
	footerText     = "\n\n---\nPowered by: https://github.com/m-mizutani/relwatch"
)

// RenderMessage renders a release announcement body for the given format.
// Unknown formats render as plain text.
func RenderMessage(repoID string, rel *model.Release, format model.RenderFormat) string {
	switch format {
	case model.RenderMarkdown:
		return renderMarkdown(repoID, rel)
	case model.RenderHTML:
		return renderHTML(repoID, rel)
	default:
		return renderText(repoID, rel)
	}
}

func renderMarkdown(repoID string, rel *model.Release) string {
	repoDisplay := fmt.Sprintf("`%s`", repoID)
	if rel.SourceURL != "" {
		repoDisplay = fmt.Sprintf("[%s](%s)", repoID, rel.SourceURL)
	}

	lines := []string{
		fmt.Sprintf("🚀 **New Release** for %s: `%s`", repoDisplay, rel.Tag),
		"**Assets:**",
	}
	for _, a := range rel.Assets {
		lines = append(lines, fmt.Sprintf("- [%s](%s)", a.Name, a.DownloadURL))
	}
	lines = append(lines, footerMarkdown)
	return strings.Join(lines, "\n")
}

func renderHTML(repoID string, rel *model.Release) string {
	repoDisplay := fmt.Sprintf("<code>%s</code>", repoID)
	if rel.SourceURL != "" {
		repoDisplay = fmt.Sprintf("<a href='%s'>%s</a>", rel.SourceURL, repoID)
	}

	lines := []string{
		fmt.Sprintf("<p>🚀 <strong>New Release</strong> for %s: <code>%s</code></p>", repoDisplay, rel.Tag),
		"<p><strong>Assets:</strong></p><ul>",
	}
	for _, a := range rel.Assets {
		lines = append(lines, fmt.Sprintf("<li><a href='%s'>%s</a></li>", a.DownloadURL, a.Name))
	}
	lines = append(lines, "</ul>", footerHTML)
	return strings.Join(lines, "\n")
}

func renderText(repoID string, rel *model.Release) string {
	repoDisplay := repoID
	if rel.SourceURL != "" {
		repoDisplay = fmt.Sprintf("%s (%s)", repoID, rel.SourceURL)
	}

	lines := []string{
		fmt.Sprintf("New Release for %s: %s", repoDisplay, rel.Tag),
		"Assets:",
	}
	for _, a := range rel.Assets {
		lines = append(lines, fmt.Sprintf("- %s: %s", a.Name, a.DownloadURL))
	}
	lines = append(lines, footerText)
	return strings.Join(lines, "\n")
}
