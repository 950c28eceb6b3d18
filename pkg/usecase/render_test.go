package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/usecase"
)

func sampleRelease() *model.Release {
	return &model.Release{
		Tag: "v2.1.0",
		Assets: []model.ReleaseAsset{
			{Name: "tool-linux-amd64.tar.gz", DownloadURL: "https://example.com/dl/tool.tar.gz"},
			{Name: "checksums.txt", DownloadURL: "https://example.com/dl/checksums.txt"},
		},
		SourceURL: "https://github.com/owner/repo",
	}
}

func TestRenderMarkdown(t *testing.T) {
	body := usecase.RenderMessage("owner/repo", sampleRelease(), model.RenderMarkdown)

	gt.String(t, body).Contains("**New Release** for [owner/repo](https://github.com/owner/repo): `v2.1.0`")
	gt.String(t, body).Contains("- [tool-linux-amd64.tar.gz](https://example.com/dl/tool.tar.gz)")
	gt.String(t, body).Contains("Powered by [relwatch]")
}

func TestRenderMarkdownWithoutSourceURL(t *testing.T) {
	rel := sampleRelease()
	rel.SourceURL = ""

	body := usecase.RenderMessage("owner/repo", rel, model.RenderMarkdown)
	gt.String(t, body).Contains("`owner/repo`")
}

func TestRenderHTML(t *testing.T) {
	body := usecase.RenderMessage("owner/repo", sampleRelease(), model.RenderHTML)

	gt.String(t, body).Contains("<a href='https://github.com/owner/repo'>owner/repo</a>")
	gt.String(t, body).Contains("<code>v2.1.0</code>")
	gt.String(t, body).Contains("<li><a href='https://example.com/dl/checksums.txt'>checksums.txt</a></li>")
	gt.String(t, body).Contains("<hr>")
}

func TestRenderText(t *testing.T) {
	body := usecase.RenderMessage("owner/repo", sampleRelease(), model.RenderText)

	gt.String(t, body).Contains("New Release for owner/repo (https://github.com/owner/repo): v2.1.0")
	gt.String(t, body).Contains("- tool-linux-amd64.tar.gz: https://example.com/dl/tool.tar.gz")
}

func TestRenderUnknownFormatFallsBackToText(t *testing.T) {
	body := usecase.RenderMessage("owner/repo", sampleRelease(), model.RenderFormat("bogus"))
	gt.String(t, body).Contains("New Release for owner/repo")
}
