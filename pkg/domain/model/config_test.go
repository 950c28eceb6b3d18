package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/relwatch/pkg/domain/model"
)

func TestRenderFormatValid(t *testing.T) {
	gt.True(t, model.RenderText.Valid())
	gt.True(t, model.RenderMarkdown.Valid())
	gt.True(t, model.RenderHTML.Valid())

	gt.False(t, model.RenderFormat("rtf").Valid())
	gt.False(t, model.RenderFormat("").Valid())
}

func TestRenderFormatConfigValues(t *testing.T) {
	// The constants double as the config-file vocabulary.
	gt.Value(t, string(model.RenderText)).Equal("text")
	gt.Value(t, string(model.RenderMarkdown)).Equal("markdown")
	gt.Value(t, string(model.RenderHTML)).Equal("html")
}

func TestStateKey(t *testing.T) {
	gt.Value(t, model.StateKey("main-github", "owner/repo")).Equal("main-github_owner/repo")
}
