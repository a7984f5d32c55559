package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		contains    []string
		notContains []string
	}{
		{
			name:     "keeps styled content",
			in:       `<div class="card" style="color:#6366f1"><h2>Phase 1</h2><ul><li>Learn Go</li></ul></div>`,
			contains: []string{`<div class="card" style="color:#6366f1">`, "<h2>Phase 1</h2>", "<li>Learn Go</li>"},
		},
		{
			name:        "drops scripts and their text",
			in:          `<p>Hello</p><script>alert("x")</script>`,
			contains:    []string{"<p>Hello</p>"},
			notContains: []string{"script", "alert"},
		},
		{
			name:        "drops nested active elements",
			in:          `<section><iframe src="https://example.com"></iframe><object data="x"></object><embed src="y"><form><input></form><p>kept</p></section>`,
			contains:    []string{"<section>", "<p>kept</p>"},
			notContains: []string{"iframe", "object", "embed", "form", "input"},
		},
		{
			name:        "strips event handlers",
			in:          `<img src="data:image/png;base64,AAAA" onerror="steal()" alt="logo"><a href="#x" OnClick="go()">x</a>`,
			contains:    []string{`src="data:image/png;base64,AAAA"`, `alt="logo"`, `href="#x"`},
			notContains: []string{"onerror", "steal", "onclick", "go()"},
		},
		{
			name:        "strips javascript urls",
			in:          `<a href=" java&#09;script:alert(1)">bad</a><a href="https://roadmap.sh">good</a>`,
			contains:    []string{`<a>bad</a>`, `href="https://roadmap.sh"`},
			notContains: []string{"javascript", "alert"},
		},
		{
			name:        "ignores document wrapper tags",
			in:          `<html><head><meta charset="utf-8"><title>t</title></head><body><h1>Plan</h1></body></html>`,
			contains:    []string{"<h1>Plan</h1>"},
			notContains: []string{"<html", "<body", "<meta"},
		},
		{
			name:     "closes malformed markup",
			in:       `<div><p>unclosed <strong>bold`,
			contains: []string{"<div><p>unclosed <strong>bold</strong></p></div>"},
		},
		{
			name: "drops remote resource references",
			in: `<img src="http://169.254.169.254/latest/meta-data/" alt="a">` +
				`<img srcset="http://internal.local/x.png 2x"><video poster="http://internal.local/p.png"></video>` +
				`<svg><image href="http://internal.local/i.svg"></image><use xlink:href="http://internal.local/u.svg#a"></use></svg>` +
				`<a href="https://roadmap.sh">link</a>`,
			contains:    []string{`<img alt="a"/>`, `href="https://roadmap.sh"`},
			notContains: []string{"169.254.169.254", "internal.local"},
		},
		{
			name: "drops styles that load resources",
			in: `<div style="background:url(http://internal.local/bg.png)">a</div>` +
				`<div style="background: u\72 l(http://internal.local/bg.png)">b</div>` +
				`<style>@import "http://internal.local/x.css";</style>` +
				`<style>.badge { color: #6366f1; }</style>`,
			contains:    []string{"<div>a</div>", "<div>b</div>", ".badge { color: #6366f1; }"},
			notContains: []string{"internal.local", "@import"},
		},
		{
			name:        "drops comments",
			in:          `<p>a</p><!-- hidden -->`,
			contains:    []string{"<p>a</p>"},
			notContains: []string{"hidden"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Sanitize(tt.in)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestUnsafeCSS(t *testing.T) {
	assert.True(t, unsafeCSS("background: URL ( 'http://x' )"))
	assert.True(t, unsafeCSS("@IMPORT 'x.css'"))
	assert.True(t, unsafeCSS(`background: \75rl(x)`))
	assert.True(t, unsafeCSS("width: expression(alert(1))"))
	assert.False(t, unsafeCSS("color:#6366f1; padding: 4px 8px"))
}

func TestUnsafeURL(t *testing.T) {
	assert.True(t, unsafeURL("javascript:alert(1)"))
	assert.True(t, unsafeURL("  JaVaScRiPt:alert(1)"))
	assert.True(t, unsafeURL("java\tscript:x"))
	assert.True(t, unsafeURL("data:text/html;base64,AAAA"))
	assert.False(t, unsafeURL("https://example.com/javascript:"))
	assert.False(t, unsafeURL("#section"))
	assert.False(t, unsafeURL("data:image/png;base64,AAAA"))
}
