package preview

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"insurance-mcp/internal/session"
)

func TestBuild_DefaultInput(t *testing.T) {
	state := session.NewStore(time.Hour).Get("preview")
	page, err := Build(context.Background(), state, DefaultInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(page.Sections))
	}
	if got := page.Sections[0].SeedText; got != "Seed: 1500 (Base: 1500, Offset: 0)" {
		t.Errorf("unexpected risk pool seed text %q", got)
	}
	if got := page.Sections[1].SeedText; got != "Seed: 5800 (Base: 5800, Offset: 0)" {
		t.Errorf("unexpected cohort seed text %q", got)
	}
	if len(page.Sections[0].Charts) != 2 {
		t.Errorf("expected 2 risk pool charts, got %d", len(page.Sections[0].Charts))
	}
	if !strings.HasPrefix(page.Sections[1].Charts[0].Source, "quadrantChart") {
		t.Errorf("expected fence stripped from scatter chart: %q", page.Sections[1].Charts[0].Source)
	}
	if page.Sections[0].Charts[1].Caption == "" {
		t.Errorf("expected insurer chart caption")
	}
}

func TestBuild_InvalidInput(t *testing.T) {
	in := DefaultInput()
	in.AccidentProbability = 0
	state := session.NewStore(time.Hour).Get("preview")
	if _, err := Build(context.Background(), state, in); err == nil {
		t.Fatal("expected error for zero accident probability")
	}
}

func TestSplitFence(t *testing.T) {
	c, ok := splitFence("```mermaid\npie title X\n```\ncaption here")
	if !ok || c.Source != "pie title X" || c.Caption != "caption here" {
		t.Errorf("splitFence = %+v, %v", c, ok)
	}
	if _, ok := splitFence(""); ok {
		t.Errorf("expected no chart from empty input")
	}
}

func TestMinifyScript(t *testing.T) {
	out, err := MinifyScript(pageScript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) >= len(pageScript) {
		t.Errorf("expected minified script to be shorter: %d >= %d", len(out), len(pageScript))
	}
	if !strings.Contains(out, "mermaid.initialize") {
		t.Errorf("minified script lost the mermaid call: %s", out)
	}

	if _, err := MinifyScript("function ("); err == nil {
		t.Errorf("expected syntax error")
	}
}

func TestRenderAndWrite(t *testing.T) {
	state := session.NewStore(time.Hour).Get("preview")
	page, err := Build(context.Background(), state, DefaultInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, page); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	html := buf.String()
	for _, want := range []string{`<pre class="mermaid">`, mermaidCDN, `id="premiums"`} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}

	dir := filepath.Join(t.TempDir(), "preview")
	path, err := Write(page, dir)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("preview file missing: %v", err)
	}
}

func TestRender_EmbedsCohortPortraits(t *testing.T) {
	dir := t.TempDir()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if err := os.WriteFile(filepath.Join(dir, "drake.png"), png, 0644); err != nil {
		t.Fatal(err)
	}

	in := DefaultInput()
	in.Style = in.Style.WithLabels("Drake", "Kendrick")
	in.Style.FirstImage, in.Style.SecondImage = "drake.png", "missing.png"
	in.AssetsDir = dir

	state := session.NewStore(time.Hour).Get("preview")
	page, err := Build(context.Background(), state, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := page.Sections[1].Portraits
	if len(got) != 1 || got[0].Label != "Drake" {
		t.Fatalf("expected only the Drake portrait, got %+v", got)
	}

	var buf bytes.Buffer
	if err := Render(&buf, page); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(buf.String(), `<img src="data:image/png;base64,`) {
		t.Errorf("page does not embed the portrait")
	}
	if strings.Contains(buf.String(), "ZgotmplZ") {
		t.Errorf("template rejected the portrait source")
	}
}
