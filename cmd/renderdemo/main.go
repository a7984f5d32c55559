package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"careerpath-backend/internal/pdf"
	"careerpath-backend/internal/shared/config"
)

const samplePlan = `<div class="card">
<h2>Executive Summary</h2>
<p>You already test software every day. The shortest path into ML engineering builds on that.</p>
</div>
<h2>Learning Roadmap</h2>
<h3>Phase 1: Foundations</h3>
<ul><li>Python for data work</li><li>Statistics refresher</li></ul>
<h3>Phase 2: Applied ML</h3>
<ul><li>scikit-learn projects</li><li>Model evaluation and testing</li></ul>
<p><span class="badge">Python</span><span class="badge">ML</span><span class="badge">Testing</span></p>`

func main() {
	cfg := config.Load()

	inPath := flag.String("in", "", "Path to an HTML plan fragment (defaults to a built-in sample)")
	outPath := flag.String("out", "./out/career_plan.pdf", "Output path for the PDF")
	htmlOut := flag.String("html-out", "", "Also write the full print document here (optional)")
	flag.Parse()

	fragment := samplePlan
	if strings.TrimSpace(*inPath) != "" {
		raw, err := os.ReadFile(*inPath)
		if err != nil {
			exitErr(fmt.Sprintf("read fragment: %v", err))
		}
		fragment = string(raw)
	}

	document, err := pdf.BuildDocument(fragment, time.Now())
	if err != nil {
		exitErr(fmt.Sprintf("build document: %v", err))
	}
	if *htmlOut != "" {
		if err := writeFile(*htmlOut, []byte(document)); err != nil {
			exitErr(fmt.Sprintf("write html: %v", err))
		}
	}

	renderer := pdf.NewChromeRenderer(pdf.ChromeConfig{
		ExecPath:  cfg.ChromePath,
		RemoteURL: cfg.ChromeRemoteURL,
		Timeout:   cfg.RenderTimeout,
		NoSandbox: cfg.ChromeNoSandbox,
	})
	defer renderer.Close()

	out, err := renderer.Render(context.Background(), document)
	if err != nil {
		renderer.Close()
		exitErr(fmt.Sprintf("render failed: %v", err))
	}
	if err := writeFile(*outPath, out); err != nil {
		renderer.Close()
		exitErr(fmt.Sprintf("write pdf: %v", err))
	}
	fmt.Printf("OK: wrote %s (%d bytes)\n", *outPath, len(out))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
