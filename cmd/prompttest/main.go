package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"careerpath-backend/internal/extract"
	openai "careerpath-backend/internal/llm/openai"
	"careerpath-backend/internal/plans"
	"careerpath-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	profilePath := flag.String("profile", "", "Path to a JSON user profile (user_profile shape)")
	resumePath := flag.String("resume", "", "Path to resume file (pdf, doc, docx or txt; optional)")
	call := flag.Bool("call", false, "Send the prompt to the configured model")
	outPath := flag.String("out", "", "Path to write the model response (optional)")
	flag.Parse()

	if strings.TrimSpace(*profilePath) == "" {
		exitErr("profile path is required")
	}
	raw, err := os.ReadFile(*profilePath)
	if err != nil {
		exitErr(fmt.Sprintf("read profile: %v", err))
	}
	var profile plans.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		exitErr(fmt.Sprintf("parse profile: %v", err))
	}
	if missing := profile.Missing(); len(missing) > 0 {
		exitErr("profile is missing: " + strings.Join(missing, ", "))
	}

	in := plans.GenerateInput{Profile: profile}
	if strings.TrimSpace(*resumePath) != "" {
		data, err := os.ReadFile(*resumePath)
		if err != nil {
			exitErr(fmt.Sprintf("read resume: %v", err))
		}
		text, err := extract.ExtractText(context.Background(), data, filepath.Ext(*resumePath))
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "warning: resume skipped: %v\n", err)
		} else {
			in.ResumeText = text
		}
	}

	if !*call {
		fmt.Println("system: " + plans.SystemPrompt())
		fmt.Println()
		fmt.Print(plans.BuildPrompt(in))
		return
	}

	client, err := openai.NewClient(openai.Options{
		Endpoint:   cfg.OpenAIEndpoint,
		APIKey:     cfg.OpenAIAPIKey,
		Deployment: cfg.OpenAIDeployment,
		APIVersion: cfg.OpenAIAPIVersion,
		Timeout:    cfg.OpenAITimeout,
	})
	if err != nil {
		exitErr(err.Error())
	}
	html, err := plans.NewGenerator(client).Generate(context.Background(), in)
	if err != nil {
		exitErr(fmt.Sprintf("generate: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(html), 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	fmt.Println(html)
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
