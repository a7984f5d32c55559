package plans

import (
	_ "embed"
	"strings"
)

// MaxResumeRunes caps the resume excerpt placed in the prompt.
const MaxResumeRunes = 2000

var (
	//go:embed prompts/system.txt
	systemPrompt string
	//go:embed prompts/intro.txt
	introPrompt string
	//go:embed prompts/instructions.txt
	instructionsPrompt string
)

// SystemPrompt returns the system message sent with every plan request.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// BuildPrompt renders the user message for in. Output depends only on in.
func BuildPrompt(in GenerateInput) string {
	p := in.Profile
	var b strings.Builder
	b.WriteString(strings.TrimSpace(introPrompt))
	b.WriteString("\n\nUser Profile:\n")

	line := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		b.WriteString("- ")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}
	line("Experience Level", p.ExperienceLevel)
	line("Current Job Role", p.JobRole)
	line("Interests", strings.Join(p.Interests, ", "))
	line("Learning Style", p.LearningStyle)
	line("Time Commitment", p.TimeCommitment)
	line("Goals", p.Goals)
	line("Current Skills", p.CurrentSkills)
	line("Preferred Technologies", p.PreferredTechnologies)

	if resume := strings.TrimSpace(in.ResumeText); resume != "" {
		b.WriteString("\nResume/CV Summary:\n")
		b.WriteString(truncateRunes(resume, MaxResumeRunes))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(instructionsPrompt))
	b.WriteString("\n")
	return b.String()
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
