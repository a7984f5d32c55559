package plans

import (
	"strings"

	"careerpath-backend/internal/shared/storage/object"
)

// UserProfile is the questionnaire submitted with a plan request.
type UserProfile struct {
	ExperienceLevel       string   `json:"experience_level"`
	JobRole               string   `json:"job_role"`
	Interests             []string `json:"interests"`
	LearningStyle         string   `json:"learning_style"`
	TimeCommitment        string   `json:"time_commitment"`
	Goals                 string   `json:"goals"`
	CurrentSkills         string   `json:"current_skills"`
	PreferredTechnologies string   `json:"preferred_technologies"`
}

// GenerateInput is everything the prompt is built from.
type GenerateInput struct {
	Profile    UserProfile
	ResumeText string
}

// GeneratedPlan is returned to the caller and later posted back for export.
type GeneratedPlan struct {
	HTMLPlan    string      `json:"html_plan"`
	UserProfile UserProfile `json:"user_profile"`
}

// ResumeUpload is an optional resume attached to a plan request.
type ResumeUpload struct {
	FileName string
	Data     []byte
}

// Export describes a stored PDF.
type Export struct {
	FileName string
	Locator  object.Locator
	Data     []byte
	// DownloadURL is set when the store can hand out direct links.
	DownloadURL string
}

// Missing lists the required answers that are blank, by form field name.
func (p UserProfile) Missing() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("experience_level", p.ExperienceLevel)
	check("job_role", p.JobRole)
	if len(p.Interests) == 0 {
		missing = append(missing, "interests")
	}
	check("learning_style", p.LearningStyle)
	check("time_commitment", p.TimeCommitment)
	check("goals", p.Goals)
	return missing
}

// SplitInterests splits a comma-separated form value, dropping empty entries.
func SplitInterests(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
