package plans

import (
	"reflect"
	"strings"
)

// generatePlanForm is the multipart questionnaire. The resume file part is
// read separately.
type generatePlanForm struct {
	ExperienceLevel       string `form:"experience_level" binding:"required"`
	JobRole               string `form:"job_role" binding:"required"`
	Interests             string `form:"interests" binding:"required"`
	LearningStyle         string `form:"learning_style" binding:"required"`
	TimeCommitment        string `form:"time_commitment" binding:"required"`
	Goals                 string `form:"goals" binding:"required"`
	CurrentSkills         string `form:"current_skills"`
	PreferredTechnologies string `form:"preferred_technologies"`
}

func (f generatePlanForm) profile() UserProfile {
	return UserProfile{
		ExperienceLevel:       strings.TrimSpace(f.ExperienceLevel),
		JobRole:               strings.TrimSpace(f.JobRole),
		Interests:             SplitInterests(f.Interests),
		LearningStyle:         strings.TrimSpace(f.LearningStyle),
		TimeCommitment:        strings.TrimSpace(f.TimeCommitment),
		Goals:                 strings.TrimSpace(f.Goals),
		CurrentSkills:         strings.TrimSpace(f.CurrentSkills),
		PreferredTechnologies: strings.TrimSpace(f.PreferredTechnologies),
	}
}

// formFieldName maps a struct field back to its form key for error details.
func formFieldName(structField string) string {
	if f, ok := reflect.TypeOf(generatePlanForm{}).FieldByName(structField); ok {
		if tag, _, _ := strings.Cut(f.Tag.Get("form"), ","); tag != "" {
			return tag
		}
	}
	return strings.ToLower(structField)
}

type downloadPDFRequest struct {
	HTMLPlan    string       `json:"html_plan" binding:"required"`
	UserProfile *UserProfile `json:"user_profile"`
}

type generatePlanResponse struct {
	Success     bool        `json:"success"`
	HTMLPlan    string      `json:"html_plan"`
	UserProfile UserProfile `json:"user_profile"`
}

type downloadLinkResponse struct {
	Success     bool   `json:"success"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
	Locator     string `json:"locator"`
	Message     string `json:"message"`
}
