package generation

import (
	"fmt"
	"strings"
	"time"
)

const (
	placeholderName  = "[Your Name]"
	maxTemplateSkill = 3
)

var skillVocabulary = []string{
	"javascript", "python", "react", "node", "typescript", "sql", "aws", "docker",
	"kubernetes", "agile", "scrum", "leadership", "management", "communication", "problem solving",
}

// ExtractKeywords returns the vocabulary skills mentioned in text, in vocabulary order.
func ExtractKeywords(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, skill := range skillVocabulary {
		if strings.Contains(lower, skill) {
			found = append(found, skill)
		}
	}
	return found
}

// DefaultSubject is the subject used when none could be generated.
func DefaultSubject(now time.Time) string {
	return fmt.Sprintf("Application for Position - %d/%d/%d", int(now.Month()), now.Day(), now.Year())
}

// TemplateLetter builds a cover letter without any model call. The résumé is
// only acknowledged, never quoted.
func TemplateLetter(jobDescription, resumeText, applicantName string) string {
	keywords := ExtractKeywords(jobDescription)

	alignment := "I believe my experience and skills make me a strong candidate for this role."
	if len(keywords) > 0 {
		if len(keywords) > maxTemplateSkill {
			keywords = keywords[:maxTemplateSkill]
		}
		alignment = fmt.Sprintf(
			"I believe my experience aligns well with the requirements you've outlined, particularly in %s.",
			strings.Join(keywords, ", "),
		)
	}

	background := "I have attached my resume for your review."
	if strings.TrimSpace(resumeText) != "" {
		background = "My background includes relevant experience that I believe would be valuable to your organization. " + background
	}

	name := strings.TrimSpace(applicantName)
	if name == "" {
		name = placeholderName
	}

	paragraphs := []string{
		"Dear Hiring Manager,",
		"I am writing to express my interest in the position you have posted. After reviewing the job description, I am excited about the opportunity to contribute to your team.",
		alignment,
		background,
		"I am enthusiastic about the possibility of joining your team and would welcome the opportunity to discuss how my skills and experience can contribute to your organization's success.",
		"Thank you for considering my application. I look forward to hearing from you.",
		"Best regards,\n" + name,
	}

	return strings.Join(paragraphs, "\n\n")
}
