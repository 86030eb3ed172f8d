// internal/ai/prompt.go
package ai

import (
	"strings"

	"bookreview-recommender/internal/models"
)

// BuildPrompt renders the profile and reading history into the instruction
// sent to the GenAI service.
func BuildPrompt(profile *models.UserProfile, readBooks []models.Book) string {
	var sb strings.Builder
	sb.WriteString("Based on the following user profile, recommend books:\n\n")
	sb.WriteString("User preferences:\n")

	var preferred models.GenreSet
	bio := ""
	if profile != nil {
		preferred = profile.PreferredGenres
		bio = strings.TrimSpace(profile.Bio)
	}
	sb.WriteString("- Preferred genres: ")
	sb.WriteString(formatGenres(preferred))
	sb.WriteString("\n")
	if bio == "" {
		bio = "No bio provided"
	}
	sb.WriteString("- Bio: ")
	sb.WriteString(bio)
	sb.WriteString("\n\n")

	if len(readBooks) > 0 {
		sb.WriteString("Books the user has read and reviewed:\n")
		for _, b := range readBooks {
			sb.WriteString("- ")
			sb.WriteString(b.Title)
			sb.WriteString(" by ")
			sb.WriteString(b.Author)
			sb.WriteString(" (Genres: ")
			sb.WriteString(formatGenres(b.Genres))
			sb.WriteString(")\n")
		}
	}

	sb.WriteString("\nPlease recommend books that would appeal to this user. ")
	sb.WriteString("Provide the title, author, and a brief reason for each recommendation.")
	return sb.String()
}

func formatGenres(s models.GenreSet) string {
	ordered := s.Ordered()
	names := make([]string, len(ordered))
	for i, g := range ordered {
		names[i] = string(g)
	}
	return "[" + strings.Join(names, ", ") + "]"
}
