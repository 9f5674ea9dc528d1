package orchestrator

import (
	"fmt"
	"strconv"
	"strings"
)

// User-facing messages.
const (
	ShowMoreHint       = "\n🤔 Want to see more responses? Type `show more`."
	NoResultsMessage   = "⚠️ No previous results available."
	AllShownMessage    = "✅ All responses already shown."
	alternatesHeader   = "**📚 Other Model Responses:**\n\n"
	improvedAnnotation = "\n\n📝 *Improved after critique:* %s"
)

// FormatTaskBlock renders the answer section for the 1-based subtask index.
func FormatTaskBlock(index int, subtask, model, text string) string {
	return fmt.Sprintf("### 🔹 Task %d: `%s`\n**Best Model:** `%s`\n\n%s\n\n", index, subtask, model, text)
}

// FormatImproved appends the critique that triggered an improvement.
func FormatImproved(improved, critique string) string {
	return improved + fmt.Sprintf(improvedAnnotation, critique)
}

// FormatError renders a turn failure as a chat reply.
func FormatError(err error) string {
	return "⚠️ Error: " + err.Error()
}

// FormatScore prints a score with the fewest digits that round-trip and
// at least one decimal, so 1 prints as "1.0".
func FormatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatAlternates renders the entries of ranking whose model differs from
// the model of ranking[0], numbered from 1 in ranking order. Entries from
// every subtask are included.
func FormatAlternates(ranking []RankedResponse) string {
	if len(ranking) == 0 {
		return NoResultsMessage
	}

	top := ranking[0].Model
	var b strings.Builder
	n := 0
	for _, r := range ranking {
		if r.Model == top {
			continue
		}
		if n == 0 {
			b.WriteString(alternatesHeader)
		}
		n++
		fmt.Fprintf(&b, "### %d. `%s` (Score: %s)\n%s\n\n", n, r.Model, FormatScore(r.Score), r.Text)
	}
	if n == 0 {
		return AllShownMessage
	}
	return b.String()
}
