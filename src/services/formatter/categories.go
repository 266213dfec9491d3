package formatter

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"talk2trade/src/models"
)

// CategoriesFailedMessage is shown when the categories endpoint fails or reports success=false.
const CategoriesFailedMessage = "Sorry, I couldn't load event categories. Please try again."

// CategoryGroup is every category sharing an uppercased first letter.
type CategoryGroup struct {
	Letter  string
	Entries []string
}

// GroupCategories groups categories by uppercased first letter. Groups are
// sorted by letter, entries case-insensitively with the raw string as tie
// breaker. Blank entries are skipped.
func GroupCategories(categories []string) []CategoryGroup {
	byLetter := make(map[string][]string)
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(c)
		letter := string(unicode.ToUpper(r))
		byLetter[letter] = append(byLetter[letter], c)
	}

	groups := make([]CategoryGroup, 0, len(byLetter))
	for letter, entries := range byLetter {
		sort.Slice(entries, func(i, j int) bool {
			li, lj := strings.ToLower(entries[i]), strings.ToLower(entries[j])
			if li != lj {
				return li < lj
			}
			return entries[i] < entries[j]
		})
		groups = append(groups, CategoryGroup{Letter: letter, Entries: entries})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Letter < groups[j].Letter })
	return groups
}

// EventCategories renders a categories reply as a letter-headed list.
func EventCategories(resp *models.CategoriesResponse) string {
	if resp == nil || !resp.Success {
		return CategoriesFailedMessage
	}

	groups := GroupCategories(resp.Categories)

	var sb strings.Builder
	sb.WriteString("📂 **Event Categories**\n\n")
	fmt.Fprintf(&sb, "- Total events: %d\n", resp.TotalEvents)
	fmt.Fprintf(&sb, "- Unique categories: %d\n", resp.CategoriesCount)
	fmt.Fprintf(&sb, "- Updated: %s\n", orUnknown(resp.Timestamp))

	for _, g := range groups {
		fmt.Fprintf(&sb, "\n**%s**\n\n", g.Letter)
		for _, e := range g.Entries {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
