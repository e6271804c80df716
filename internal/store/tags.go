package store

import (
	"fmt"
	"strings"
)

// normalizeTag lowercases and trims a tag; callers skip empty results.
func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// SetTags replaces a skill's tag set with the normalized, deduplicated form
// of tags. Lowercasing, trimming, and dedup happen on write so every reader
// sees a canonical set (§4.1).
func SetTags(tx Querier, skillName string, tags []string) error {
	seen := make(map[string]bool, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		n := normalizeTag(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		normalized = append(normalized, n)
	}

	if _, err := tx.Exec(`DELETE FROM skill_tags WHERE skill_name = ?`, skillName); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for _, t := range normalized {
		if _, err := tx.Exec(`INSERT INTO skill_tags (skill_name, tag) VALUES (?, ?)`, skillName, t); err != nil {
			return fmt.Errorf("insert tag %q: %w", t, err)
		}
	}
	return nil
}

// ListTags returns a skill's tags in lexical order.
func ListTags(q Querier, skillName string) ([]string, error) {
	tags, err := queryStringColumn(q, `SELECT tag FROM skill_tags WHERE skill_name = ? ORDER BY tag`, skillName)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// FindSkillsByTag returns skill names carrying the given normalized tag.
func FindSkillsByTag(q Querier, tag string) ([]string, error) {
	names, err := queryStringColumn(q, `SELECT skill_name FROM skill_tags WHERE tag = ? ORDER BY skill_name`, normalizeTag(tag))
	if err != nil {
		return nil, fmt.Errorf("find skills by tag: %w", err)
	}
	return names, nil
}
