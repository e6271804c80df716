package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillsmith/skillsmith/internal/models"
)

// CreateSkill inserts a new skill and its initial workflow-run/step rows in
// one transaction. Insertion is total: a caller never observes a partial
// cascade (§4.1).
func CreateSkill(db *sql.DB, s models.Skill) error {
	if err := models.ValidateSkillName(s.Name); err != nil {
		return &models.PreconditionError{Subject: "skill_name", Reason: err.Error()}
	}
	if s.SkillType != "" && !s.SkillType.Valid() {
		return &models.PreconditionError{Subject: "skill_type", Reason: fmt.Sprintf("unknown skill type %q", s.SkillType)}
	}

	return Transact(db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), `
			INSERT INTO skills (name, domain, skill_type, source_origin, author_login, author_display_name, description)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, s.Name, s.Domain, string(s.SkillType), string(s.SourceOrigin), s.AuthorLogin, s.AuthorDisplayName, s.Description)
		if err != nil {
			return fmt.Errorf("insert skill: %w", err)
		}

		_, err = tx.ExecContext(context.Background(), `
			INSERT INTO workflow_runs (skill_name, current_step, status, domain, skill_type, author_login)
			VALUES (?, 0, 'pending', ?, ?, ?)
		`, s.Name, s.Domain, string(s.SkillType), s.AuthorLogin)
		if err != nil {
			return fmt.Errorf("insert workflow run: %w", err)
		}

		for step := models.FirstStep; step <= models.LastStep; step++ {
			if _, err := tx.ExecContext(context.Background(), `
				INSERT INTO workflow_steps (skill_name, step_index, status) VALUES (?, ?, 'pending')
			`, s.Name, step); err != nil {
				return fmt.Errorf("insert workflow step %d: %w", step, err)
			}
		}
		return nil
	})
}

// GetSkill returns a skill by name, or ErrNotFound.
func GetSkill(db *sql.DB, name string) (models.Skill, error) {
	var s models.Skill
	var skillType, origin string
	err := db.QueryRowContext(context.Background(), `
		SELECT name, domain, skill_type, source_origin, author_login, author_display_name, description, created_at, updated_at
		FROM skills WHERE name = ?
	`, name).Scan(&s.Name, &s.Domain, &skillType, &origin, &s.AuthorLogin, &s.AuthorDisplayName, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Skill{}, ErrNotFound
	}
	if err != nil {
		return models.Skill{}, fmt.Errorf("get skill: %w", err)
	}
	s.SkillType = models.SkillType(skillType)
	s.SourceOrigin = models.SkillSourceOrigin(origin)
	return s, nil
}

// ListSkills returns every skill, ordered by name.
func ListSkills(db *sql.DB) ([]models.Skill, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT name, domain, skill_type, source_origin, author_login, author_display_name, description, created_at, updated_at
		FROM skills ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Skill
	for rows.Next() {
		var s models.Skill
		var skillType, origin string
		if err := rows.Scan(&s.Name, &s.Domain, &skillType, &origin, &s.AuthorLogin, &s.AuthorDisplayName, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		s.SkillType = models.SkillType(skillType)
		s.SourceOrigin = models.SkillSourceOrigin(origin)
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSkill removes a skill and relies on ON DELETE CASCADE to remove its
// workflow run, steps, artifacts, tags, lock, sessions, imported-origin row,
// and agent runs.
func DeleteSkill(db *sql.DB, name string) error {
	res, err := db.ExecContext(context.Background(), `DELETE FROM skills WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
