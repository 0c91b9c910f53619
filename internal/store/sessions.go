package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/chatweave/chatweave/internal/ir"
)

// WriteSession writes a session IR document across the session tables.
// Tables: sessions, session_conversations, prompt_groups, platform_refs.
// A session_id is replaced wholesale on rewrite: alignment output is a pure
// function of its inputs, so stale rows have no value.
func (s *Store) WriteSession(ctx context.Context, runID uuid.UUID, doc ir.SessionIR) (uuid.UUID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, doc.SessionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("delete stale session: %w", err)
	}

	sessionPK := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (id, session_id, schema_version, platforms, run_id, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		sessionPK, doc.SessionID, doc.Schema, doc.Platforms, runID,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert session: %w", err)
	}

	for _, conv := range doc.Conversations {
		_, err = tx.Exec(ctx, `
			INSERT INTO session_conversations (id, session_pk, platform, conversation_id)
			VALUES ($1, $2, $3, $4)`,
			uuid.New(), sessionPK, conv.Platform, conv.ConversationID,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert conversation ref: %w", err)
		}
	}

	for pos, group := range doc.Prompts {
		groupPK := uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO prompt_groups (id, session_pk, prompt_key, position, canonical_text, canonical_platform, canonical_qa_id, depends_on)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			groupPK, sessionPK, group.PromptKey, pos,
			group.CanonicalPrompt.Text,
			group.CanonicalPrompt.Source.Platform,
			group.CanonicalPrompt.Source.QAID,
			group.DependsOn,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert prompt group %s: %w", group.PromptKey, err)
		}

		for refPos, ref := range group.PerPlatform {
			_, err = tx.Exec(ctx, `
				INSERT INTO platform_refs (id, group_pk, position, platform, qa_id, conversation_id, prompt_text, prompt_similarity, missing_prompt, missing_context)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				uuid.New(), groupPK, refPos, ref.Platform, ref.QAID, ref.ConversationID,
				ref.PromptText, ref.PromptSimilarity, ref.MissingPrompt, ref.MissingContext,
			)
			if err != nil {
				return uuid.Nil, fmt.Errorf("insert platform ref: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return sessionPK, nil
}

// LoadSession reconstructs a session IR document from the database.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (ir.SessionIR, error) {
	doc := ir.SessionIR{SessionID: sessionID}

	var sessionPK uuid.UUID
	err := s.pool.QueryRow(ctx, `
		SELECT id, schema_version, platforms FROM sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&sessionPK, &doc.Schema, &doc.Platforms)
	if err != nil {
		return ir.SessionIR{}, fmt.Errorf("select session: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT platform, conversation_id FROM session_conversations
		WHERE session_pk = $1 ORDER BY platform`,
		sessionPK,
	)
	if err != nil {
		return ir.SessionIR{}, fmt.Errorf("select conversations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var conv ir.ConversationRef
		if err := rows.Scan(&conv.Platform, &conv.ConversationID); err != nil {
			return ir.SessionIR{}, fmt.Errorf("scan conversation: %w", err)
		}
		doc.Conversations = append(doc.Conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return ir.SessionIR{}, fmt.Errorf("conversations: %w", err)
	}

	groups, err := s.loadPromptGroups(ctx, sessionPK)
	if err != nil {
		return ir.SessionIR{}, err
	}
	doc.Prompts = groups
	return doc, nil
}

func (s *Store) loadPromptGroups(ctx context.Context, sessionPK uuid.UUID) ([]ir.PromptGroup, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, prompt_key, canonical_text, canonical_platform, canonical_qa_id, depends_on
		FROM prompt_groups WHERE session_pk = $1 ORDER BY position`,
		sessionPK,
	)
	if err != nil {
		return nil, fmt.Errorf("select prompt groups: %w", err)
	}
	defer rows.Close()

	var groups []ir.PromptGroup
	var groupPKs []uuid.UUID
	for rows.Next() {
		var pk uuid.UUID
		var g ir.PromptGroup
		err := rows.Scan(&pk, &g.PromptKey,
			&g.CanonicalPrompt.Text,
			&g.CanonicalPrompt.Source.Platform,
			&g.CanonicalPrompt.Source.QAID,
			&g.DependsOn,
		)
		if err != nil {
			return nil, fmt.Errorf("scan prompt group: %w", err)
		}
		if g.DependsOn == nil {
			g.DependsOn = []string{}
		}
		groups = append(groups, g)
		groupPKs = append(groupPKs, pk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prompt groups: %w", err)
	}

	for i, pk := range groupPKs {
		refs, err := s.loadPlatformRefs(ctx, pk)
		if err != nil {
			return nil, err
		}
		groups[i].PerPlatform = refs
	}
	return groups, nil
}

func (s *Store) loadPlatformRefs(ctx context.Context, groupPK uuid.UUID) ([]ir.PlatformRef, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT platform, qa_id, conversation_id, prompt_text, prompt_similarity, missing_prompt, missing_context
		FROM platform_refs WHERE group_pk = $1 ORDER BY position`,
		groupPK,
	)
	if err != nil {
		return nil, fmt.Errorf("select platform refs: %w", err)
	}
	defer rows.Close()

	var refs []ir.PlatformRef
	for rows.Next() {
		var ref ir.PlatformRef
		err := rows.Scan(&ref.Platform, &ref.QAID, &ref.ConversationID,
			&ref.PromptText, &ref.PromptSimilarity, &ref.MissingPrompt, &ref.MissingContext)
		if err != nil {
			return nil, fmt.Errorf("scan platform ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("platform refs: %w", err)
	}
	return refs, nil
}

// ListSessions returns the stored session IDs, most recent first.
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT session_id FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
