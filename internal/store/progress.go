package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// progressRepo implements ProgressRepo with ent's SQL builders.
type progressRepo struct {
	drv *entsql.Driver
	b   *entsql.DialectBuilder
}

var _ ProgressRepo = (*progressRepo)(nil)

// execQuerier is satisfied by both the driver and a transaction.
type execQuerier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

func sessionKey(studentID, lessonID string) *entsql.Predicate {
	return entsql.And(entsql.EQ("student_id", studentID), entsql.EQ("lesson_id", lessonID))
}

func (r *progressRepo) GetOrCreateSession(ctx context.Context, studentID, lessonID string) (*LessonSession, error) {
	now := time.Now().UTC()
	query, args := r.b.Insert(tableSessions).
		Columns(sessionColumns...).
		Values(studentID, lessonID, 0, false, false, 1, now, now).
		OnConflict(entsql.ConflictColumns("student_id", "lesson_id"), entsql.DoNothing()).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return r.findSession(ctx, r.drv, studentID, lessonID)
}

func (r *progressRepo) FindSession(ctx context.Context, studentID, lessonID string) (*LessonSession, error) {
	return r.findSession(ctx, r.drv, studentID, lessonID)
}

func (r *progressRepo) findSession(ctx context.Context, q execQuerier, studentID, lessonID string) (*LessonSession, error) {
	query, args := r.b.Select(sessionColumns...).
		From(r.b.Table(tableSessions)).
		Where(sessionKey(studentID, lessonID)).
		Query()
	sessions, err := querySessions(ctx, q, query, args)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, ErrNotFound
	}
	return &sessions[0], nil
}

func (r *progressRepo) ListSessions(ctx context.Context, studentID string) ([]LessonSession, error) {
	query, args := r.b.Select(sessionColumns...).
		From(r.b.Table(tableSessions)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Asc("started_at")).
		Query()
	sessions, err := querySessions(ctx, r.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (r *progressRepo) ListAnswers(ctx context.Context, studentID, lessonID string) ([]Answer, error) {
	return r.listAnswers(ctx, r.drv, tableAnswers, studentID, lessonID)
}

func (r *progressRepo) ListAnswerHistory(ctx context.Context, studentID, lessonID string) ([]Answer, error) {
	return r.listAnswers(ctx, r.drv, tableHistory, studentID, lessonID)
}

func (r *progressRepo) listAnswers(ctx context.Context, q execQuerier, table, studentID, lessonID string) ([]Answer, error) {
	query, args := r.b.Select(answerColumns...).
		From(r.b.Table(table)).
		Where(sessionKey(studentID, lessonID)).
		OrderBy(entsql.Asc("attempt"), entsql.Asc("answered_at")).
		Query()
	answers, err := queryAnswers(ctx, q, query, args)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return answers, nil
}

func (r *progressRepo) SaveAnswer(ctx context.Context, a Answer) error {
	if a.AnsweredAt.IsZero() {
		a.AnsweredAt = time.Now().UTC()
	}
	if a.Attempt == 0 {
		a.Attempt = 1
	}
	query, args := r.b.Insert(tableAnswers).
		Columns(answerColumns...).
		Values(a.StudentID, a.LessonID, a.QuestionID, a.VariantID, a.SelectedOption, a.IsCorrect, a.Attempt, a.AnsweredAt).
		OnConflict(
			entsql.ConflictColumns("student_id", "lesson_id", "question_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return r.touch(ctx, r.drv, a.StudentID, a.LessonID)
}

func (r *progressRepo) DeleteAnswer(ctx context.Context, studentID, lessonID, questionID string) error {
	return r.withTx(ctx, func(tx dialect.Tx) error {
		query, args := r.b.Delete(tableAnswers).
			Where(entsql.And(sessionKey(studentID, lessonID), entsql.EQ("question_id", questionID))).
			Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("delete answer: %w", err)
		}

		query, args = r.b.Update(tableSessions).
			Set("completed", false).
			Set("last_activity_at", time.Now().UTC()).
			Where(sessionKey(studentID, lessonID)).
			Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("reopen attempt: %w", err)
		}
		return nil
	})
}

func (r *progressRepo) CheckpointPosition(ctx context.Context, studentID, lessonID string, seconds int) error {
	if seconds < 0 {
		seconds = 0
	}
	query, args := r.b.Update(tableSessions).
		Set("video_position_seconds", seconds).
		Set("last_activity_at", time.Now().UTC()).
		Where(sessionKey(studentID, lessonID)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("checkpoint position: %w", err)
	}
	return nil
}

func (r *progressRepo) MarkCompleted(ctx context.Context, studentID, lessonID string, passed bool) error {
	upd := r.b.Update(tableSessions).
		Set("completed", true).
		Set("video_position_seconds", 0).
		Set("last_activity_at", time.Now().UTC())
	if passed {
		upd.Set("passed", true)
	}
	query, args := upd.Where(sessionKey(studentID, lessonID)).Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

func (r *progressRepo) ResetForReview(ctx context.Context, studentID, lessonID string) (*LessonSession, error) {
	var sess *LessonSession
	err := r.withTx(ctx, func(tx dialect.Tx) error {
		answers, err := r.listAnswers(ctx, tx, tableAnswers, studentID, lessonID)
		if err != nil {
			return err
		}

		if len(answers) > 0 {
			now := time.Now().UTC()
			ins := r.b.Insert(tableHistory).Columns(append(answerColumns, "archived_at")...)
			for _, a := range answers {
				ins.Values(a.StudentID, a.LessonID, a.QuestionID, a.VariantID, a.SelectedOption, a.IsCorrect, a.Attempt, a.AnsweredAt, now)
			}
			query, args := ins.Query()
			if err := tx.Exec(ctx, query, args, nil); err != nil {
				return fmt.Errorf("archive answers: %w", err)
			}

			query, args = r.b.Delete(tableAnswers).Where(sessionKey(studentID, lessonID)).Query()
			if err := tx.Exec(ctx, query, args, nil); err != nil {
				return fmt.Errorf("clear answers: %w", err)
			}
		}

		query, args := r.b.Update(tableSessions).
			Set("completed", false).
			Set("video_position_seconds", 0).
			Add("attempt", 1).
			Set("last_activity_at", time.Now().UTC()).
			Where(sessionKey(studentID, lessonID)).
			Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}

		sess, err = r.findSession(ctx, tx, studentID, lessonID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (r *progressRepo) DeleteSession(ctx context.Context, studentID, lessonID string) error {
	return r.withTx(ctx, func(tx dialect.Tx) error {
		for _, table := range []string{tableAnswers, tableSessions} {
			query, args := r.b.Delete(table).Where(sessionKey(studentID, lessonID)).Query()
			if err := tx.Exec(ctx, query, args, nil); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}
		return nil
	})
}

func (r *progressRepo) touch(ctx context.Context, q execQuerier, studentID, lessonID string) error {
	query, args := r.b.Update(tableSessions).
		Set("last_activity_at", time.Now().UTC()).
		Where(sessionKey(studentID, lessonID)).
		Query()
	if err := q.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction, rolling back on error.
func (r *progressRepo) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func querySessions(ctx context.Context, q execQuerier, query string, args []any) ([]LessonSession, error) {
	rows := &entsql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LessonSession
	for rows.Next() {
		var s LessonSession
		if err := rows.Scan(
			&s.StudentID, &s.LessonID, &s.VideoPositionSeconds, &s.Completed,
			&s.Passed, &s.Attempt, &s.StartedAt, &s.LastActivityAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func queryAnswers(ctx context.Context, q execQuerier, query string, args []any) ([]Answer, error) {
	rows := &entsql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		var a Answer
		var answeredAt sql.NullTime
		if err := rows.Scan(
			&a.StudentID, &a.LessonID, &a.QuestionID, &a.VariantID,
			&a.SelectedOption, &a.IsCorrect, &a.Attempt, &answeredAt,
		); err != nil {
			return nil, err
		}
		a.AnsweredAt = answeredAt.Time
		out = append(out, a)
	}
	return out, rows.Err()
}
