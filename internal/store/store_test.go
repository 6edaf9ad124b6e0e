package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDBSeq atomic.Int64

func openTestStore(t *testing.T) *Store {
	t.Helper()
	// Each test gets its own shared-cache in-memory database.
	dsn := fmt.Sprintf("file:lessonplay_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
	if s.Dialect() != "sqlite3" {
		t.Errorf("dialect = %q, want sqlite3", s.Dialect())
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here. It is tested with file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestPragmasApplyToEveryConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessonplay.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	// Holding the first connection forces the pool to open a second.
	first, err := s.DB().Conn(ctx)
	require.NoError(t, err)
	defer first.Close()
	second, err := s.DB().Conn(ctx)
	require.NoError(t, err)
	defer second.Close()

	for _, c := range []*sql.Conn{first, second} {
		var timeout, fk int
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		assert.Equal(t, 5000, timeout)
		assert.Equal(t, 1, fk)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name, in, prefix string
	}{
		{"path", "/tmp/lessonplay.db", "/tmp/lessonplay.db?_pragma=journal_mode(WAL)&"},
		{"uri with query", "file:x?mode=memory&cache=shared", "file:x?mode=memory&cache=shared&_pragma=journal_mode(WAL)&"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sqliteDSN(tt.in)
			assert.True(t, strings.HasPrefix(got, tt.prefix), got)
			assert.Contains(t, got, "_pragma=busy_timeout(5000)")
		})
	}

	custom := "app.db?_pragma=busy_timeout(100)"
	assert.Equal(t, custom, sqliteDSN(custom))
}

func TestFileBasedDBUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessonplay.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestGetOrCreateSession_IsIdempotent(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()

	_, err := repo.FindSession(ctx, "s1", "l1")
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := repo.GetOrCreateSession(ctx, "s1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 0, first.VideoPositionSeconds)
	assert.False(t, first.Completed)
	assert.Equal(t, 1, first.Attempt)

	require.NoError(t, repo.CheckpointPosition(ctx, "s1", "l1", 42))

	second, err := repo.GetOrCreateSession(ctx, "s1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 42, second.VideoPositionSeconds, "second entry must not reset the session")

	sessions, err := repo.ListSessions(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSaveAnswer_ReplacesPreviousAnswer(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()
	_, err := repo.GetOrCreateSession(ctx, "s1", "l1")
	require.NoError(t, err)

	require.NoError(t, repo.SaveAnswer(ctx, Answer{
		StudentID: "s1", LessonID: "l1", QuestionID: "q1",
		VariantID: 2, SelectedOption: 0, IsCorrect: false,
	}))
	require.NoError(t, repo.SaveAnswer(ctx, Answer{
		StudentID: "s1", LessonID: "l1", QuestionID: "q1",
		VariantID: 2, SelectedOption: 1, IsCorrect: true,
	}))

	answers, err := repo.ListAnswers(ctx, "s1", "l1")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, 1, answers[0].SelectedOption)
	assert.True(t, answers[0].IsCorrect)
	assert.Equal(t, 2, answers[0].VariantID)
	assert.False(t, answers[0].AnsweredAt.IsZero())
}

func TestAnswersAreScopedPerStudentAndLesson(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()

	for _, key := range [][2]string{{"s1", "l1"}, {"s1", "l2"}, {"s2", "l1"}} {
		_, err := repo.GetOrCreateSession(ctx, key[0], key[1])
		require.NoError(t, err)
		require.NoError(t, repo.SaveAnswer(ctx, Answer{StudentID: key[0], LessonID: key[1], QuestionID: "q1"}))
	}

	answers, err := repo.ListAnswers(ctx, "s1", "l1")
	require.NoError(t, err)
	assert.Len(t, answers, 1)
}

func TestMarkCompleted_RewindsAndLatchesPass(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()
	_, err := repo.GetOrCreateSession(ctx, "s1", "l1")
	require.NoError(t, err)
	require.NoError(t, repo.CheckpointPosition(ctx, "s1", "l1", 95))

	require.NoError(t, repo.MarkCompleted(ctx, "s1", "l1", true))
	sess, err := repo.FindSession(ctx, "s1", "l1")
	require.NoError(t, err)
	assert.True(t, sess.Completed)
	assert.True(t, sess.Passed)
	assert.Equal(t, 0, sess.VideoPositionSeconds)

	// A later failing attempt does not clear the latch.
	require.NoError(t, repo.MarkCompleted(ctx, "s1", "l1", false))
	sess, err = repo.FindSession(ctx, "s1", "l1")
	require.NoError(t, err)
	assert.True(t, sess.Passed)
}

func TestDeleteAnswer_ReopensAttempt(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()
	_, err := repo.GetOrCreateSession(ctx, "s1", "l1")
	require.NoError(t, err)
	require.NoError(t, repo.SaveAnswer(ctx, Answer{StudentID: "s1", LessonID: "l1", QuestionID: "q1"}))
	require.NoError(t, repo.SaveAnswer(ctx, Answer{StudentID: "s1", LessonID: "l1", QuestionID: "q2"}))
	require.NoError(t, repo.MarkCompleted(ctx, "s1", "l1", false))

	require.NoError(t, repo.DeleteAnswer(ctx, "s1", "l1", "q1"))

	answers, err := repo.ListAnswers(ctx, "s1", "l1")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "q2", answers[0].QuestionID)

	sess, err := repo.FindSession(ctx, "s1", "l1")
	require.NoError(t, err)
	assert.False(t, sess.Completed)
}

func TestResetForReview_ArchivesAndStartsNextAttempt(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()
	_, err := repo.GetOrCreateSession(ctx, "s1", "l1")
	require.NoError(t, err)
	require.NoError(t, repo.SaveAnswer(ctx, Answer{StudentID: "s1", LessonID: "l1", QuestionID: "q1", IsCorrect: true, Attempt: 1}))
	require.NoError(t, repo.SaveAnswer(ctx, Answer{StudentID: "s1", LessonID: "l1", QuestionID: "q2", Attempt: 1}))
	require.NoError(t, repo.MarkCompleted(ctx, "s1", "l1", true))

	sess, err := repo.ResetForReview(ctx, "s1", "l1")
	require.NoError(t, err)
	assert.False(t, sess.Completed)
	assert.True(t, sess.Passed)
	assert.Equal(t, 0, sess.VideoPositionSeconds)
	assert.Equal(t, 2, sess.Attempt)

	answers, err := repo.ListAnswers(ctx, "s1", "l1")
	require.NoError(t, err)
	assert.Empty(t, answers)

	history, err := repo.ListAnswerHistory(ctx, "s1", "l1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Attempt)
}

func TestDeleteSession(t *testing.T) {
	repo := openTestStore(t).ProgressRepo()
	ctx := context.Background()
	_, err := repo.GetOrCreateSession(ctx, "s1", "l1")
	require.NoError(t, err)
	require.NoError(t, repo.SaveAnswer(ctx, Answer{StudentID: "s1", LessonID: "l1", QuestionID: "q1"}))

	require.NoError(t, repo.DeleteSession(ctx, "s1", "l1"))

	_, err = repo.FindSession(ctx, "s1", "l1")
	assert.True(t, errors.Is(err, ErrNotFound))
	answers, err := repo.ListAnswers(ctx, "s1", "l1")
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "db", "lessonplay.db")
	require.NoError(t, EnsureDir(path))
	assert.DirExists(t, filepath.Join(dir, "nested", "db"))

	assert.NoError(t, EnsureDir("postgres://localhost/lessonplay"))
	assert.NoError(t, EnsureDir("file::memory:?cache=shared"))
}
