package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableSessions = "lesson_sessions"
	tableAnswers  = "answers"
	tableHistory  = "answer_history"
)

var (
	sessionColumns = []string{
		"student_id", "lesson_id", "video_position_seconds", "completed",
		"passed", "attempt", "started_at", "last_activity_at",
	}
	answerColumns = []string{
		"student_id", "lesson_id", "question_id", "variant_id",
		"selected_option", "is_correct", "attempt", "answered_at",
	}
)

func idColumn() *schema.Column {
	return &schema.Column{Name: "id", Type: field.TypeInt64, Increment: true}
}

func answerTableColumns(t *schema.Table) *schema.Table {
	return t.
		AddColumn(&schema.Column{Name: "student_id", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "lesson_id", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "question_id", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "variant_id", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "selected_option", Type: field.TypeInt}).
		AddColumn(&schema.Column{Name: "is_correct", Type: field.TypeBool, Default: false}).
		AddColumn(&schema.Column{Name: "attempt", Type: field.TypeInt, Default: 1}).
		AddColumn(&schema.Column{Name: "answered_at", Type: field.TypeTime})
}

var (
	// SessionsTable holds one row per (student, lesson).
	SessionsTable = schema.NewTable(tableSessions).
			AddPrimary(idColumn()).
			AddColumn(&schema.Column{Name: "student_id", Type: field.TypeString}).
			AddColumn(&schema.Column{Name: "lesson_id", Type: field.TypeString}).
			AddColumn(&schema.Column{Name: "video_position_seconds", Type: field.TypeInt, Default: 0}).
			AddColumn(&schema.Column{Name: "completed", Type: field.TypeBool, Default: false}).
			AddColumn(&schema.Column{Name: "passed", Type: field.TypeBool, Default: false}).
			AddColumn(&schema.Column{Name: "attempt", Type: field.TypeInt, Default: 1}).
			AddColumn(&schema.Column{Name: "started_at", Type: field.TypeTime}).
			AddColumn(&schema.Column{Name: "last_activity_at", Type: field.TypeTime}).
			AddIndex("lessonsession_student_id_lesson_id", true, []string{"student_id", "lesson_id"})

	// AnswersTable holds the live answer per question.
	AnswersTable = answerTableColumns(schema.NewTable(tableAnswers).AddPrimary(idColumn())).
			AddIndex("answer_student_id_lesson_id_question_id", true, []string{"student_id", "lesson_id", "question_id"})

	// HistoryTable archives answers of finished attempts.
	HistoryTable = answerTableColumns(schema.NewTable(tableHistory).AddPrimary(idColumn())).
			AddColumn(&schema.Column{Name: "archived_at", Type: field.TypeTime}).
			AddIndex("answerhistory_student_id_lesson_id", false, []string{"student_id", "lesson_id"})

	// Tables lists every table managed by auto-migration.
	Tables = []*schema.Table{SessionsTable, AnswersTable, HistoryTable}
)
