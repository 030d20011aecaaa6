// Package model はドメインモデルを定義する。
package model

import "time"

// SessionStatus はカウンセリングセッションの状態を表す。
//
// 遷移表:
//
//	pending → accepted | rejected | rescheduled
//	accepted → rescheduled
//	rescheduled → confirmed
//	pending | accepted | confirmed | rescheduled → cancelled
//
// rejected と cancelled からの遷移は存在しない。
type SessionStatus string

const (
	// SessionPending はリクエスト直後、カウンセラーの応答待ちの状態。
	SessionPending SessionStatus = "pending"
	// SessionAccepted はカウンセラーが承諾した状態。
	SessionAccepted SessionStatus = "accepted"
	// SessionRejected はカウンセラーが拒否した終端状態。
	SessionRejected SessionStatus = "rejected"
	// SessionRescheduled はカウンセラーが新しい時刻を提案し、求職者の確認待ちの状態。
	SessionRescheduled SessionStatus = "rescheduled"
	// SessionConfirmed は求職者が提案時刻を確定した状態。
	SessionConfirmed SessionStatus = "confirmed"
	// SessionCancelled は求職者が取り消した終端状態。
	SessionCancelled SessionStatus = "cancelled"
)

// Session は求職者とカウンセラーの間のカウンセリングセッションを表す。
// RescheduledAtはカウンセラーが提案した新時刻で、求職者が確定するまで
// ScheduledAt（元の時刻）はそのまま保持される。
type Session struct {
	ID            string
	JobSeekerID   string
	CounselorID   string
	ScheduledAt   time.Time
	RescheduledAt *time.Time
	Status        SessionStatus
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SessionParty はセッションに付随して返す当事者の最小プロジェクション。
type SessionParty struct {
	ID       string
	FullName string
}
