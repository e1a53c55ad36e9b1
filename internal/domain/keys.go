package domain

type CtxKey string

const (
	KeyUserID    CtxKey = "UserID"
	KeyUserEmail CtxKey = "Email"
	KeySessionID CtxKey = "SessionID"
	KeyWorkspace CtxKey = "Workspace"
	KeyDecision  CtxKey = "Decision"
	KeySession   CtxKey = "SessionState"
)
