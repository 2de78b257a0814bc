package utils

import "context"

// SetUserContext stores the authenticated member and their current team
// (called by middleware). Handlers read the team back out and pass it to
// services explicitly.
func SetUserContext(ctx context.Context, userID, teamID int64, email, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, TeamIDKey, teamID)
	ctx = context.WithValue(ctx, UserEmailKey, email)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return ctx
}

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok && id > 0
}

func GetTeamIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(TeamIDKey).(int64)
	return id, ok && id > 0
}

func GetUserEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}

func GetUserRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}
