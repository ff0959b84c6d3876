package middleware

import "context"

type ctxKey int

const userSlotKey ctxKey = 0

func withUserSlot(ctx context.Context, slot *string) context.Context {
	return context.WithValue(ctx, userSlotKey, slot)
}
