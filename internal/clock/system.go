package clock

import (
	"context"
	"time"

	testclockctx "github.com/FelipeFraul/buscai-v2-sub000/internal/testclock/context"
)

type SystemClock struct{}

func (SystemClock) Now(ctx context.Context) time.Time {
	if t, ok := testclockctx.FromContext(ctx); ok {
		return t.UTC()
	}
	return time.Now().UTC()
}
