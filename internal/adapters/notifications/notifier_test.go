package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/medbackoffice/internal/domain/providers"
)

func TestRecorder_KeepsMostRecent(t *testing.T) {
	r := NewRecorder(2)
	ctx := context.Background()

	r.Notify(ctx, providers.Notice{Title: "one"})
	r.Notify(ctx, providers.Notice{Title: "two"})
	r.Notify(ctx, providers.Notice{Title: "three"})

	got := r.Drain()
	assert.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Title)
	assert.Equal(t, "three", got[1].Title)
	assert.Empty(t, r.Notices())
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewRecorder(5), NewRecorder(5)
	Multi{a, nil, b, NewLogNotifier()}.Notify(context.Background(), providers.Notice{Level: providers.NoticeError, Title: "x"})

	assert.Len(t, a.Notices(), 1)
	assert.Len(t, b.Notices(), 1)
}
