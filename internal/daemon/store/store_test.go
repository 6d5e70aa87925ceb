package store

import (
	"testing"
	"time"

	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(id string, started time.Time) *sessions.Session {
	return &sessions.Session{ID: id, Record: &sessions.Record{Status: sessions.StatusExited, StartedAt: started}}
}

func TestApplyUpdateReplacesSnapshot(t *testing.T) {
	st := New()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	st.ApplyUpdate(Update{Type: UpdateSessions, Payload: []*sessions.Session{
		session("old", base),
		session("new", base.Add(time.Hour)),
	}})

	list := st.GetSessions()
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
	assert.False(t, st.Get().UpdatedAt.IsZero())

	st.ApplyUpdate(Update{Type: UpdateSessions, Payload: []*sessions.Session{session("only", base)}})
	_, ok := st.GetSession("old")
	assert.False(t, ok)
	got, ok := st.GetSession("only")
	assert.True(t, ok)
	assert.Equal(t, "only", got.ID)
}

func TestApplyUpdateRemoved(t *testing.T) {
	st := New()
	st.ApplyUpdate(Update{Type: UpdateSessions, Payload: []*sessions.Session{
		session("a", time.Time{}), session("b", time.Time{}),
	}})

	st.ApplyUpdate(Update{Type: UpdateRemoved, Payload: []string{"a"}})
	assert.Len(t, st.GetSessions(), 1)
	_, ok := st.GetSession("a")
	assert.False(t, ok)
}

func TestGetReturnsCopy(t *testing.T) {
	st := New()
	st.ApplyUpdate(Update{Type: UpdateSessions, Payload: []*sessions.Session{session("a", time.Time{})}})

	snap := st.Get()
	delete(snap.Sessions, "a")
	_, ok := st.GetSession("a")
	assert.True(t, ok)
}

func TestSubscribe(t *testing.T) {
	st := New()
	ch := st.Subscribe()

	st.ApplyUpdate(Update{Type: UpdateRemoved, Source: "api", Payload: []string{"x"}})

	select {
	case u := <-ch:
		assert.Equal(t, UpdateRemoved, u.Type)
		assert.Equal(t, "api", u.Source)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}

	st.Unsubscribe(ch)
	st.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
}
