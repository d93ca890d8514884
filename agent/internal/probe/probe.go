package probe

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/littleapps/usagestats/pkg/types"
)

// EventType is the Type field of every probed event.
const EventType = "inventory"

// Prober produces one inventory event per call.
type Prober interface {
	Probe(ctx context.Context) (*types.Event, error)
}

// App identifies the application being reported on.
type App struct {
	ID      string
	Version string
}

// session carries the per-prober identity stamped on every event.
type session struct {
	id  string
	now func() time.Time // injectable for deterministic tests
}

func newSession() session {
	return session{id: uuid.NewString(), now: time.Now}
}

// header starts an event with the fields common to every backend.
func (s session) header(app App) *types.Event {
	e := &types.Event{}
	e.Set("Type", types.Text(EventType)).
		Set("ID", types.Text(s.id)).
		Set("Timestamp", types.Text(strconv.FormatInt(s.now().UTC().Unix(), 10))).
		Set("AppID", textOrNull(app.ID)).
		Set("AppVersion", versionOrText(app.Version))
	return e
}

func textOrNull(s string) types.Value {
	if s == "" {
		return types.Null()
	}
	return types.Text(s)
}

// versionOrText returns s as a Version when it is already in canonical
// dotted form, and as Text otherwise. "2024.01" and "1.2" stay text because
// ParseVersion would render them as "2024.1.0" and "1.2.0".
func versionOrText(s string) types.Value {
	if s == "" {
		return types.Null()
	}
	if v, err := types.ParseVersion(s); err == nil && v.String() == s {
		return v
	}
	return types.Text(s)
}
