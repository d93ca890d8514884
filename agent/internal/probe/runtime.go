package probe

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/littleapps/usagestats/pkg/types"
)

// Runtime probes the local host through the Go runtime.
type Runtime struct {
	session
	app      App
	cmds     *Commands // nil disables command lookups
	goos     string
	hostname func() (string, error)
}

// NewRuntime returns a Runtime prober. allowCommands enables memoized OS
// command lookups (currently `uname -r` for the kernel release).
func NewRuntime(app App, allowCommands bool) *Runtime {
	r := &Runtime{
		session:  newSession(),
		app:      app,
		goos:     runtime.GOOS,
		hostname: os.Hostname,
	}
	if allowCommands {
		r.cmds = NewCommands()
	}
	return r
}

// Probe never fails; fields it cannot determine are Null.
func (r *Runtime) Probe(ctx context.Context) (*types.Event, error) {
	e := r.header(r.app)
	e.Set("OS", types.Text(r.goos)).
		Set("Arch", types.Text(runtime.GOARCH)).
		Set("CPUCount", types.Text(strconv.Itoa(runtime.NumCPU()))).
		Set("Hostname", r.hostnameValue()).
		Set("GoVersion", versionOrText(strings.TrimPrefix(runtime.Version(), "go"))).
		Set("Kernel", r.kernel(ctx))
	return e, nil
}

func (r *Runtime) hostnameValue() types.Value {
	h, err := r.hostname()
	if err != nil {
		return types.Null()
	}
	return textOrNull(h)
}

func (r *Runtime) kernel(ctx context.Context) types.Value {
	if r.cmds == nil || r.goos == "windows" {
		return types.Null()
	}
	out, err := r.cmds.Output(ctx, "uname", "-r")
	if err != nil {
		return types.Null()
	}
	return types.Text(out)
}
