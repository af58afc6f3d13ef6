package hostapi

// Loader loads a host library by name.
type Loader interface {
	Load(name string) (Module, error)
}

// Module is a loaded host library.
type Module interface {
	Find(entry Entry) (Proc, error)
}

// Proc is a resolved entry point. *windows.LazyProc satisfies it.
type Proc interface {
	Call(args ...uintptr) (r1, r2 uintptr, lastErr error)
}

// EntryState describes how one entry point was bound.
type EntryState struct {
	Library  string `json:"library" yaml:"library"`
	Entry    Entry  `json:"entry" yaml:"entry"`
	Resolved bool   `json:"resolved" yaml:"resolved"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Resolution records the outcome of loading every library and resolving
// every entry point.
type Resolution struct {
	states []EntryState
	procs  map[Entry]Proc
}

// Resolve loads each library in Libraries through l and resolves its entry
// points. Failures are recorded, never returned.
func Resolve(l Loader) *Resolution {
	r := &Resolution{procs: make(map[Entry]Proc)}

	for _, lib := range Libraries {
		mod, err := l.Load(lib.Name)
		if err != nil {
			for _, e := range lib.Entries {
				r.states = append(r.states, EntryState{
					Library: lib.Name,
					Entry:   e,
					Error:   err.Error(),
				})
			}
			continue
		}

		for _, e := range lib.Entries {
			state := EntryState{Library: lib.Name, Entry: e}
			proc, err := mod.Find(e)
			switch {
			case err != nil:
				state.Error = err.Error()
			case proc == nil:
				state.Error = "entry point not found"
			default:
				state.Resolved = true
				r.procs[e] = proc
			}
			r.states = append(r.states, state)
		}
	}

	return r
}

// Bind resolves the host API through l and builds the typed table.
func Bind(l Loader) (*Table, *Resolution) {
	r := Resolve(l)
	return newTable(r), r
}

// States returns the binding state of every entry point in library order.
func (r *Resolution) States() []EntryState {
	out := make([]EntryState, len(r.states))
	copy(out, r.states)
	return out
}

func (r *Resolution) proc(e Entry) Proc {
	return r.procs[e]
}
