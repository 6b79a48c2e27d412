package contexttracker

import "github.com/daksh-r/webdriverio/internal/protocol"

// State is the tracker's explicit state record. The empty string means
// "absent" for both fields.
type State struct {
	// Current is the last resolved context identifier: a window handle, a
	// browsing-context id, or the NATIVE_APP sentinel.
	Current string
	// Mobile is the last context name requested via switchContext, kept as
	// a fallback for backends that acknowledge the switch with a null value.
	Mobile string
}

// applySet is the setter transition: it stores the value unconditionally and
// reports whether a non-empty value went through, which is what drives the
// session's native-app flag. An empty value is a defined no-op on the flag.
func applySet(s State, value string) (State, bool) {
	s.Current = value
	return s, value != ""
}

// applyCommand folds an outgoing command event into the state. The branches
// are independent: the mobile-context bookkeeping happens regardless of the
// window/frame branches.
func applyCommand(s State, ev protocol.CommandEvent) (State, bool) {
	flag := false
	switch ev.Command {
	case protocol.CommandSwitchToWindow:
		s, flag = applySet(s, ev.Handle)
	case protocol.CommandSwitchToParentFrame, protocol.CommandRefresh:
		// Both invalidate any previously known context identity. The
		// re-apply with the command's handle field mirrors the switch
		// branch; these commands rarely carry one, in which case it is
		// a no-op.
		s.Current = ""
		s, flag = applySet(s, ev.Handle)
	}
	if ev.Command == protocol.CommandSwitchContext {
		s.Mobile = ev.Name
	}
	return s, flag
}

// applyResult folds a completed command's result event into the state.
func applyResult(s State, ev protocol.ResultEvent) (State, bool) {
	switch ev.Command {
	case protocol.CommandGetContext:
		return applySet(s, ev.Value)
	case protocol.CommandSwitchContext:
		// Some backends acknowledge a context switch with a null value
		// instead of echoing the new context id; fall back to the name
		// we know was requested.
		if ev.Null && s.Mobile != "" {
			return applySet(s, s.Mobile)
		}
	}
	return s, false
}
