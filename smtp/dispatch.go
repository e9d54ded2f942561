package smtp

// commandResult is what a command handler hands back to the session
// driver: either a reply to write (optionally followed by closing the
// connection), or a fatal signal meaning a write/read already failed and
// the connection must be closed without attempting another reply.
type commandResult struct {
	reply      string
	closeAfter bool
	fatal      bool
}

type commandHandler func(s *session, arg string) commandResult

// commandEntry is one row of the dispatch table: a prefix, the states the
// command is legal in, and the handler to invoke. Ordered declaration
// mirrors §4.4: the first matching prefix wins.
type commandEntry struct {
	// prefix is compared case-insensitively (ASCII only) against the
	// head of the line. Prefixes that need a separator present bake it
	// in ("HELO ", "MAIL FROM:"); prefixes for bare-word commands
	// ("DATA", "RSET", "HELP", "NOOP", "QUIT") don't, and bareWord below
	// enforces that whatever follows is empty or starts with a space.
	prefix   string
	bareWord bool
	states   []State
	handler  commandHandler
}

var allStates = []State{StateInit, StateHelo, StateMail, StateRcpt, StateData}

func (e commandEntry) match(line string) (arg string, ok bool) {
	if len(line) < len(e.prefix) {
		return "", false
	}
	for i := 0; i < len(e.prefix); i++ {
		c := line[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c != e.prefix[i] {
			return "", false
		}
	}
	rest := line[len(e.prefix):]
	if e.bareWord && rest != "" && rest[0] != ' ' {
		return "", false
	}
	return rest, true
}

func stateAllowed(state State, states []State) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

// dispatchTable holds the ordered command entries, built once and shared
// read-only across every session (§5: "shared by reference ... lifetime =
// process").
type dispatchTable struct {
	entries []commandEntry
}

func newDispatchTable() *dispatchTable {
	return &dispatchTable{entries: []commandEntry{
		{"HELO ", false, []State{StateInit}, handleHELO},
		{"EHLO ", false, []State{StateInit}, handleEHLO},
		{"MAIL FROM:", false, []State{StateHelo}, handleMAIL},
		{"RCPT TO:", false, []State{StateMail, StateRcpt}, handleRCPT},
		{"DATA", true, []State{StateRcpt}, handleDATA},
		{"RSET", true, allStates, handleRSET},
		{"VRFY ", false, allStates, handleVRFY},
		{"EXPN ", false, allStates, handleEXPN},
		{"HELP", true, allStates, handleHELP},
		{"NOOP", true, allStates, handleNOOP},
		{"QUIT", true, allStates, handleQUIT},
	}}
}

// dispatch recognizes the command word at the head of line and invokes
// its handler, or produces the appropriate rejection: 500 for no matching
// prefix, 503 for a prefix matched out of its allowed states.
func (t *dispatchTable) dispatch(s *session, line string) commandResult {
	for _, e := range t.entries {
		arg, ok := e.match(line)
		if !ok {
			continue
		}
		if !stateAllowed(s.tx.State, e.states) {
			return commandResult{reply: replyLine(StatusBadSequence, "Bad sequence of commands")}
		}
		return e.handler(s, arg)
	}
	return commandResult{reply: replyLine(StatusCommandUnrecognized, "Command unrecognized")}
}
