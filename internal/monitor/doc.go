// Package monitor watches a single VPS over one long-lived SSH connection.
//
// # Pieces
//
//	Session      - owns the SSH connection; connect, batched exec, fire-and-forget
//	Probe        - one remote command plus the code that folds its output into a Snapshot
//	Parse        - splits batched output on "---" and applies probes positionally
//	Poller       - runs one cycle at a time, keeps the last good Snapshot, feeds a Sink
//	Maintenance  - sends the prune command with at most one dispatch outstanding
//	Model        - Bubble Tea dashboard; Bridge forwards poller results into it
//
// # Message Flow
//
//  1. Poller.Run connects. A failure is rendered once as a fatal Result.
//  2. Every interval (default 10s), or when the user presses r, Poll sends
//     one batched command and parses the reply.
//  3. The Result (fresh snapshot or error plus the last good snapshot) goes
//     to the Sink. In the dashboard that is a Bridge calling program.Send.
//  4. Model.Update stores the copy; View renders it.
//
// # Keyboard Shortcuts
//
//	r           - Poll now
//	p           - Prune docker images and volumes
//	?           - Toggle help
//	q, Ctrl+C   - Quit
package monitor
