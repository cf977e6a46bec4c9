package chat

// Labels used as the sender of system-originated messages.
const (
	LabelServer = "server"
	LabelHelp   = "server::help"
	LabelWho    = "server::who"
)

// Message is the record delivered to connections. It is never persisted.
type Message struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// Conn is a single live connection owned by one session.
//
// Send must not block: it reports false when the message could not be
// queued because the peer is gone or too slow. Close must be safe to call
// more than once.
type Conn interface {
	Send(msg Message) bool
	Close()
}
