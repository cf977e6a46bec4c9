package chat

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

type session struct {
	name  string
	conns []Conn
}

// Registry maps session identities to display names and live connections.
// Every exported method runs under a single mutex, so operations never
// interleave partially. Delivery is non-blocking and happens while the lock
// is held.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	log      *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		sessions: make(map[string]*session),
		log:      log,
	}
}

// Join attaches conn to the session for identity. The first connection of an
// identity creates the session and is announced to every other session.
func (r *Registry) Join(identity string, conn Conn) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[identity]; ok {
		s.conns = append(s.conns, conn)
		r.log.Debug("Connection added to session", "identity", identity, "connections", len(s.conns))
		return
	}

	s := &session{name: identity, conns: []Conn{conn}}
	r.sessions[identity] = s
	r.log.Info("Member joined", "identity", identity, "sessions", len(r.sessions))

	r.broadcastLocked(s, Message{Sender: LabelServer, Content: "Member joined: " + s.name})
}

// Leave detaches conn from the session for identity. Removing the last
// connection deletes the session and announces the departure. Unknown
// identities and connections are ignored.
func (r *Registry) Leave(identity string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[identity]
	if !ok || !lo.Contains(s.conns, conn) {
		return
	}

	s.conns = lo.Without(s.conns, conn)
	if len(s.conns) > 0 {
		r.log.Debug("Connection removed from session", "identity", identity, "connections", len(s.conns))
		return
	}

	delete(r.sessions, identity)
	r.log.Info("Member left", "identity", identity, "sessions", len(r.sessions))

	r.broadcastLocked(nil, Message{Sender: LabelServer, Content: "Member left: " + s.name})
}

// Rename changes the display name of identity. A rejected name yields a
// *ValidationError and a directed help reply to the caller; an accepted name
// is announced to every session, the renamer included.
func (r *Registry) Rename(identity, newName string) error {
	name, err := ValidateName(newName)

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[identity]
	if err != nil {
		var verr *ValidationError
		if ok && errors.As(err, &verr) {
			r.deliverLocked(s, Message{Sender: LabelHelp, Content: verr.help()})
		}
		return err
	}
	if !ok {
		return nil
	}

	oldName := s.name
	s.name = name
	r.log.Info("Member renamed", "identity", identity, "from", oldName, "to", name)

	r.broadcastLocked(nil, Message{Sender: LabelServer, Content: fmt.Sprintf("%s renamed to %s", oldName, name)})
	return nil
}

// Message broadcasts body under the sender's current display name to every
// other session.
func (r *Registry) Message(identity, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[identity]
	if !ok {
		return
	}
	r.broadcastLocked(s, Message{Sender: s.name, Content: body})
}

// Who replies to identity with the display names of all sessions.
func (r *Registry) Who(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[identity]
	if !ok {
		return
	}
	r.deliverLocked(s, Message{Sender: LabelWho, Content: strings.Join(r.namesLocked(), ", ")})
}

// Help replies to identity with the supported commands.
func (r *Registry) Help(identity string) {
	r.SendTo(identity, LabelHelp, "Possible commands are: "+strings.Join(Commands(), ", "))
}

// SendTo delivers a directed message to every connection of identity. It is
// silently dropped when the session is gone.
func (r *Registry) SendTo(identity, label, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[identity]; ok {
		r.deliverLocked(s, Message{Sender: label, Content: body})
	}
}

// Members returns the identities currently present, sorted.
func (r *Registry) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := lo.Keys(r.sessions)
	sort.Strings(members)
	return members
}

// Names returns the display names currently present, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.namesLocked()
}

// Name returns the display name of identity.
func (r *Registry) Name(identity string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[identity]
	if !ok {
		return "", false
	}
	return s.name, true
}

// Count returns the number of sessions present.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// ConnectionCount returns the number of live connections held by identity.
func (r *Registry) ConnectionCount(identity string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[identity]; ok {
		return len(s.conns)
	}
	return 0
}

func (r *Registry) namesLocked() []string {
	names := lo.MapToSlice(r.sessions, func(_ string, s *session) string {
		return s.name
	})
	sort.Strings(names)
	return names
}

// broadcastLocked delivers msg to every session except exclude. A nil
// exclude reaches everyone.
func (r *Registry) broadcastLocked(exclude *session, msg Message) {
	for _, s := range r.sessions {
		if s == exclude {
			continue
		}
		r.deliverLocked(s, msg)
	}
}

// deliverLocked pushes msg to every connection of s. A connection that cannot
// accept it is closed; the transport reports the close back through Leave.
func (r *Registry) deliverLocked(s *session, msg Message) {
	for _, conn := range s.conns {
		if !conn.Send(msg) {
			r.log.Warn("Dropping message for unresponsive connection", "name", s.name)
			conn.Close()
		}
	}
}
