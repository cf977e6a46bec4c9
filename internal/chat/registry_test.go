package chat

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Join_Creates_Session_With_Identity_As_Name(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)

	registry.Join("alice", &fakeConn{})

	name, ok := registry.Name("alice")
	req.True(ok)
	req.Equal("alice", name)
	req.Equal([]string{"alice"}, registry.Members())
}

func TestRegistry_Join_Announces_To_Others_Only(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice, bob := &fakeConn{}, &fakeConn{}

	registry.Join("alice", alice)
	registry.Join("bob", bob)

	req.Equal([]Message{{Sender: LabelServer, Content: "Member joined: bob"}}, alice.received())
	req.Empty(bob.received())
}

func TestRegistry_Join_Second_Connection_Is_Silent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice, bob1, bob2 := &fakeConn{}, &fakeConn{}, &fakeConn{}

	registry.Join("alice", alice)
	registry.Join("bob", bob1)
	alice.reset()

	registry.Join("bob", bob2)

	req.Empty(alice.received())
	req.Equal(2, registry.Count())
	req.Equal(2, registry.ConnectionCount("bob"))
}

func TestRegistry_Leave_Last_Connection_Removes_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice, bob1, bob2 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	registry.Join("alice", alice)
	registry.Join("bob", bob1)
	registry.Join("bob", bob2)
	alice.reset()

	// When one of two connections leaves, the session stays
	registry.Leave("bob", bob1)
	req.Equal([]string{"alice", "bob"}, registry.Members())
	req.Empty(alice.received())

	// When the last one leaves, the session is gone and the others are told
	registry.Leave("bob", bob2)
	req.Equal([]string{"alice"}, registry.Members())
	req.Equal([]Message{{Sender: LabelServer, Content: "Member left: bob"}}, alice.received())
}

func TestRegistry_Leave_Unknown_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice := &fakeConn{}
	registry.Join("alice", alice)

	req.NotPanics(func() {
		registry.Leave("nobody", &fakeConn{})
		registry.Leave("alice", &fakeConn{})
	})
	req.Equal([]string{"alice"}, registry.Members())
}

func TestRegistry_Presence_Matches_Open_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	conns := make(map[string]*fakeConn)

	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("user-%d", i)
		conns[id] = &fakeConn{}
		registry.Join(id, conns[id])
	}
	for i := 0; i < 10; i += 2 {
		id := fmt.Sprintf("user-%d", i)
		registry.Leave(id, conns[id])
		delete(conns, id)
	}

	req.ElementsMatch(keys(conns), registry.Members())
}

func TestRegistry_Rename_Rejects_Empty_Names(t *testing.T) {
	for _, name := range []string{"", "  ", "\t\n"} {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			req := require.New(t)
			registry := NewRegistry(nil)
			alice, bob := &fakeConn{}, &fakeConn{}
			registry.Join("alice", alice)
			registry.Join("bob", bob)
			alice.reset()

			err := registry.Rename("alice", name)

			req.ErrorIs(err, ErrEmptyName)
			req.Equal([]Message{{Sender: LabelHelp, Content: "/user [newName]"}}, alice.received())
			req.Empty(bob.received())
		})
	}
}

func TestRegistry_Rename_Rejects_Long_Names(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice := &fakeConn{}
	registry.Join("alice", alice)

	err := registry.Rename("alice", strings.Repeat("x", MaxNameLength+1))

	req.ErrorIs(err, ErrNameTooLong)
	req.NotErrorIs(err, ErrEmptyName)
	req.Equal([]Message{{Sender: LabelHelp, Content: "new name is too long: 50 characters limit"}}, alice.received())

	name, _ := registry.Name("alice")
	req.Equal("alice", name)
}

func TestRegistry_Rename_Counts_Characters_Not_Bytes(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	registry.Join("alice", &fakeConn{})

	req.NoError(registry.Rename("alice", strings.Repeat("é", MaxNameLength)))
}

func TestRegistry_Rename_Broadcasts_To_Everyone(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice, bob := &fakeConn{}, &fakeConn{}
	registry.Join("alice", alice)
	registry.Join("bob", bob)
	alice.reset()

	req.NoError(registry.Rename("alice", "  Alice Liddell  "))

	expected := []Message{{Sender: LabelServer, Content: "alice renamed to Alice Liddell"}}
	req.Equal(expected, alice.received())
	req.Equal(expected, bob.received())

	// Then the new name is visible in who
	alice.reset()
	registry.Who("alice")
	req.Equal([]Message{{Sender: LabelWho, Content: "Alice Liddell, bob"}}, alice.received())
}

func TestRegistry_Rename_Unknown_Identity(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)

	req.NoError(registry.Rename("ghost", "Casper"))
	req.ErrorIs(registry.Rename("ghost", ""), ErrEmptyName)
	req.Zero(registry.Count())
}

func TestRegistry_Message_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice, bob, carol := &fakeConn{}, &fakeConn{}, &fakeConn{}
	registry.Join("alice", alice)
	registry.Join("bob", bob)
	registry.Join("carol", carol)
	alice.reset()
	bob.reset()
	carol.reset()
	req.NoError(registry.Rename("alice", "Al"))
	alice.reset()
	bob.reset()
	carol.reset()

	registry.Message("alice", "hi")

	req.Empty(alice.received())
	req.Equal([]Message{{Sender: "Al", Content: "hi"}}, bob.received())
	req.Equal([]Message{{Sender: "Al", Content: "hi"}}, carol.received())
}

func TestRegistry_Empty_Identity_Is_Not_Echoed(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	anon, bob := &fakeConn{}, &fakeConn{}

	// Given a session whose identity is the empty string
	registry.Join("bob", bob)
	registry.Join("", anon)

	// When it speaks
	registry.Message("", "hi")

	// Then only the others hear its join and its message
	req.Empty(anon.received())
	req.Equal([]Message{
		{Sender: LabelServer, Content: "Member joined: "},
		{Sender: "", Content: "hi"},
	}, bob.received())
}

func TestRegistry_Message_Reaches_Every_Connection_Of_Recipient(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice, bob1, bob2 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	registry.Join("alice", alice)
	registry.Join("bob", bob1)
	registry.Join("bob", bob2)

	registry.Message("alice", "hi")

	req.Contains(bob1.received(), Message{Sender: "alice", Content: "hi"})
	req.Contains(bob2.received(), Message{Sender: "alice", Content: "hi"})
}

func TestRegistry_Who_Lists_Every_Name_Once(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice := &fakeConn{}
	registry.Join("alice", alice)
	registry.Join("bob", &fakeConn{})
	registry.Join("bob", &fakeConn{})
	registry.Join("carol", &fakeConn{})
	alice.reset()

	registry.Who("alice")

	received := alice.received()
	req.Len(received, 1)
	req.Equal(LabelWho, received[0].Sender)
	req.ElementsMatch([]string{"alice", "bob", "carol"}, strings.Split(received[0].Content, ", "))
}

func TestRegistry_Help_Lists_Commands(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice := &fakeConn{}
	registry.Join("alice", alice)

	registry.Help("alice")

	received := alice.received()
	req.Len(received, 1)
	req.Equal(LabelHelp, received[0].Sender)
	for _, command := range []string{"/who", "/user [newName]", "/help"} {
		req.Contains(received[0].Content, command)
	}
}

func TestRegistry_SendTo_Missing_Session_Is_Dropped(t *testing.T) {
	registry := NewRegistry(nil)
	require.NotPanics(t, func() {
		registry.SendTo("nobody", LabelHelp, "hello?")
	})
}

func TestRegistry_Unresponsive_Connection_Is_Closed(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	alice, bob := &fakeConn{}, &fakeConn{full: true}
	registry.Join("alice", alice)
	registry.Join("bob", bob)

	registry.Message("alice", "anyone there?")

	req.True(bob.isClosed())
	req.False(alice.isClosed())
}

func TestRegistry_Concurrent_Operations(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(nil)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i)
			conn := &fakeConn{}
			registry.Join(id, conn)
			registry.Message(id, "hello")
			_ = registry.Rename(id, fmt.Sprintf("name-%d", i))
			registry.Who(id)
			if i%2 == 0 {
				registry.Leave(id, conn)
			}
		}(i)
	}
	wg.Wait()

	req.Equal(10, registry.Count())
	for _, name := range registry.Names() {
		req.True(strings.HasPrefix(name, "name-"))
	}
}

func keys(m map[string]*fakeConn) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
