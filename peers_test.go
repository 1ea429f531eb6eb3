package main

import (
	"testing"

	"github.com/gotd/td/tg"
)

func TestChannelsFromEntities(t *testing.T) {
	dialogs := []tg.DialogClass{
		&tg.Dialog{Peer: &tg.PeerChannel{ChannelID: 10}},
		&tg.Dialog{Peer: &tg.PeerChat{ChatID: 20}},
		&tg.Dialog{Peer: &tg.PeerUser{UserID: 30}},
	}

	broadcast := &tg.Channel{ID: 10, Title: "News"}
	broadcast.SetAccessHash(111)
	// Entity referenced by the listing but not itself a dialog.
	linked := &tg.Channel{ID: 99, Title: "Linked Discussion"}
	linked.SetAccessHash(999)

	user := &tg.User{ID: 30, FirstName: "Ada", LastName: "Lovelace"}
	user.SetAccessHash(333)

	chats := []tg.ChatClass{
		broadcast,
		&tg.Chat{ID: 20, Title: "Group"},
		linked,
		&tg.ChatForbidden{ID: 50, Title: "Lost"},
	}
	users := []tg.UserClass{user}

	peers := peerRegistry{}
	got := channelsFromEntities(chats, users, dialogPeerIDs(dialogs), peers)

	want := map[int64]Channel{
		10: {ID: 10, Title: "News", Kind: "Channel"},
		20: {ID: 20, Title: "Group", Kind: "Chat"},
		30: {ID: 30, Title: "Ada Lovelace", Kind: "User"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d channels, want %d: %+v", len(got), len(want), got)
	}
	for _, c := range got {
		if want[c.ID] != c {
			t.Errorf("channel %d = %+v, want %+v", c.ID, c, want[c.ID])
		}
		if peers[c.ID] == nil {
			t.Errorf("channel %d has no registered input peer", c.ID)
		}
	}
	if peers[99] != nil {
		t.Error("non-dialog entity ended up in the peer registry")
	}

	if p, ok := peers[10].(*tg.InputPeerChannel); !ok || p.AccessHash != 111 {
		t.Errorf("channel peer = %+v, want InputPeerChannel with hash 111", peers[10])
	}
	if p, ok := peers[30].(*tg.InputPeerUser); !ok || p.AccessHash != 333 {
		t.Errorf("user peer = %+v, want InputPeerUser with hash 333", peers[30])
	}
}

func TestUserTitle(t *testing.T) {
	withUsername := &tg.User{ID: 1}
	withUsername.SetUsername("ada")

	cases := []struct {
		name string
		user *tg.User
		want string
	}{
		{"first and last", &tg.User{ID: 1, FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"first only", &tg.User{ID: 1, FirstName: "Ada"}, "Ada"},
		{"username fallback", withUsername, "ada"},
		{"id fallback", &tg.User{ID: 424242}, "424242"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := userTitle(tc.user); got != tc.want {
				t.Errorf("userTitle = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPeerID(t *testing.T) {
	cases := []struct {
		peer tg.PeerClass
		want int64
	}{
		{&tg.PeerUser{UserID: 1}, 1},
		{&tg.PeerChat{ChatID: 2}, 2},
		{&tg.PeerChannel{ChannelID: 3}, 3},
	}
	for _, tc := range cases {
		if got := peerID(tc.peer); got != tc.want {
			t.Errorf("peerID(%T) = %d, want %d", tc.peer, got, tc.want)
		}
	}
}
