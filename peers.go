package main

import (
	"strconv"
	"strings"

	"github.com/gotd/td/tg"
)

// peerRegistry maps dialog ids to the input peers follow-up calls need.
// Access hashes only arrive with the dialog listing, so the registry is
// (re)built from each listing and consulted by every later fetch.
type peerRegistry map[int64]tg.InputPeerClass

// dialogPeerIDs collects the peer ids of the actual dialogs in a listing.
// The listing also carries entities that are merely referenced (e.g. linked
// chats); those must not become mirrored channels.
func dialogPeerIDs(dialogs []tg.DialogClass) map[int64]bool {
	ids := make(map[int64]bool, len(dialogs))
	for _, d := range dialogs {
		dlg, ok := d.(*tg.Dialog)
		if !ok {
			continue
		}
		ids[peerID(dlg.Peer)] = true
	}
	return ids
}

// peerID extracts the bare platform id from a peer.
func peerID(p tg.PeerClass) int64 {
	switch v := p.(type) {
	case *tg.PeerUser:
		return v.UserID
	case *tg.PeerChat:
		return v.ChatID
	case *tg.PeerChannel:
		return v.ChannelID
	}
	return 0
}

// channelsFromEntities maps the entity lists of a dialog listing to Channel
// values, keeping only entities that are dialogs, and registers each one's
// input peer. Kind strings mirror the platform's entity classes.
func channelsFromEntities(chats []tg.ChatClass, users []tg.UserClass, dialogIDs map[int64]bool, peers peerRegistry) []Channel {
	out := make([]Channel, 0, len(chats)+len(users))

	for _, c := range chats {
		switch v := c.(type) {
		case *tg.Chat:
			if !dialogIDs[v.ID] {
				continue
			}
			peers[v.ID] = &tg.InputPeerChat{ChatID: v.ID}
			out = append(out, Channel{ID: v.ID, Title: v.Title, Kind: "Chat"})
		case *tg.Channel:
			if !dialogIDs[v.ID] {
				continue
			}
			hash, _ := v.GetAccessHash()
			peers[v.ID] = &tg.InputPeerChannel{ChannelID: v.ID, AccessHash: hash}
			out = append(out, Channel{ID: v.ID, Title: v.Title, Kind: "Channel"})
		}
		// Forbidden chats and channels are dialogs the account lost access
		// to; they cannot be fetched, so they are not listed.
	}

	for _, u := range users {
		v, ok := u.(*tg.User)
		if !ok || !dialogIDs[v.ID] {
			continue
		}
		hash, _ := v.GetAccessHash()
		peers[v.ID] = &tg.InputPeerUser{UserID: v.ID, AccessHash: hash}
		out = append(out, Channel{ID: v.ID, Title: userTitle(v), Kind: "User"})
	}

	return out
}

// userTitle builds a display title for a user dialog, whose entity has no
// title of its own.
func userTitle(u *tg.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if username, ok := u.GetUsername(); ok && username != "" {
		return username
	}
	return strconv.FormatInt(u.ID, 10)
}
