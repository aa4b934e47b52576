package domain

// Room identifiers. A room is a transient broadcast group of live
// connections; subscriber sets are rebuilt on every reconnect and never
// persisted. Three kinds exist: the personal room every authenticated
// connection joins, one room per chat, and one room per group.

func PersonalRoom(userID string) string { return "user:" + userID }

func ChatRoom(chatID string) string { return "chat:" + chatID }

func GroupRoom(groupID string) string { return "group:" + groupID }
