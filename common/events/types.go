package events

import "fmt"

const (
	// Streams
	ArenaFullStream = "ARENA_FULL"

	// Redis pub/sub channel carrying full arena documents.
	ArenaFullChannel = "http-out"

	// Event Wildcards
	ArenaFullWildcard = "arena.full.*"
)

// ArenaFullSubject is the per-arena subject. Publishing every arena on its
// own subject lets an ordered consumer replay just the latest document of
// each arena after a reconnect.
func ArenaFullSubject(arenaID string) string {
	return fmt.Sprintf("arena.full.%s", arenaID)
}
