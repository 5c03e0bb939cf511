// Package session manages the lifecycle of running rail games.
//
// Manager keeps sessions in memory under case-insensitive IDs (random
// 4-hex IDs when none is given) and, when constructed with a
// SessionPersistence, writes each session through on creation and on
// explicit Save. Evict saves a session and drops it from memory; it is
// restored transparently by the next Get. PruneDeleted forgets sessions whose
// stored copy was removed out of band.
//
// Two stores are provided:
//
//   - FilePersistence writes one JSON file per session under a directory.
//   - GormPersistence upserts rows into the Postgres table rail_sessions.
//
// Both store an engine.Snapshot plus the config ID the session was created
// from. Loading reloads that config through the service.ConfigManager and
// rebuilds the engine with engine.RestoreEngine, which rejects snapshots whose
// stored track connectivity disagrees with the recomputed one.
//
// Usage:
//
//	store, err := session.NewFilePersistence("sessions", configs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
//	sess, err := manager.Create("", configs.GetDefault())
package session
