// Package session owns the live games of the snake server.
//
// The session package implements:
//   - A registry (Manager) that creates a session on the first request for an
//     ID and hands every later request the same one
//   - A per-session Driver that advances the game on its tick interval
//   - Snapshot persistence through the SnapshotStore interface, with Redis,
//     file and best-effort implementations
//   - Idle eviction and orderly shutdown
//
// Concurrency:
//
// Each Session has one mutex that guards every engine call, whether it comes
// from a request or from the driver. Store I/O never happens while that lock
// is held: a snapshot is copied under the lock together with a version number
// and written afterwards. Writes for one session are serialized and older
// versions are dropped, so the store converges on the latest state.
//
// Consistency:
//
// The store is a write-behind channel. A session reads it exactly once, when
// it is created, and never again while its driver runs. Request-driven
// changes are written before the request returns; tick-driven changes are
// written by a background persister that coalesces bursts.
//
// Usage:
//
//	store := session.NewBestEffortStore(redisStore, 0, logger)
//	manager, err := session.NewManager(cfg,
//		session.WithStore(store, session.DefaultSnapshotTTL),
//		session.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	defer manager.Close(ctx)
//
//	sess, err := manager.Resolve(ctx, sessionID)
//	if err != nil {
//		return err
//	}
//	sess.Start(ctx)
//	view := sess.Render()
package session
