// Package state provides a keyed, in-memory session store for Telegram
// conversations. Access to a single key is serialized so a read-modify-write
// of one user's session cannot interleave with another for the same user,
// while different users proceed in parallel. Sessions are not persisted.
package state
