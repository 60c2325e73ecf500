// Package state manages installation state and patch history persistence.
//
// The state package provides abstractions for storing and retrieving the
// record of what patchkit has done to an installation: the installed version
// and active patches of every stream, and one history record per applied
// patch holding the modifications it made and the rollback entries needed to
// reverse them.
//
// Key concepts:
//   - InstallationState: the streams of an installation (installation.toml)
//   - StreamState: version, active patches and application log of one stream
//   - PatchRecord: history of one applied patch (history.json)
//   - StateStore: Interface for persisting and loading state
package state
