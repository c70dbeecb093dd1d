package guard

import "errors"

// ErrFatalConfiguration means the declared run mode is production on a
// platform with a known persistent mount, and the configured database path
// points outside it. Booting anyway would accept silent data loss, so the
// guard refuses to continue.
var ErrFatalConfiguration = errors.New("fatal configuration: database path is outside the persistent mount")

// ErrSchemaCreation means one or more domain tables are still missing
// after schema creation. The application cannot serve correctly without
// them, so boot fails.
var ErrSchemaCreation = errors.New("schema creation failed: expected tables missing")

// ErrSnapshotFailed means a safety snapshot could not be taken. It is
// logged and degrades backup coverage but never blocks boot.
var ErrSnapshotFailed = errors.New("snapshot failed")
