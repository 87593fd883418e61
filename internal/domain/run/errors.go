package run

import "equitydesk/pkg/errors"

// ErrHistoryDisabled is returned by lookups when run history is not persisted
var ErrHistoryDisabled = errors.Wrap(errors.ErrUnavailable, "run history is not configured")
