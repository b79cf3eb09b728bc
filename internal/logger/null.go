package logger

// NullLogger discards everything. It is the default until an option
// installs a real logger.
type NullLogger struct{}

var _ Logger = (*NullLogger)(nil)

func (NullLogger) Successf(_ string, _ ...interface{}) {}

func (NullLogger) Debugf(_ string, _ ...interface{}) {}

func (NullLogger) SQL(_ string, _ ...interface{}) {}

func (NullLogger) Error(_ error) {}
