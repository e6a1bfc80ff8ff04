package logger

// NewNop returns a logger that discards everything. Tests use it to keep
// output quiet.
func NewNop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(msg string) {}
func (nopLogger) Info(msg string)  {}
func (nopLogger) Warn(msg string)  {}
func (nopLogger) Error(msg string) {}
func (nopLogger) Fatal(msg string) {}

func (n nopLogger) WithField(key string, value interface{}) Logger  { return n }
func (n nopLogger) WithFields(fields map[string]interface{}) Logger { return n }
func (n nopLogger) WithError(err error) Logger                      { return n }

func (nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
