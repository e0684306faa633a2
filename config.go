package depot

import "go.uber.org/zap"

// Config holds package-level settings. Set them before creating storages;
// storages capture the logger at construction.
var Config = config{
	logger: zap.NewNop(),
}

type config struct {
	logger             *zap.Logger
	trackCallers       bool
	onArchetypeCreated func(ArchetypeID)
}

// SetLogger replaces the logger used by storages created afterwards.
func (c *config) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	c.logger = l
}

// SetTrackCallers toggles recording the call site of every component write.
// Useful when debugging which system last touched a value; costs a
// runtime.Caller per write.
func (c *config) SetTrackCallers(track bool) {
	c.trackCallers = track
}

// SetArchetypeCreatedCallback installs a callback fired whenever any storage
// interns a new archetype.
func (c *config) SetArchetypeCreatedCallback(fn func(ArchetypeID)) {
	c.onArchetypeCreated = fn
}
