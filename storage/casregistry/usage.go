package casregistry

// Usage restricts which programs accept a given backend.
type Usage uint8

const (
	// UsageCLI marks backends available to command-line tools such as
	// xdao-assets.
	UsageCLI Usage = 1 << iota
	// UsageDaemon marks backends a long-running server such as
	// xdao-casgrpcd may serve from.
	UsageDaemon
)

func (u Usage) allows(want Usage) bool { return u&want != 0 }
