package entities

// Camera is a registered camera. Only the name is interpreted here; other
// fields stored alongside it are left untouched.
type Camera struct {
	Name string `json:"name"`
}

// CameraSetting holds per-camera preferences
type CameraSetting struct {
	Name string `json:"name"`
	Room string `json:"room"`
}
