package entities

// Alert is the human-readable copy of a notification handed to alert sinks
type Alert struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Time           string `json:"time"`
	Timestamp      int64  `json:"timestamp"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Subtext        string `json:"subtxt,omitempty"`
	MediaSource    string `json:"mediaSource,omitempty"`
	Count          bool   `json:"count"`
	IsNotification bool   `json:"isNotification"`

	*CameraDetails
}
