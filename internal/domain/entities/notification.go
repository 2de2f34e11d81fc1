package entities

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	// TimeLayout renders a notification timestamp
	TimeLayout = "2006-01-02 15:04:05"
	// DateLayout is the calendar date used by date range filters
	DateLayout = "2006-01-02"
)

// NotificationKind discriminates the two notification variants
type NotificationKind string

const (
	NotificationKindSystem NotificationKind = "system"
	NotificationKindCamera NotificationKind = "camera"
)

// Trigger is what caused a camera event. Values outside the known set are
// kept verbatim and treated as continuous recordings.
type Trigger string

const (
	TriggerMotion     Trigger = "motion"
	TriggerDoorbell   Trigger = "doorbell"
	TriggerContinuous Trigger = "continuous"
)

// Suffix returns the file name marker for the trigger
func (t Trigger) Suffix() string {
	switch t {
	case TriggerMotion:
		return "_m"
	case TriggerDoorbell:
		return "_d"
	default:
		return "_c"
	}
}

// RecordType is the kind of media attached to a camera event
type RecordType string

const (
	RecordTypeVideo    RecordType = "Video"
	RecordTypeSnapshot RecordType = "Snapshot"
)

// Extension returns the media file extension for the record type
func (r RecordType) Extension() string {
	if r == RecordTypeVideo {
		return "mp4"
	}
	return "jpeg"
}

// Storing reports whether media of this type is kept on disk
func (r RecordType) Storing() bool {
	return r == RecordTypeVideo || r == RecordTypeSnapshot
}

// SystemDetails holds the fields of a system notification
type SystemDetails struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// CameraDetails holds the fields of a camera notification
type CameraDetails struct {
	Camera        string     `json:"camera"`
	FileName      string     `json:"fileName"`
	Name          string     `json:"name"`
	Extension     string     `json:"extension"`
	RecordStoring bool       `json:"recordStoring"`
	RecordType    RecordType `json:"recordType"`
	Trigger       Trigger    `json:"trigger"`
	Room          string     `json:"room"`
}

// Notification is a stored event. Exactly one of SystemDetails and
// CameraDetails is set; their fields are flattened into the JSON record.
type Notification struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Time      string `json:"time"`
	Timestamp int64  `json:"timestamp"`

	*SystemDetails
	*CameraDetails
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// FormatTime renders an epoch timestamp in loc
func FormatTime(timestamp int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(timestamp, 0).In(loc).Format(TimeLayout)
}

// FileBaseName derives the media base name of a camera event, for example
// "Front_Door-abc123def0-1700000000_m_CUI"
func FileBaseName(camera, id string, timestamp int64, trigger Trigger) string {
	return whitespaceRun.ReplaceAllString(camera, "_") +
		"-" + id +
		"-" + strconv.FormatInt(timestamp, 10) +
		trigger.Suffix() + "_CUI"
}

// NewSystemNotification creates a system notification
func NewSystemNotification(id, label string, timestamp int64, loc *time.Location, title, message string) *Notification {
	return &Notification{
		ID:        id,
		Label:     label,
		Time:      FormatTime(timestamp, loc),
		Timestamp: timestamp,
		SystemDetails: &SystemDetails{
			Title:   title,
			Message: message,
		},
	}
}

// NewCameraNotification creates a camera notification with its media file
// names derived from camera, id, timestamp and trigger
func NewCameraNotification(id, label string, timestamp int64, loc *time.Location, camera, room string, trigger Trigger, recordType RecordType) *Notification {
	name := FileBaseName(camera, id, timestamp, trigger)
	ext := recordType.Extension()

	return &Notification{
		ID:        id,
		Label:     label,
		Time:      FormatTime(timestamp, loc),
		Timestamp: timestamp,
		CameraDetails: &CameraDetails{
			Camera:        camera,
			FileName:      name + "." + ext,
			Name:          name,
			Extension:     ext,
			RecordStoring: recordType.Storing(),
			RecordType:    recordType,
			Trigger:       trigger,
			Room:          room,
		},
	}
}

// Kind returns which variant the notification is
func (n *Notification) Kind() NotificationKind {
	if n.CameraDetails != nil {
		return NotificationKindCamera
	}
	return NotificationKindSystem
}

// IsCamera reports whether n is a camera notification
func (n *Notification) IsCamera() bool {
	return n.Kind() == NotificationKindCamera
}

// CameraName returns the camera of a camera notification, or ""
func (n *Notification) CameraName() string {
	if n.CameraDetails == nil {
		return ""
	}
	return n.CameraDetails.Camera
}

// RoomName returns the room of a camera notification, or ""
func (n *Notification) RoomName() string {
	if n.CameraDetails == nil {
		return ""
	}
	return n.CameraDetails.Room
}

// Type returns the record type of a camera notification, or ""
func (n *Notification) Type() RecordType {
	if n.CameraDetails == nil {
		return ""
	}
	return n.CameraDetails.RecordType
}

// Date returns the calendar date of the notification in loc. The stored
// time field is authoritative; the timestamp is used if it is malformed.
func (n *Notification) Date(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if len(n.Time) >= len(DateLayout) {
		if d, err := time.ParseInLocation(DateLayout, n.Time[:len(DateLayout)], loc); err == nil {
			return d
		}
	}
	t := time.Unix(n.Timestamp, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// MediaSource returns the path of the media preview for the alert: an
// alternate thumbnail for videos, the file itself for snapshots, and ""
// when nothing is stored
func (n *Notification) MediaSource() string {
	if n.CameraDetails == nil || !n.CameraDetails.RecordStoring {
		return ""
	}
	if n.CameraDetails.RecordType == RecordTypeVideo {
		return "/files/" + n.CameraDetails.Name + "@2.jpeg"
	}
	return "/files/" + n.CameraDetails.FileName
}

// Validate checks the structural invariants of a notification
func (n *Notification) Validate() error {
	if n.ID == "" {
		return errors.New("notification id is required")
	}
	if n.SystemDetails != nil && n.CameraDetails != nil {
		return fmt.Errorf("notification %s has both system and camera details", n.ID)
	}
	if n.SystemDetails == nil && n.CameraDetails == nil {
		return fmt.Errorf("notification %s has neither system nor camera details", n.ID)
	}
	if n.CameraDetails != nil && n.CameraDetails.Camera == "" {
		return fmt.Errorf("camera notification %s has no camera", n.ID)
	}
	return nil
}
