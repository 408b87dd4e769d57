package mqtt

import "fmt"

// TopicRoot is the first level of every topic graphd publishes.
const TopicRoot = "graph"

// Topics builds the MQTT topics for one project. Using these helpers keeps
// topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{Project: "line-a"}
//	topics.Event("device.rename")
//	// Returns: "graph/line-a/event/device.rename"
type Topics struct {
	Project string
}

func (t Topics) base() string {
	return fmt.Sprintf("%s/%s", TopicRoot, t.Project)
}

// Event returns the topic for commit events of one operation.
//
// Example: graph/line-a/event/connection.add
func (t Topics) Event(op string) string {
	return fmt.Sprintf("%s/event/%s", t.base(), op)
}

// Summary returns the retained graph summary topic.
//
// Example: graph/line-a/summary
func (t Topics) Summary() string {
	return fmt.Sprintf("%s/summary", t.base())
}

// SummaryRequest is where clients ask for the summary to be republished.
//
// Example: graph/line-a/request/summary
func (t Topics) SummaryRequest() string {
	return fmt.Sprintf("%s/request/summary", t.base())
}

// Status returns the retained online/offline status topic, also used as
// the Last Will topic.
//
// Example: graph/line-a/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/status", t.base())
}

// AllEvents returns a pattern matching every event of the project.
//
// Pattern: graph/line-a/event/+
func (t Topics) AllEvents() string {
	return fmt.Sprintf("%s/event/+", t.base())
}

// AllTopics returns a pattern matching every topic of the project.
//
// Pattern: graph/line-a/#
func (t Topics) AllTopics() string {
	return fmt.Sprintf("%s/#", t.base())
}
