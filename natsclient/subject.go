package natsclient

import "strings"

// Dashboard topics use "/" as the level separator while NATS subjects use
// ".". Topics must not contain dots; config validation enforces this.

// TopicToSubject converts a slash-separated topic to a NATS subject.
func TopicToSubject(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

// SubjectToTopic converts a NATS subject back to a slash-separated topic.
func SubjectToTopic(subject string) string {
	return strings.ReplaceAll(subject, ".", "/")
}

// WildcardSubject returns the subject matching every topic below base,
// at any depth.
func WildcardSubject(base string) string {
	return TopicToSubject(base) + ".>"
}
