// Package knowledge resolves advisory knowledge topics (ATS guidance, CV structure
// guidance, bullet-style examples) to text, falling back from a remote source to
// local files.
package knowledge

import (
	"fmt"
	"strings"
)

// Topic identifies a knowledge document.
type Topic string

// Known topics
const (
	TopicATSTips         Topic = "ats_tips"
	TopicCVBestPractices Topic = "cv_best_practices"
	TopicBulletExamples  Topic = "bullet_examples"
)

// Topics returns every known topic in a stable order.
func Topics() []Topic {
	return []Topic{TopicATSTips, TopicCVBestPractices, TopicBulletExamples}
}

// ParseTopic converts a topic name into a Topic, rejecting unknown names.
func ParseTopic(name string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(name)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown knowledge topic %q", name)
	}
	return t, nil
}

// Valid reports whether t is a known topic.
func (t Topic) Valid() bool {
	for _, known := range Topics() {
		if t == known {
			return true
		}
	}
	return false
}

// Filename returns the file name the topic is stored under.
func (t Topic) Filename() string {
	return string(t) + ".md"
}
