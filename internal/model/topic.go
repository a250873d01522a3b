package model

// Topic is one of the fixed practice topics a post can cover.
type Topic string

const (
	TopicBasics     Topic = "Basics"
	TopicSwing      Topic = "Swing"
	TopicSpins      Topic = "Spins"
	TopicConnection Topic = "Connection"
	TopicTiming     Topic = "Timing"
	TopicRockAndGo  Topic = "RockAndGo"
	TopicAnchor     Topic = "Anchor"
	TopicFootWork   Topic = "FootWork"
	TopicPattern    Topic = "Pattern"
	TopicBlues      Topic = "Blues"
)

// AllTopics lists every topic in display order.
func AllTopics() []Topic {
	return []Topic{
		TopicBasics, TopicSwing, TopicSpins, TopicConnection, TopicTiming,
		TopicRockAndGo, TopicAnchor, TopicFootWork, TopicPattern, TopicBlues,
	}
}

// ParseTopic maps a string, including common display spellings, to a topic.
// Unknown strings fall back to Basics.
func ParseTopic(s string) Topic {
	switch s {
	case "Basics":
		return TopicBasics
	case "Swing":
		return TopicSwing
	case "Spins":
		return TopicSpins
	case "Connection":
		return TopicConnection
	case "Timing":
		return TopicTiming
	case "RockAndGo", "Rock & Go", "Rock-and-Go":
		return TopicRockAndGo
	case "Anchor":
		return TopicAnchor
	case "FootWork", "Footwork", "Foot Work":
		return TopicFootWork
	case "Pattern", "Patterns":
		return TopicPattern
	case "Blues":
		return TopicBlues
	default:
		return TopicBasics
	}
}

// Display returns the human-readable form of the topic.
func (t Topic) Display() string {
	switch t {
	case TopicRockAndGo:
		return "Rock & Go"
	case TopicFootWork:
		return "Footwork"
	default:
		return string(t)
	}
}
