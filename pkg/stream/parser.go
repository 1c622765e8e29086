package stream

import "strings"

// TagConfig is the delimiter pair separating reasoning from answer text in a
// model's streamed output. An empty prefix or suffix disables extraction and
// routes everything to the answer channel.
type TagConfig struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

// DefaultTags matches the common <think> convention.
var DefaultTags = TagConfig{Prefix: "<think>", Suffix: "</think>"}

func (c TagConfig) enabled() bool {
	return c.Prefix != "" && c.Suffix != ""
}

// State is the parser position between chunks. Buffer only ever holds a
// proper prefix of a delimiter that may still complete in the next chunk,
// never a whole one.
type State struct {
	IsThinking bool   `json:"is_thinking"`
	Buffer     string `json:"buffer"`
}

// ProcessChunk consumes one network chunk and splits it into answer and
// reasoning text. The returned state must be threaded into the next call;
// a delimiter split across chunks is held back until it either completes or
// turns out to be plain text.
func ProcessChunk(s State, chunk string, tags TagConfig) (State, string, string) {
	if !tags.enabled() {
		out := s.Buffer + chunk
		s.Buffer = ""
		return s, out, ""
	}

	data := s.Buffer + chunk
	s.Buffer = ""

	var text, reasoning strings.Builder
	for data != "" {
		tag := tags.Prefix
		out := &text
		if s.IsThinking {
			tag = tags.Suffix
			out = &reasoning
		}

		if i := strings.Index(data, tag); i >= 0 {
			out.WriteString(data[:i])
			data = data[i+len(tag):]
			s.IsThinking = !s.IsThinking
			continue
		}

		if p := partialTail(data, tag); p > 0 {
			out.WriteString(data[:len(data)-p])
			s.Buffer = data[len(data)-p:]
		} else {
			out.WriteString(data)
		}
		data = ""
	}
	return s, text.String(), reasoning.String()
}

// partialTail returns the length of the longest non-empty proper prefix of
// tag sitting at the end of data, zero if none.
func partialTail(data, tag string) int {
	limit := min(len(tag)-1, len(data))
	for l := limit; l > 0; l-- {
		if strings.HasSuffix(data, tag[:l]) {
			return l
		}
	}
	return 0
}
