package lorebook

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"fable/pkg/schema"
	"fable/pkg/tokens"
)

// Library fetches lorebooks by ID. Implemented by the persistence
// collaborator; the resolver never writes through it.
type Library interface {
	Lorebook(ctx context.Context, id string) (*schema.Lorebook, error)
}

// Message is a triggered entry routed into the turn list at a depth, the same
// way a depth-positioned custom prompt is.
type Message struct {
	Role    schema.Speaker
	Depth   int
	Content string
}

// Result carries everything the resolver selected: the two replacement
// strings for the lorebook-top/lorebook-bottom template sections and the
// pending positional messages.
type Result struct {
	Top      string
	Bottom   string
	Messages []Message
}

type Resolver struct {
	library Library
	counter tokens.Counter
}

func NewResolver(library Library, counter tokens.Counter) *Resolver {
	return &Resolver{library: library, counter: counter}
}

// Resolve walks bookIDs in order, triggering entries against the assembled
// turns and greedily including them while both the global budget and each
// book's own allowance hold out. Books that cannot be fetched are skipped.
func (r *Resolver) Resolve(ctx context.Context, bookIDs []string, budget int, turns []schema.Turn, separator string) (*Result, error) {
	if separator == "" {
		separator = "\n"
	}

	result := &Result{}
	var topParts, bottomParts []string

	for _, id := range dedupe(bookIDs) {
		if budget <= 0 {
			break
		}

		book, err := r.library.Lorebook(ctx, id)
		if err != nil {
			log.Warn("skipping unresolvable lorebook", "lorebook", id, "error", err)
			continue
		}

		triggered := trigger(book.Entries, turns)
		slices.SortStableFunc(triggered, func(a, b schema.LorebookEntry) int {
			return b.Priority - a.Priority
		})

		bookBudget := book.MaxTokens
		if bookBudget <= 0 {
			bookBudget = budget
		}

		for _, entry := range triggered {
			switch entry.InsertionType {
			case schema.InsertLorebookTop, schema.InsertLorebookBottom,
				schema.InsertUser, schema.InsertAssistant:
			default:
				log.Warn("skipping lorebook entry with unknown insertion type",
					"lorebook", id, "entry", entry.ID, "insertion_type", entry.InsertionType)
				continue
			}

			cost, err := r.counter.Count(entry.Content, tokens.Estimate)
			if err != nil {
				return nil, err
			}
			if cost > budget || cost > bookBudget {
				continue
			}
			budget -= cost
			bookBudget -= cost

			switch entry.InsertionType {
			case schema.InsertLorebookTop:
				topParts = append(topParts, entry.Content)
			case schema.InsertLorebookBottom:
				bottomParts = append(bottomParts, entry.Content)
			case schema.InsertUser:
				result.Messages = append(result.Messages, Message{
					Role: schema.SpeakerUser, Depth: entry.Depth, Content: entry.Content,
				})
			case schema.InsertAssistant:
				result.Messages = append(result.Messages, Message{
					Role: schema.SpeakerAssistant, Depth: entry.Depth, Content: entry.Content,
				})
			}
		}
	}

	result.Top = strings.Join(topParts, separator)
	result.Bottom = strings.Join(bottomParts, separator)
	return result, nil
}

// dedupe keeps the first occurrence of each ID so every book is fetched once.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func trigger(entries []schema.LorebookEntry, turns []schema.Turn) []schema.LorebookEntry {
	var out []schema.LorebookEntry
	for _, entry := range entries {
		if !entry.Enabled {
			continue
		}
		if entry.Constant {
			if len(turns) >= entry.MinChatMessages {
				out = append(out, entry)
			}
			continue
		}
		window := turns
		if entry.Depth > 0 && entry.Depth < len(turns) {
			window = turns[len(turns)-entry.Depth:]
		}
		if matches(entry, window) {
			out = append(out, entry)
		}
	}
	return out
}

func matches(entry schema.LorebookEntry, window []schema.Turn) bool {
	for _, turn := range window {
		for _, keyword := range entry.Keywords {
			if keyword == "" {
				continue
			}
			if matchKeyword(turn.Text, keyword, entry.CaseSensitive, entry.MatchPartialWords) {
				return true
			}
		}
	}
	return false
}

func matchKeyword(text, keyword string, caseSensitive, partial bool) bool {
	if partial {
		if caseSensitive {
			return strings.Contains(text, keyword)
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
	}
	pattern := `\b` + regexp.QuoteMeta(keyword) + `\b`
	if !caseSensitive {
		pattern = `(?i)` + pattern
	}
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return rx.MatchString(text)
}
