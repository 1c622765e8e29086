package prompt

import (
	"errors"
	"slices"

	"fable/pkg/schema"
	"fable/pkg/tokens"
)

// ErrNoRoom is fatal: the configured context, response, and depth limits
// leave no space for a single chat message.
var ErrNoRoom = errors.New("context window cannot fit any chat message; raise max context tokens or lower the response reserve and message depth")

// refineWindow is how many of the most recent turns get re-counted with the
// precise tokenizer when the estimate lands near the budget boundary.
const refineWindow = 3

// trimTurns keeps the most recent turns that fit the context budget, capped
// at maxDepth. The system prompt is always counted precisely; turns use the
// cheap estimator first and only the newest few are re-tokenized when the
// total comes within 90% of the budget. maxDepth <= 0 means no depth cap.
func trimTurns(turns []schema.Turn, systemPrompt string, counter tokens.Counter, maxContext, maxResponse, maxDepth int) ([]schema.Turn, error) {
	systemCost, err := counter.Count(systemPrompt, tokens.Precise)
	if err != nil {
		return nil, err
	}
	budget := maxContext - maxResponse - systemCost

	// Newest first; costs tracks the counted cost per included turn.
	var included []schema.Turn
	var costs []int
	total := 0
	for i := len(turns) - 1; i >= 0; i-- {
		if maxDepth > 0 && len(included) == maxDepth {
			break
		}
		cost, err := counter.Count(turns[i].Text, tokens.Estimate)
		if err != nil {
			return nil, err
		}
		if total+cost > budget {
			break
		}
		included = append(included, turns[i])
		costs = append(costs, cost)
		total += cost
	}

	if total*10 >= budget*9 {
		for i := 0; i < len(included) && i < refineWindow; i++ {
			precise, err := counter.Count(included[i].Text, tokens.Precise)
			if err != nil {
				return nil, err
			}
			total += precise - costs[i]
			costs[i] = precise
		}
		for total > budget && len(included) > 0 {
			total -= costs[len(included)-1]
			included = included[:len(included)-1]
			costs = costs[:len(costs)-1]
		}
	}

	if len(included) == 0 {
		return nil, ErrNoRoom
	}

	slices.Reverse(included)
	return included, nil
}
