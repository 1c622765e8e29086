package macro

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fable/pkg/schema"
)

// Context supplies the values placeholders expand to. The zero value is
// usable: unmatched placeholders pass through untouched.
type Context struct {
	Character schema.Persona
	User      schema.Persona
	Chapter   schema.Chapter

	// Extra maps arbitrary keys to replacement values for {{key}}.
	Extra map[string]string

	CensorWords []string
	CensorMask  string

	// Now overrides the clock for date/time tokens. Nil means time.Now.
	Now func() time.Time
}

const defaultMask = "***"

// Expand runs the full placeholder pass sequence over text. Persona and
// chapter fields are themselves expanded first, so a personality that uses
// {{user}} is resolved before it lands in someone else's text.
func Expand(text string, ctx Context) string {
	return ctx.normalized().apply(text)
}

func (ctx Context) normalized() Context {
	n := ctx
	n.Character.Personality = ctx.apply(ctx.Character.Personality)
	n.User.Personality = ctx.apply(ctx.User.Personality)
	n.Chapter.Title = ctx.apply(ctx.Chapter.Title)
	n.Chapter.Scenario = ctx.apply(ctx.Chapter.Scenario)
	n.Chapter.Instructions = ctx.apply(ctx.Chapter.Instructions)
	return n
}

func (ctx Context) apply(text string) string {
	if text == "" {
		return ""
	}
	text = ctx.substituteNames(text)
	text = ctx.substituteExtra(text)
	text = expandChoices(text)
	text = expandRolls(text)
	text = expandDates(text, ctx.now())
	text = stripComments(text)
	text = ctx.censor(text)
	return text
}

func (ctx Context) now() time.Time {
	if ctx.Now != nil {
		return ctx.Now()
	}
	return time.Now()
}

func (ctx Context) substituteNames(text string) string {
	pairs := []struct{ token, value string }{
		{"{{char}}", ctx.Character.Name},
		{"{{character.name}}", ctx.Character.Name},
		{"{{character.personality}}", ctx.Character.Personality},
		{"{{user}}", ctx.User.Name},
		{"{{user.name}}", ctx.User.Name},
		{"{{user.personality}}", ctx.User.Personality},
		{"{{chapter.title}}", ctx.Chapter.Title},
		{"{{chapter.scenario}}", ctx.Chapter.Scenario},
		{"{{chapter.instructions}}", ctx.Chapter.Instructions},
	}
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		text = strings.ReplaceAll(text, p.token, p.value)
	}
	return text
}

func (ctx Context) substituteExtra(text string) string {
	for key, value := range ctx.Extra {
		rx, err := regexp.Compile(`\{\{` + regexp.QuoteMeta(key) + `\}\}`)
		if err != nil {
			continue
		}
		text = rx.ReplaceAllLiteralString(text, value)
	}
	return text
}

var choiceRX = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

func expandChoices(text string) string {
	return choiceRX.ReplaceAllStringFunc(text, func(m string) string {
		body := m[2 : len(m)-2]
		if strings.HasPrefix(body, "//") {
			return m
		}

		count := 0
		if i := strings.Index(body, "$$"); i > 0 {
			if n, err := strconv.Atoi(body[:i]); err == nil && n > 0 {
				count = n
				body = body[i+2:]
			}
		}

		options := strings.Split(body, "|")
		if len(options) < 2 && count == 0 {
			// A single bare {{x}} is an unmatched variable, not a choice.
			return m
		}

		if count == 0 {
			return options[rand.IntN(len(options))]
		}
		rand.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
		if count > len(options) {
			count = len(options)
		}
		return strings.Join(options[:count], ", ")
	})
}

var rollRX = regexp.MustCompile(`\{\{roll:(\d+)d(\d+)([+-]\d+)?\}\}`)

func expandRolls(text string) string {
	return rollRX.ReplaceAllStringFunc(text, func(m string) string {
		groups := rollRX.FindStringSubmatch(m)
		dice, err := strconv.Atoi(groups[1])
		if err != nil || dice < 1 || dice > 100 {
			return m
		}
		sides, err := strconv.Atoi(groups[2])
		if err != nil || sides < 1 || sides > 1000 {
			return m
		}
		modifier := 0
		if groups[3] != "" {
			modifier, err = strconv.Atoi(groups[3])
			if err != nil {
				return m
			}
		}
		sum := modifier
		for range dice {
			sum += rand.IntN(sides) + 1
		}
		return strconv.Itoa(sum)
	})
}

func expandDates(text string, now time.Time) string {
	pairs := []struct{ token, value string }{
		{"{{time}}", now.Format("3:04 PM")},
		{"{{date}}", now.Format("January 2, 2006")},
		{"{{weekday}}", now.Format("Monday")},
		{"{{isotime}}", now.Format("15:04:05")},
		{"{{isodate}}", now.Format("2006-01-02")},
	}
	for _, p := range pairs {
		text = strings.ReplaceAll(text, p.token, p.value)
	}
	return text
}

var commentRX = regexp.MustCompile(`(?s)\{\{//.*?\}\}`)

func stripComments(text string) string {
	return commentRX.ReplaceAllLiteralString(text, "")
}

func (ctx Context) censor(text string) string {
	if len(ctx.CensorWords) == 0 {
		return text
	}
	mask := ctx.CensorMask
	if mask == "" {
		mask = defaultMask
	}
	for _, word := range ctx.CensorWords {
		if word == "" {
			continue
		}
		rx, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(word))
		if err != nil {
			continue
		}
		text = rx.ReplaceAllLiteralString(text, mask)
	}
	return text
}
