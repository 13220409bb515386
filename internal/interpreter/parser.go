// Package interpreter turns free-form bilingual (English/Hindi, Latin or
// Devanagari script) bookkeeping commands into structured intents.
//
// Parsing is a fixed pipeline of lexical heuristics driven by Rules. It has
// no state between calls and never fails: fields it cannot find are left
// empty and callers validate the intent before using it.
package interpreter

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"rodger/internal/core"
)

// Parser interprets command sentences. It is safe for concurrent use.
type Parser struct {
	rules Rules

	amountRe    *regexp.Regexp
	nameRe      *regexp.Regexp
	honorificRe string

	commands  map[string]struct{}
	stopwords map[string]struct{}

	now func() time.Time
	loc *time.Location
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithLocation sets the time zone used for display dates and times.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// New builds a parser from the given rules.
func New(rules Rules, opts ...Option) (*Parser, error) {
	rules.normalize()
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	p := &Parser{
		rules:     rules,
		commands:  toSet(rules.CommandKeywords),
		stopwords: toSet(rules.Stopwords),
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}

	amount := `₹?\s?(\d+(?:\.\d+)?)`
	if len(rules.CurrencyUnits) > 0 {
		amount += `(?:\s?(?:` + alternation(rules.CurrencyUnits) + `))?`
	}
	p.amountRe = regexp.MustCompile(`(?i)` + amount)

	if len(rules.Honorifics) > 0 {
		p.honorificRe = `(?:\s+(?:` + alternation(rules.Honorifics) + `))?`
	}
	p.nameRe = regexp.MustCompile(`(?i)^([A-Za-z\x{0900}-\x{097F}\s]+?)` + p.honorificRe +
		`\s+(?:` + alternation(rules.RelationParticles) + `)(?:\s+|$)`)

	return p, nil
}

// NewDefault builds a parser from the embedded rule tables.
func NewDefault(opts ...Option) *Parser {
	p, err := New(DefaultRules(), opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse interprets one sentence.
func (p *Parser) Parse(sentence string) core.Intent {
	lower := strings.ToLower(sentence)

	if containsAny(lower, p.rules.Report) {
		return core.Intent{IsReport: true}
	}

	var in core.Intent

	amountText := ""
	if m := p.amountRe.FindStringSubmatch(sentence); m != nil {
		amountText = m[0]
		in.Amount = parseAmount(m[1])
	}

	in.Type = p.classify(lower)

	name, nameText, anchored := p.extractName(sentence)
	in.CustomerName = name

	in.Item = p.extractItem(sentence, amountText, nameText, name, anchored)

	now := p.now().In(p.loc)
	in.Date = now.Format(core.ISOLayout)
	in.DisplayDate = core.PartitionKey(now)
	in.Time = now.Format(core.TimeLayout)

	return in
}

// classify walks the buckets in priority order and falls back to the
// contextual particles. A particle counts only between two words, never at
// either end of the sentence.
func (p *Parser) classify(lower string) core.TransactionType {
	for _, b := range p.rules.Buckets {
		if containsAny(lower, b.Keywords) {
			return b.Type
		}
	}
	joined := strings.Join(strings.Fields(lower), " ")
	for _, c := range p.rules.Context {
		for _, particle := range c.Particles {
			if strings.Contains(joined, " "+particle+" ") {
				return c.Type
			}
		}
	}
	return p.rules.DefaultType
}

// extractName returns the capitalised customer name, the text to strip from
// the sentence and whether the anchored pattern produced it.
func (p *Parser) extractName(sentence string) (name, matched string, anchored bool) {
	if m := p.nameRe.FindStringSubmatch(sentence); m != nil {
		if n := capitalize(strings.TrimSpace(m[1])); n != "" {
			return n, m[0], true
		}
	}

	fields := strings.Fields(sentence)
	if len(fields) == 0 {
		return "", "", false
	}
	first := fields[0]
	if _, isCommand := p.commands[strings.ToLower(first)]; isCommand || !hasLetter(first) {
		return "", "", false
	}
	return capitalize(first), "", false
}

func (p *Parser) extractItem(sentence, amountText, nameText, name string, anchored bool) string {
	desc := sentence
	if amountText != "" {
		desc = strings.Replace(desc, amountText, " ", 1)
	}

	switch {
	case anchored && strings.Contains(desc, nameText):
		desc = strings.Replace(desc, nameText, " ", 1)
	case name != "":
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(name) + p.honorificRe)
		if err == nil {
			if loc := re.FindStringIndex(desc); loc != nil {
				desc = desc[:loc[0]] + " " + desc[loc[1]:]
			}
		}
	}

	kept := make([]string, 0, 4)
	for _, tok := range strings.Fields(desc) {
		key := strings.ToLower(strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Mc, r)
		}))
		if _, stop := p.stopwords[key]; stop {
			continue
		}
		kept = append(kept, tok)
	}

	item := strings.Join(strings.Fields(stripPunctuation(strings.Join(kept, " "))), " ")
	if item == "" {
		return core.NoItem
	}
	return item
}

// stripPunctuation keeps ASCII word characters, whitespace and the
// Devanagari block.
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 0x0900 && r <= 0x097F:
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, s)
}

// capitalize upper-cases the first rune and lower-cases the rest. Multi-word
// names keep only their first letter capitalised.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// alternation quotes words for a regexp alternation, longest first so that
// a shorter word never shadows a longer one.
func alternation(words []string) string {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}
