package grammar

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/parley/pkg/domain"
)

//go:embed default.yaml
var defaultGrammar []byte

// Resolution modes for entity values.
const (
	ResolveAsIs  = "asis"
	ResolveLower = "lower"
	ResolveTitle = "title"
)

// Spec is the YAML form of a grammar.
type Spec struct {
	Intents  []IntentRule `yaml:"intents"`
	Entities []EntityRule `yaml:"entities"`
}

// IntentRule assigns Name when any pattern matches. The first matching rule wins.
type IntentRule struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// EntityRule extracts at most one entity of Category.
type EntityRule struct {
	Category string   `yaml:"category"`
	Patterns []string `yaml:"patterns"`
	Resolve  string   `yaml:"resolve"`
	// WithoutIntent applies the rule only when no intent matched.
	WithoutIntent bool `yaml:"without_intent"`
}

type intent struct {
	name string
	res  []*regexp.Regexp
}

type entity struct {
	category      string
	resolve       string
	withoutIntent bool
	res           []*regexp.Regexp
}

// Grammar implements ports.Understander.
type Grammar struct {
	intents  []intent
	entities []entity
}

// Default returns the built-in appointment grammar.
func Default() *Grammar {
	g, err := Parse(defaultGrammar)
	if err != nil {
		panic(fmt.Sprintf("grammar: invalid built-in grammar: %v", err))
	}
	return g
}

// LoadFile reads a grammar from a YAML file.
func LoadFile(path string) (*Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grammar: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a grammar from YAML.
func Load(r io.Reader) (*Grammar, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar: %w", err)
	}
	return Parse(data)
}

// Parse compiles a YAML grammar.
func Parse(data []byte) (*Grammar, error) {
	var spec Spec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse grammar: %w", err)
	}
	return Compile(spec)
}

// Compile validates and compiles a grammar spec.
func Compile(spec Spec) (*Grammar, error) {
	g := &Grammar{}
	for i, r := range spec.Intents {
		if r.Name == "" {
			return nil, fmt.Errorf("intent #%d: missing name", i)
		}
		res, err := compileAll(r.Patterns)
		if err != nil {
			return nil, fmt.Errorf("intent %q: %w", r.Name, err)
		}
		g.intents = append(g.intents, intent{name: r.Name, res: res})
	}
	for i, r := range spec.Entities {
		if r.Category == "" {
			return nil, fmt.Errorf("entity #%d: missing category", i)
		}
		switch r.Resolve {
		case "":
			r.Resolve = ResolveAsIs
		case ResolveAsIs, ResolveLower, ResolveTitle:
		default:
			return nil, fmt.Errorf("entity %q: unknown resolve mode %q", r.Category, r.Resolve)
		}
		res, err := compileAll(r.Patterns)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", r.Category, err)
		}
		g.entities = append(g.entities, entity{
			category:      r.Category,
			resolve:       r.Resolve,
			withoutIntent: r.WithoutIntent,
			res:           res,
		})
	}
	return g, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no patterns")
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Understand classifies utterance. An utterance nothing matches yields an
// empty prediction, which the dialogue treats as a no-match.
func (g *Grammar) Understand(ctx context.Context, utterance string) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Prediction{}, err
	}
	text := strings.TrimSpace(utterance)

	var p domain.Prediction
	for _, in := range g.intents {
		if matchAny(in.res, text) {
			p.TopIntent = in.name
			break
		}
	}

	seen := make(map[string]bool)
	for _, en := range g.entities {
		if seen[en.category] || (en.withoutIntent && p.TopIntent != "") {
			continue
		}
		span, ok := extract(en.res, text)
		if !ok {
			continue
		}
		seen[en.category] = true
		p.Entities = append(p.Entities, domain.Entity{
			Category:    en.category,
			Text:        span,
			Resolutions: []domain.Resolution{{Value: resolve(span, en.resolve)}},
		})
	}
	return p, nil
}

func matchAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func extract(res []*regexp.Regexp, text string) (string, bool) {
	for _, re := range res {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if i := re.SubexpIndex("value"); i > 0 && m[i] != "" {
			return strings.TrimSpace(m[i]), true
		}
		return strings.TrimSpace(m[0]), true
	}
	return "", false
}

func resolve(s, mode string) string {
	switch mode {
	case ResolveLower:
		return strings.ToLower(s)
	case ResolveTitle:
		return titleWords(s)
	}
	return s
}

func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
