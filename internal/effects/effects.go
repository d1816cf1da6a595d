package effects

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed effects.yaml
var embedded []byte

var ErrUnknownEffect = errors.New("unknown effect")

type Kind string

const (
	EyeCandy  Kind = "eyecandy"
	Finishing Kind = "finishing"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case EyeCandy:
		return EyeCandy, nil
	case Finishing:
		return Finishing, nil
	}
	return "", fmt.Errorf("unknown effect kind %q", s)
}

type Effect struct {
	ID      string `yaml:"id" json:"id"`
	TitleEn string `yaml:"title_en" json:"titleEn"`
	TitleJa string `yaml:"title_ja" json:"titleJa"`
	Prompt  string `yaml:"prompt" json:"prompt"`
}

type Set struct {
	EyeCandy  []Effect `yaml:"eyecandy"`
	Finishing []Effect `yaml:"finishing"`
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
)

func Default() *Set {
	defaultOnce.Do(func() {
		s, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("embedded effects: %v", err))
		}
		defaultSet = s
	})
	return defaultSet
}

func Parse(data []byte) (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse effects: %w", err)
	}
	seen := make(map[string]struct{}, len(s.EyeCandy)+len(s.Finishing))
	for _, list := range [][]Effect{s.EyeCandy, s.Finishing} {
		for _, e := range list {
			if e.ID == "" || e.Prompt == "" {
				return nil, fmt.Errorf("parse effects: effect %q needs an id and a prompt", e.TitleEn)
			}
			if _, dup := seen[e.ID]; dup {
				return nil, fmt.Errorf("parse effects: duplicate id %q", e.ID)
			}
			seen[e.ID] = struct{}{}
		}
	}
	return &s, nil
}

func (s *Set) List(kind Kind) []Effect {
	var src []Effect
	switch kind {
	case EyeCandy:
		src = s.EyeCandy
	case Finishing:
		src = s.Finishing
	}
	out := make([]Effect, len(src))
	copy(out, src)
	return out
}

func (s *Set) Lookup(kind Kind, id string) (Effect, error) {
	for _, e := range s.List(kind) {
		if e.ID == id {
			return e, nil
		}
	}
	return Effect{}, fmt.Errorf("%w: %s %q", ErrUnknownEffect, kind, id)
}

// Filter returns the effects of kind in category. CategoryAll returns every
// effect.
func (s *Set) Filter(kind Kind, category Category) []Effect {
	all := s.List(kind)
	if category == CategoryAll || category == "" {
		return all
	}
	out := make([]Effect, 0, len(all))
	for _, e := range all {
		if Classify(kind, e) == category {
			out = append(out, e)
		}
	}
	return out
}

type Scope string

const (
	ScopeAll     Scope = "all"
	ScopePartial Scope = "partial"
)

// BuildPrompt returns the effect prompt. With ScopePartial and a non-blank
// target the prompt is limited to that text.
func BuildPrompt(e Effect, scope Scope, target string) string {
	p := e.Prompt
	target = strings.TrimSpace(target)
	if scope != ScopePartial || target == "" {
		return p
	}
	return p + "\n\n## Target Text Specification (部分適用指定)\n**適用対象:** 「" + target +
		"」という文字列のみにエフェクトを適用すること。それ以外の文字は元のスタイルを維持する。"
}
