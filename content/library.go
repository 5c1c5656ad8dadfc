// Package content loads the catalog of daily photos, messages and minigames
// and the calendar of special days.
package content

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cppla/keepsake/engagement"
)

// Item is one entry of a content pool.
type Item struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	URL   string `yaml:"url,omitempty" json:"url,omitempty"`
	Text  string `yaml:"text,omitempty" json:"text,omitempty"`
}

// Library is the full content catalog.
type Library struct {
	Photos    []Item `yaml:"photos" json:"photos"`
	Messages  []Item `yaml:"messages" json:"messages"`
	Minigames []Item `yaml:"minigames" json:"minigames"`
	// SpecialDays holds "MM-DD" (every year) or "YYYY-MM-DD" (once) entries.
	SpecialDays []string `yaml:"specialDays" json:"specialDays"`
}

// Load reads a YAML catalog from path.
func Load(path string) (*Library, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML catalog.
func Parse(b []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(b, &lib); err != nil {
		return nil, fmt.Errorf("parse content file: %w", err)
	}
	for name, items := range map[string][]Item{"photos": lib.Photos, "messages": lib.Messages, "minigames": lib.Minigames} {
		seen := map[string]bool{}
		for i, it := range items {
			id := strings.TrimSpace(it.ID)
			if id == "" {
				return nil, fmt.Errorf("%s[%d]: missing id", name, i)
			}
			if seen[id] {
				return nil, fmt.Errorf("%s[%d]: duplicate id %q", name, i, id)
			}
			seen[id] = true
		}
	}
	for _, d := range lib.SpecialDays {
		if !validSpecialDay(d) {
			return nil, fmt.Errorf("specialDays: invalid entry %q", d)
		}
	}
	return &lib, nil
}

// Pools exposes the catalog ids to the rotator.
func (l *Library) Pools() engagement.Pools {
	if l == nil {
		return engagement.Pools{}
	}
	return engagement.Pools{
		Photos:    ids(l.Photos),
		Messages:  ids(l.Messages),
		Minigames: ids(l.Minigames),
		Special:   l.IsSpecial,
	}
}

// IsSpecial reports whether day (YYYY-MM-DD) is listed in the special calendar.
func (l *Library) IsSpecial(day string) bool {
	if l == nil || len(day) != len(engagement.DateLayout) {
		return false
	}
	monthDay := day[5:]
	for _, d := range l.SpecialDays {
		if d == day || d == monthDay {
			return true
		}
	}
	return false
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, strings.TrimSpace(it.ID))
	}
	return out
}

func validSpecialDay(d string) bool {
	if _, err := engagement.ParseDate(d); err == nil {
		return true
	}
	// Leap day is valid as a recurring entry.
	_, err := engagement.ParseDate("2000-" + d)
	return err == nil && len(d) == 5
}
