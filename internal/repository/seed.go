package repository

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// Seed is the fixture format used to fill the in-memory event and user
// lookups:
//
//	events:
//	  - id: ev-1
//	    name: Spring Concert
//	    starts_at: 2026-07-01T20:00:00Z
//	    location: Main Hall
//	users:
//	  - id: u-1
//	    name: Ana
//	    email: ana@example.com
type Seed struct {
	Events []SeedEvent `yaml:"events"`
	Users  []SeedUser  `yaml:"users"`
}

type SeedEvent struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name"`
	StartsAt time.Time `yaml:"starts_at"`
	Location string    `yaml:"location"`
}

type SeedUser struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// LoadSeed reads a seed file and returns lookups holding its records.
func LoadSeed(path string) (*MemoryEvents, *MemoryUsers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, nil, fmt.Errorf("parse seed file: %w", err)
	}

	events := NewMemoryEvents()
	for i, ev := range seed.Events {
		if strings.TrimSpace(ev.ID) == "" {
			return nil, nil, fmt.Errorf("seed event %d: id is required", i+1)
		}
		events.Put(model.Event{ID: ev.ID, Name: ev.Name, StartsAt: ev.StartsAt.UTC(), Location: ev.Location})
	}
	users := NewMemoryUsers()
	for i, u := range seed.Users {
		if strings.TrimSpace(u.ID) == "" {
			return nil, nil, fmt.Errorf("seed user %d: id is required", i+1)
		}
		users.Put(model.User{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return events, users, nil
}
