// Package properties holds the per world settings a slime world is created
// with.
package properties

import (
	"fmt"
	"strings"
)

type Difficulty string

const (
	Peaceful Difficulty = "peaceful"
	Easy     Difficulty = "easy"
	Normal   Difficulty = "normal"
	Hard     Difficulty = "hard"
)

type GameMode string

const (
	Survival  GameMode = "survival"
	Creative  GameMode = "creative"
	Adventure GameMode = "adventure"
	Spectator GameMode = "spectator"
)

// Properties are the settings of one world. HasEntities and HasExtraData
// select the optional sections of the stream, ShouldSave allows the world
// manager to write the world back.
type Properties struct {
	HasEntities   bool       `yaml:"hasEntities"`
	HasExtraData  bool       `yaml:"hasExtraData"`
	HasPVP        bool       `yaml:"hasPVP"`
	HasMonsters   bool       `yaml:"hasMonsters"`
	HasAnimals    bool       `yaml:"hasAnimals"`
	ShouldSave    bool       `yaml:"shouldSave"`
	Difficulty    Difficulty `yaml:"difficulty"`
	GameMode      GameMode   `yaml:"gamemode"`
	SpawnLocation [3]int     `yaml:"spawnLocation,flow"`
}

func Default() Properties {
	return Properties{
		HasMonsters:   true,
		HasAnimals:    true,
		Difficulty:    Normal,
		GameMode:      Survival,
		SpawnLocation: [3]int{0, 50, 0},
	}
}

func (p Properties) Validate() error {
	switch p.Difficulty {
	case Peaceful, Easy, Normal, Hard:
	default:
		return fmt.Errorf("properties: unknown difficulty %q", p.Difficulty)
	}
	switch p.GameMode {
	case Survival, Creative, Adventure, Spectator:
	default:
		return fmt.Errorf("properties: unknown game mode %q", p.GameMode)
	}
	return nil
}

// Set assigns one property from its textual form, as given on the command
// line (`difficulty=hard`, `spawnLocation=10,64,-3`).
func (p *Properties) Set(key, value string) error {
	switch key {
	case "hasEntities":
		return parseBool(key, value, &p.HasEntities)
	case "hasExtraData":
		return parseBool(key, value, &p.HasExtraData)
	case "hasPVP":
		return parseBool(key, value, &p.HasPVP)
	case "hasMonsters":
		return parseBool(key, value, &p.HasMonsters)
	case "hasAnimals":
		return parseBool(key, value, &p.HasAnimals)
	case "shouldSave":
		return parseBool(key, value, &p.ShouldSave)
	case "difficulty":
		p.Difficulty = Difficulty(strings.ToLower(value))
	case "gamemode":
		p.GameMode = GameMode(strings.ToLower(value))
	case "spawnLocation":
		var x, y, z int
		if _, err := fmt.Sscanf(value, "%d,%d,%d", &x, &y, &z); err != nil {
			return fmt.Errorf("properties: spawnLocation %q: %w", value, err)
		}
		p.SpawnLocation = [3]int{x, y, z}
	default:
		return fmt.Errorf("properties: unknown property %q", key)
	}
	return p.Validate()
}

func parseBool(key, value string, dst *bool) error {
	switch strings.ToLower(value) {
	case "true", "yes", "1":
		*dst = true
	case "false", "no", "0":
		*dst = false
	default:
		return fmt.Errorf("properties: %s: %q is not a boolean", key, value)
	}
	return nil
}
