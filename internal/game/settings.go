package game

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// UpgradeLevelSettings tunes one base upgrade level.
type UpgradeLevelSettings struct {
	MaxDrones      int `json:"maxDrones" msgpack:"maxDrones"`
	DroneBuildTime int `json:"droneBuildTime" msgpack:"droneBuildTime"` // seconds per produced drone
	UpgradeCost    int `json:"upgradeCost" msgpack:"upgradeCost"`      // drones consumed to start the upgrade
	UpgradeTime    int `json:"upgradeTime" msgpack:"upgradeTime"`      // seconds until the upgrade completes
}

// GameSettings holds the tunable parameters of one session. A copy is made
// per world so that runtime changes never leak across sessions.
type GameSettings struct {
	DroneSpeed        float64 `json:"droneSpeed" msgpack:"droneSpeed"`               // starfield units per second
	DroneSendInterval float64 `json:"droneSendInterval" msgpack:"droneSendInterval"` // seconds between queue releases
	DroneDestroyTime  float64 `json:"droneDestroyTime" msgpack:"droneDestroyTime"`   // cosmetic decay after a kill
	DroneLaunchSpeed  float64 `json:"droneLaunchSpeed" msgpack:"droneLaunchSpeed"`   // outward impulse on destruction
	CaptureTime       int     `json:"captureTime" msgpack:"captureTime"`             // seconds to capture an undefended base

	UpgradeLevels []UpgradeLevelSettings `json:"upgradeLevels" msgpack:"upgradeLevels"`
}

// DefaultGameSettings returns the stock tuning.
func DefaultGameSettings() *GameSettings {
	return &GameSettings{
		DroneSpeed:        1.5,
		DroneSendInterval: 1.0,
		DroneDestroyTime:  2.0,
		DroneLaunchSpeed:  5.0,
		CaptureTime:       5,
		UpgradeLevels: []UpgradeLevelSettings{
			{MaxDrones: 10, DroneBuildTime: 2, UpgradeCost: 8, UpgradeTime: 5},
			{MaxDrones: 20, DroneBuildTime: 2, UpgradeCost: 15, UpgradeTime: 10},
			{MaxDrones: 35, DroneBuildTime: 1, UpgradeCost: 30, UpgradeTime: 20},
			{MaxDrones: 50, DroneBuildTime: 1, UpgradeCost: 0, UpgradeTime: 0},
		},
	}
}

// MaxUpgradeLevel returns the highest reachable upgrade level.
func (s *GameSettings) MaxUpgradeLevel() int {
	return len(s.UpgradeLevels) - 1
}

// Level returns the settings for an upgrade level, clamped into range so a
// corrupted record cannot index out of bounds.
func (s *GameSettings) Level(level int) UpgradeLevelSettings {
	if level < 0 {
		level = 0
	}
	if level > s.MaxUpgradeLevel() {
		level = s.MaxUpgradeLevel()
	}
	return s.UpgradeLevels[level]
}

// Clone returns a deep copy of the settings.
func (s *GameSettings) Clone() *GameSettings {
	clone := *s
	clone.UpgradeLevels = make([]UpgradeLevelSettings, len(s.UpgradeLevels))
	copy(clone.UpgradeLevels, s.UpgradeLevels)
	return &clone
}

// Export writes the settings as flat key=value lines, sorted by key.
func (s *GameSettings) Export(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("captureTime=%d", s.CaptureTime),
		fmt.Sprintf("droneDestroyTime=%s", strconv.FormatFloat(s.DroneDestroyTime, 'f', -1, 64)),
		fmt.Sprintf("droneLaunchSpeed=%s", strconv.FormatFloat(s.DroneLaunchSpeed, 'f', -1, 64)),
		fmt.Sprintf("droneSendInterval=%s", strconv.FormatFloat(s.DroneSendInterval, 'f', -1, 64)),
		fmt.Sprintf("droneSpeed=%s", strconv.FormatFloat(s.DroneSpeed, 'f', -1, 64)),
	}
	for i, level := range s.UpgradeLevels {
		lines = append(lines,
			fmt.Sprintf("upgradeLevels.%d.maxDrones=%d", i, level.MaxDrones),
			fmt.Sprintf("upgradeLevels.%d.droneBuildTime=%d", i, level.DroneBuildTime),
			fmt.Sprintf("upgradeLevels.%d.upgradeCost=%d", i, level.UpgradeCost),
			fmt.Sprintf("upgradeLevels.%d.upgradeTime=%d", i, level.UpgradeTime),
		)
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Import reads key=value lines and applies them over the current settings.
// Unknown keys are ignored so settings files survive version skew; malformed
// lines are an error.
func (s *GameSettings) Import(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("settings line %d: missing '=' in %q", lineNo, line)
		}
		if err := s.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("settings line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// Set applies one key=value pair. Unknown keys are ignored.
func (s *GameSettings) Set(key, value string) error {
	switch key {
	case "droneSpeed":
		return setFloat(&s.DroneSpeed, value)
	case "droneSendInterval":
		return setFloat(&s.DroneSendInterval, value)
	case "droneDestroyTime":
		return setFloat(&s.DroneDestroyTime, value)
	case "droneLaunchSpeed":
		return setFloat(&s.DroneLaunchSpeed, value)
	case "captureTime":
		return setInt(&s.CaptureTime, value)
	}

	if rest, ok := strings.CutPrefix(key, "upgradeLevels."); ok {
		idxStr, field, found := strings.Cut(rest, ".")
		if !found {
			return fmt.Errorf("bad upgrade level key %q", key)
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 0 {
			return fmt.Errorf("bad upgrade level index %q", idxStr)
		}
		for idx >= len(s.UpgradeLevels) {
			s.UpgradeLevels = append(s.UpgradeLevels, UpgradeLevelSettings{})
		}
		level := &s.UpgradeLevels[idx]
		switch field {
		case "maxDrones":
			return setInt(&level.MaxDrones, value)
		case "droneBuildTime":
			return setInt(&level.DroneBuildTime, value)
		case "upgradeCost":
			return setInt(&level.UpgradeCost, value)
		case "upgradeTime":
			return setInt(&level.UpgradeTime, value)
		}
	}

	return nil
}

func setFloat(dst *float64, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("bad float %q: %w", value, err)
	}
	*dst = f
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("bad int %q: %w", value, err)
	}
	*dst = n
	return nil
}
