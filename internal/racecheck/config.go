package racecheck

import "time"

// Config holds configuration for a race check run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Races        int           // Number of races to run
	MinRunners   int           // Smallest roster
	MaxRunners   int           // Largest roster
	Workers      int           // Races driven concurrently
	Timeout      time.Duration // HTTP request timeout
	RaceTimeout  time.Duration // How long one race may take to complete
	PollInterval time.Duration // Delay between race polls
	Seed         int64         // Roster size seed; zero uses the clock
	Output       string        // YAML report path
	Verbose      bool          // Log every race
}

// View is the part of a session view the checker reads.
type View struct {
	ID     string   `json:"id" yaml:"id"`
	RaceID string   `json:"race_id" yaml:"race_id"`
	Phase  string   `json:"phase" yaml:"phase"`
	Names  []string `json:"names" yaml:"names"`
}

// Standing is one row of a race ranking.
type Standing struct {
	Rank        int           `json:"rank" yaml:"rank"`
	Name        string        `json:"name" yaml:"name"`
	Lane        int           `json:"lane" yaml:"lane"`
	FinishTime  time.Duration `json:"finish_time" yaml:"finish_time"`
	FinishOrder int           `json:"finish_order" yaml:"finish_order"`
}

// Result is a compiled race ranking as served by the API.
type Result struct {
	Standings  []Standing `json:"standings" yaml:"standings"`
	Loser      Standing   `json:"loser" yaml:"loser"`
	Designated int        `json:"designated_lane" yaml:"designated_lane"`
	ScriptHeld bool       `json:"script_held" yaml:"script_held"`
}

// RaceReport records one checked race.
type RaceReport struct {
	Session  string        `yaml:"session"`
	RaceID   string        `yaml:"race_id"`
	Runners  []string      `yaml:"runners"`
	Loser    string        `yaml:"loser,omitempty"`
	Held     bool          `yaml:"script_held"`
	Duration time.Duration `yaml:"duration"`
	Problems []string      `yaml:"problems,omitempty"`
	Error    string        `yaml:"error,omitempty"`
}

// Report is the outcome of a whole run.
type Report struct {
	BaseURL    string        `yaml:"base_url"`
	StartedAt  time.Time     `yaml:"started_at"`
	Duration   time.Duration `yaml:"duration"`
	Races      int           `yaml:"races"`
	Passed     int           `yaml:"passed"`
	Failed     int           `yaml:"failed"`
	Errored    int           `yaml:"errored"`
	ScriptHeld int           `yaml:"script_held"`
	Details    []RaceReport  `yaml:"details"`
}
