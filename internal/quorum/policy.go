package quorum

import (
	"fmt"
	"math/rand"
	"strings"
)

// Mode selects how Nw and Nr are derived from N.
type Mode string

const (
	ReadHeavy  Mode = "READ_HEAVY"
	WriteHeavy Mode = "WRITE_HEAVY"
	Random     Mode = "RANDOM"
	Consistent Mode = "CONSISTENT"
	UserConfig Mode = "USER_CONFIG"

	// DefaultMode is used when no mode or an invalid mode is configured.
	DefaultMode = Random

	// DefaultMinimumN is the smallest replication factor accepted.
	DefaultMinimumN = 7
)

var modes = []Mode{ReadHeavy, WriteHeavy, Random, Consistent, UserConfig}

// Modes returns every supported mode.
func Modes() []Mode {
	return append([]Mode(nil), modes...)
}

// ParseMode maps a configuration string to a Mode, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown quorum selection %q", s)
}

// Params are the inputs of Derive.
type Params struct {
	N        int
	Mode     Mode
	UserNw   int
	UserNr   int
	MinimumN int
}

// Config is the immutable cluster configuration computed at coordinator
// startup.
type Config struct {
	N    int
	Mode Mode
	Nw   int
	Nr   int
}

func (c Config) String() string {
	return fmt.Sprintf("N=%d mode=%s Nw=%d Nr=%d", c.N, c.Mode, c.Nw, c.Nr)
}

// Valid reports whether every Nw-subset intersects every Nr-subset and any
// two write quorums intersect.
func (c Config) Valid() bool {
	return c.Nw+c.Nr > c.N && c.Nw > c.N/2 && c.Nw <= c.N && c.Nr >= 1 && c.Nr <= c.N
}

// Derive computes the quorum configuration. It never fails: invalid inputs
// are corrected and each correction is reported as a notice for the caller
// to log. rng is only consulted in RANDOM mode.
func Derive(p Params, rng *rand.Rand) (Config, []string) {
	var notices []string

	minimumN := p.MinimumN
	if minimumN <= 0 {
		minimumN = 1
	}
	n := p.N
	if n < minimumN {
		notices = append(notices, fmt.Sprintf("N=%d is below the minimum, using N=%d", n, minimumN))
		n = minimumN
	}

	mode := p.Mode
	switch mode {
	case ReadHeavy, WriteHeavy, Random, Consistent, UserConfig:
	case "":
		mode = DefaultMode
	default:
		notices = append(notices, fmt.Sprintf("unknown quorum selection %q, using %s", mode, DefaultMode))
		mode = DefaultMode
	}

	if mode == UserConfig {
		if p.UserNw+p.UserNr > n && p.UserNw > n/2 && p.UserNw <= n && p.UserNr >= 1 && p.UserNr <= n {
			return Config{N: n, Mode: mode, Nw: p.UserNw, Nr: p.UserNr}, notices
		}
		notices = append(notices, fmt.Sprintf(
			"invalid user quorum Nw=%d Nr=%d for N=%d (need Nw+Nr>N and Nw>N/2), using %s",
			p.UserNw, p.UserNr, n, DefaultMode))
		mode = DefaultMode
	}

	cfg := Config{N: n, Mode: mode}
	switch mode {
	case ReadHeavy:
		cfg.Nw, cfg.Nr = n, 1
	case WriteHeavy:
		cfg.Nw, cfg.Nr = n/2+1, n
	case Consistent:
		cfg.Nw, cfg.Nr = n, n
	case Random:
		cfg.Nw = drawInRange(rng, n/2+1, n-1)
		cfg.Nr = drawInRange(rng, n-cfg.Nw+1, n-1)
	}
	return cfg, notices
}

// drawInRange returns a uniform value in [lo, hi], or lo when the range is
// empty.
func drawInRange(rng *rand.Rand, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if rng == nil {
		return lo + rand.Intn(hi-lo+1)
	}
	return lo + rng.Intn(hi-lo+1)
}
