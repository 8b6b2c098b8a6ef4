package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/ff"
	"github.com/shopspring/decimal"

	"bankledger/fraud"
)

// Config holds the engine tunables
type Config struct {
	HighValueThreshold decimal.Decimal
	MediumThreshold    decimal.Decimal
	WindowMinutes      int
	LockTimeout        time.Duration
}

// Parse the flags in the flag set from the command line.
// Additional options may be provided to parse from environment variables, but flags get priority.
//
// Example .env file
//	LEDGER_HIGH_VALUE_THRESHOLD=250000
//	LEDGER_MEDIUM_THRESHOLD=50000
//	LEDGER_WINDOW_MINUTES=60
//	LEDGER_LOCK_TIMEOUT=3s
func Parse() (*Config, error) {
	ledgerFlags := flag.NewFlagSet("ledger", flag.ContinueOnError)
	var (
		highValue   = ledgerFlags.String("high_value_threshold", "250000", "amount at or above which a transaction raises a high-value alert")
		medium      = ledgerFlags.String("medium_threshold", "50000", "debit amount counted by the velocity rule")
		windowMins  = ledgerFlags.Int("window_minutes", 60, "trailing window for the velocity rule, in minutes")
		lockTimeout = ledgerFlags.Duration("lock_timeout", 3*time.Second, "maximum wait for an account row lock")
	)

	err := ff.Parse(ledgerFlags, definedArgs(ledgerFlags, os.Args[1:]),
		ff.WithIgnoreUndefined(true),
		ff.WithEnvVarPrefix("LEDGER"),
	)
	if err != nil {
		return nil, err
	}

	high, err := decimal.NewFromString(*highValue)
	if err != nil {
		return nil, fmt.Errorf("parsing high_value_threshold: %v", err)
	}
	med, err := decimal.NewFromString(*medium)
	if err != nil {
		return nil, fmt.Errorf("parsing medium_threshold: %v", err)
	}

	return &Config{
		HighValueThreshold: high,
		MediumThreshold:    med,
		WindowMinutes:      *windowMins,
		LockTimeout:        *lockTimeout,
	}, nil
}

// definedArgs keeps only the arguments whose flag is defined in fs.
// The flag set shares os.Args with other components' flags and the test
// binary's -test.* flags, and an unknown command-line flag would abort
// parsing; ff's WithIgnoreUndefined covers config files and env only.
// Every flag in fs takes a value, so a detached value token is consumed
// along with its flag.
func definedArgs(fs *flag.FlagSet, args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if j := strings.Index(name, "="); j >= 0 {
			name = name[:j]
		}
		if fs.Lookup(name) == nil {
			continue
		}
		out = append(out, arg)
		if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// Rules converts the config into the evaluator's thresholds
func (c *Config) Rules() fraud.Rules {
	return fraud.Rules{
		HighValueThreshold: c.HighValueThreshold,
		MediumThreshold:    c.MediumThreshold,
		Window:             time.Duration(c.WindowMinutes) * time.Minute,
	}
}
