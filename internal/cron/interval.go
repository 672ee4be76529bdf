package cron

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Interval parsing errors. A disabled interval means the job must not be
// registered at all; an invalid one is a configuration mistake.
var (
	ErrIntervalDisabled = errors.New("cron: interval not set or not positive")
	ErrInvalidInterval  = errors.New("cron: invalid interval")
)

var descriptorParser = cron.NewParser(cron.Descriptor)

// ParseInterval accepts a whole number of seconds ("300"), a Go duration
// ("5m") or an "@every" descriptor ("@every 5m"). Calendar expressions are
// rejected since loops tick on a fixed cadence.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrIntervalDisabled
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("%w: %q", ErrIntervalDisabled, s)
		}
		if n > math.MaxInt64/int64(time.Second) {
			return 0, fmt.Errorf("%w: %q overflows", ErrInvalidInterval, s)
		}
		return time.Duration(n) * time.Second, nil
	}

	if strings.HasPrefix(s, "@") {
		sched, err := descriptorParser.Parse(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrInvalidInterval, s, err)
		}
		every, ok := sched.(cron.ConstantDelaySchedule)
		if !ok {
			return 0, fmt.Errorf("%w: %q is not a fixed interval", ErrInvalidInterval, s)
		}
		return every.Delay, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrIntervalDisabled, s)
	}
	return d, nil
}
