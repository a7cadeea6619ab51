package services

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	leadMinutesRe = regexp.MustCompile(`^(\d+)\s*(m|min|minutes)?$`)
	leadHoursRe   = regexp.MustCompile(`^(\d+)\s*(h|hr|hour|hours)$`)
)

// ParseNotifyBefore converts an activity's lead-time string into whole
// minutes. Accepted forms: bare minute counts ("15"), "15m", "30 min",
// "1h", "2 hours". Anything unparseable means no lead, remind at the
// event time itself.
func ParseNotifyBefore(s string) int {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return 0
	}
	if m := leadMinutesRe.FindStringSubmatch(v); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0
		}
		return n
	}
	if m := leadHoursRe.FindStringSubmatch(v); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0
		}
		return n * 60
	}
	return 0
}
