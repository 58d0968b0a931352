package audit

import (
	"net/url"
	"sort"
	"time"
)

// Summary aggregates audit entries: how many jobs ran, how many failed, and
// which commands, target hosts and users appear most.
type Summary struct {
	Runs        int         `json:"runs"`
	Failures    int         `json:"failures"`
	FailureRate float64     `json:"failure_rate"`
	Users       int         `json:"users"`
	TopCommands []CountStat `json:"top_commands"`
	TopHosts    []CountStat `json:"top_hosts"`
	TopUsers    []CountStat `json:"top_users"`
}

// CountStat is one ranked value with its share of all runs.
type CountStat struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// StatsFilter controls which entries are included in a summary.
type StatsFilter struct {
	Since   time.Time
	Until   time.Time
	Command string
	Input   string
}

// Summarize computes a Summary over the entries matching filter.
func Summarize(entries []Entry, filter StatsFilter) *Summary {
	filtered := FilterEntries(entries, filter.Since, filter.Until, filter.Command, filter.Input)

	s := &Summary{Runs: len(filtered)}
	if len(filtered) == 0 {
		return s
	}

	commands := make(map[string]int)
	hosts := make(map[string]int)
	users := make(map[string]int)
	for _, e := range filtered {
		commands[e.Command]++
		if h := targetHost(e.RelTarget); h != "" {
			hosts[h]++
		}
		if e.UserID != "" {
			users[e.UserID]++
		}
		if e.ExitCode != 0 {
			s.Failures++
		}
	}

	s.Users = len(users)
	s.FailureRate = float64(s.Failures) / float64(s.Runs) * 100
	s.TopCommands = rank(commands, s.Runs)
	s.TopHosts = rank(hosts, s.Runs)
	s.TopUsers = rank(users, s.Runs)
	return s
}

// targetHost returns the host of a relationship target; file URIs without a
// host report as "file".
func targetHost(target string) string {
	if target == "" {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	if u.Host != "" {
		return u.Hostname()
	}
	return u.Scheme
}

func rank(counts map[string]int, total int) []CountStat {
	stats := make([]CountStat, 0, len(counts))
	for name, count := range counts {
		stats = append(stats, CountStat{
			Name:  name,
			Count: count,
			Pct:   float64(count) / float64(total) * 100,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}
