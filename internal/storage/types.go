package storage

import "time"

// Stats holds aggregate statistics about the focuslog database.
type Stats struct {
	TrackedDays       int64
	SiteRecords       int64
	Reports           int64
	Exclusions        int64
	OldestDay         time.Time
	NewestDay         time.Time
	DatabaseSizeBytes int64
	TopDomains        []DomainTime
}

// DomainTime pairs a domain with its total tracked time in milliseconds.
type DomainTime struct {
	Domain    string
	TimeSpent int64
}

// Exclusion is one denylist entry.
type Exclusion struct {
	RuleType  string // "domain" or "regex"
	RuleValue string
	Reason    string
}
