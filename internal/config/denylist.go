package config

// DefaultDenylistDomains returns domains whose visits are never recorded.
func DefaultDenylistDomains() []string {
	return []string{
		// Banking & payments
		"chase.com",
		"bankofamerica.com",
		"wellsfargo.com",
		"capitalone.com",
		"schwab.com",
		"fidelity.com",
		"paypal.com",
		"venmo.com",

		// Healthcare
		"mychart.com",
		"kp.org",
		"healthcare.gov",

		// Government & tax
		"irs.gov",
		"login.gov",
		"id.me",

		// HR & payroll
		"workday.com",
		"adp.com",
		"gusto.com",
	}
}

// DefaultDenylistRegex returns patterns matched against normalized domains.
func DefaultDenylistRegex() []string {
	return []string{
		`\.xxx$`,
		`(^|\.)bank\.`,
	}
}
