package repositories

// Fixed taxonomies inserted by TaxonomyRepository.Seed. Levels and functions are inserted in
// slice order, so their serial ids follow it.
var (
	seedFunctions = []string{
		"Executive",
		"Finance",
		"Operations",
		"Engineering",
		"Product",
		"Sales",
		"Security",
		"Marketing",
		"Human Resources",
		"Customer Services",
		"Founder",
	}

	seedLevels = []string{
		"Chief",
		"President",
		"Executive Vice President",
		"Senior Vice President",
		"Vice President",
		"Associate Vice President",
		"Head",
		"Partner",
		"Senior Director",
		"Director",
		"Associate Director",
		"Senior Manager",
		"Manager",
		"Senior Associate",
		"Associate",
		"Senior Analyst",
		"Junior",
	}

	seedStates = [][2]string{
		{"AL", "Alabama"}, {"AK", "Alaska"}, {"AZ", "Arizona"}, {"AR", "Arkansas"},
		{"CA", "California"}, {"CO", "Colorado"}, {"CT", "Connecticut"}, {"DE", "Delaware"},
		{"FL", "Florida"}, {"GA", "Georgia"}, {"HI", "Hawaii"}, {"ID", "Idaho"},
		{"IL", "Illinois"}, {"IN", "Indiana"}, {"IA", "Iowa"}, {"KS", "Kansas"},
		{"KY", "Kentucky"}, {"LA", "Louisiana"}, {"ME", "Maine"}, {"MD", "Maryland"},
		{"MA", "Massachusetts"}, {"MI", "Michigan"}, {"MN", "Minnesota"}, {"MS", "Mississippi"},
		{"MO", "Missouri"}, {"MT", "Montana"}, {"NE", "Nebraska"}, {"NV", "Nevada"},
		{"NH", "New Hampshire"}, {"NJ", "New Jersey"}, {"NM", "New Mexico"}, {"NY", "New York"},
		{"NC", "North Carolina"}, {"ND", "North Dakota"}, {"OH", "Ohio"}, {"OK", "Oklahoma"},
		{"OR", "Oregon"}, {"PA", "Pennsylvania"}, {"RI", "Rhode Island"}, {"SC", "South Carolina"},
		{"SD", "South Dakota"}, {"TN", "Tennessee"}, {"TX", "Texas"}, {"UT", "Utah"},
		{"VT", "Vermont"}, {"VA", "Virginia"}, {"WA", "Washington"}, {"WV", "West Virginia"},
		{"WI", "Wisconsin"}, {"WY", "Wyoming"},
	}

	seedCountries = [][2]string{
		{"USA", "United States"},
		{"GBR", "United Kingdom"},
	}
)

func splitPairs(pairs [][2]string) (ids, names []string) {
	ids = make([]string, len(pairs))
	names = make([]string, len(pairs))
	for i, p := range pairs {
		ids[i], names[i] = p[0], p[1]
	}
	return ids, names
}
