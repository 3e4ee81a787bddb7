package crossref

import "strings"

// Category tags attached to results.
const (
	CategoryCompetitive    = "competitive"
	CategoryLegacy         = "legacy"
	CategoryNDAARestricted = "ndaa-restricted"
	CategoryCloudManaged   = "cloud-managed"
	CategoryEnterprise     = "enterprise"
)

var manufacturerCategories = map[string]string{
	"hikvision": CategoryNDAARestricted,
	"dahua":     CategoryNDAARestricted,
	"lorex":     CategoryNDAARestricted,
	"ezviz":     CategoryNDAARestricted,
	"amcrest":   CategoryNDAARestricted,
	"uniview":   CategoryNDAARestricted,
	"unv":       CategoryNDAARestricted,
	"tiandy":    CategoryNDAARestricted,
	"verkada":   CategoryCloudManaged,
	"rhombus":   CategoryCloudManaged,
	"meraki":    CategoryCloudManaged,
	"avigilon":  CategoryEnterprise,
	"bosch":     CategoryEnterprise,
	"hanwha":    CategoryEnterprise,
	"pelco":     CategoryEnterprise,
	"honeywell": CategoryEnterprise,
}

// canonicalManufacturers maps every known alias to its group's canonical name.
var canonicalManufacturers = func() map[string]string {
	m := make(map[string]string)
	for _, group := range manufacturerGroups {
		for _, alias := range group {
			m[alias] = group[0]
		}
	}
	return m
}()

// CategoryFor returns the category tag for a manufacturer. Aliases share the
// tag of their canonical name.
func CategoryFor(manufacturer string) string {
	key := strings.ToLower(strings.Join(strings.Fields(manufacturer), " "))
	if c, ok := manufacturerCategories[key]; ok {
		return c
	}
	if canonical, ok := canonicalManufacturers[key]; ok {
		if c, ok := manufacturerCategories[canonical]; ok {
			return c
		}
	}
	return CategoryCompetitive
}
