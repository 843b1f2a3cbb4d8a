package services

import "leadchat/pkg"

// DefaultCatalog returns the built-in service offerings, cheapest first
func DefaultCatalog() []pkg.ServiceOffering {
	return []pkg.ServiceOffering{
		{
			Slug:     pkg.ServiceStrategySession,
			Name:     "AI Strategy Session",
			Price:    "$500",
			Duration: "90 minutes",
			IdealFor: "Teams exploring where AI fits before committing budget",
		},
		{
			Slug:     pkg.ServiceReadinessAssessment,
			Name:     "AI Readiness Assessment",
			Price:    "$5,000",
			Duration: "2 weeks",
			IdealFor: "Businesses that want a prioritised roadmap and ROI estimates",
		},
		{
			Slug:     pkg.ServiceImplementation,
			Name:     "AI Implementation Sprint",
			Price:    "$15,000 - $35,000",
			Duration: "4-6 weeks",
			IdealFor: "Automating one high-value workflow end to end",
		},
		{
			Slug:     pkg.ServiceTransformation,
			Name:     "AI Transformation Partnership",
			Price:    "$50,000+",
			Duration: "3-6 months",
			IdealFor: "Companies ready to rebuild operations around AI",
		},
	}
}

// Catalog is the read-only list of services the assistant can recommend
type Catalog struct {
	services []pkg.ServiceOffering
}

func NewCatalog(services []pkg.ServiceOffering) *Catalog {
	if len(services) == 0 {
		services = DefaultCatalog()
	}
	return &Catalog{services: services}
}

// Find returns the offering with the given slug
func (c *Catalog) Find(slug string) (pkg.ServiceOffering, bool) {
	for _, s := range c.services {
		if s.Slug == slug {
			return s, true
		}
	}
	return pkg.ServiceOffering{}, false
}
