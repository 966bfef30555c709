package registry

import "github.com/spec-kit/grievance-service/internal/domain"

// Defaults returns the built-in Delhi department table used when no
// registry file is configured. Order matters: keyword ties resolve to
// the earlier entry.
func Defaults() []domain.Department {
	return []domain.Department{
		{
			ID:       "electrical",
			Name:     "MCD Electrical",
			Keywords: []string{"streetlight", "light", "electricity", "power", "electrical", "lamp", "bulb"},
			SLAHours: 48,
			Contact:  "mcd-electrical@example.gov.in",
		},
		{
			ID:       "water",
			Name:     "Delhi Jal Board",
			Keywords: []string{"water", "sewage", "drainage", "pipe", "leakage", "supply", "tanker"},
			SLAHours: 72,
			Contact:  "djb@example.gov.in",
		},
		{
			ID:       "roads",
			Name:     "PWD",
			Keywords: []string{"road", "pothole", "pavement", "footpath", "bridge", "flyover", "construction"},
			SLAHours: 96,
			Contact:  "pwd@example.gov.in",
		},
		{
			ID:       "sanitation",
			Name:     "MCD Sanitation",
			Keywords: []string{"garbage", "trash", "waste", "cleaning", "sanitation", "dustbin", "sweeper"},
			SLAHours: 24,
			Contact:  "mcd-sanitation@example.gov.in",
		},
		{
			ID:       "traffic",
			Name:     "Traffic Police",
			Keywords: []string{"traffic", "signal", "parking", "challan", "jam", "violation", "zebra"},
			SLAHours: 24,
			Contact:  "traffic-police@example.gov.in",
		},
		{
			ID:       "police",
			Name:     "Delhi Police",
			Keywords: []string{"crime", "theft", "robbery", "safety", "police", "harassment"},
			SLAHours: 12,
			Contact:  "delhi-police@example.gov.in",
		},
		{
			ID:       "power",
			Name:     "BSES-TPDDL",
			Keywords: []string{"meter", "bill", "voltage", "transformer", "outage", "fluctuation"},
			SLAHours: 48,
			Contact:  "power-discom@example.gov.in",
		},
		{
			ID:       "parks",
			Name:     "DDA",
			Keywords: []string{"park", "garden", "encroachment", "land", "colony", "development"},
			SLAHours: 120,
			Contact:  "dda@example.gov.in",
		},
		{
			ID:       FallbackID,
			Name:     "General Services",
			Keywords: nil,
			SLAHours: 72,
			Contact:  "helpdesk@example.gov.in",
		},
	}
}
