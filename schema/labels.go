package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Site-class label prefixes. The soil variant appears in older tables.
const (
	siteClassPrefix     = "Site Class "
	siteSoilClassPrefix = "Site Soil Class "
	apoePrefix          = "APoE: 1/"
)

// APoELabel returns the annual probability label for a return period, e.g. "APoE: 1/500".
func APoELabel(returnPeriod int) string {
	return apoePrefix + strconv.Itoa(returnPeriod)
}

// ParseAPoELabel accepts "APoE: 1/500", "1/500" or "500".
func ParseAPoELabel(label string) (int, error) {
	s := strings.TrimSpace(label)
	s = strings.TrimPrefix(s, "APoE:")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "1/")
	rp, err := strconv.Atoi(s)
	if err != nil || rp <= 0 {
		return 0, fmt.Errorf("invalid annual probability label %q", label)
	}
	return rp, nil
}

// SiteClassLabel returns the published label for a class key.
func SiteClassLabel(key string) string {
	return siteClassPrefix + key
}

// SiteClassKey strips either label prefix, returning the bare class key.
func SiteClassKey(label string) string {
	s := strings.TrimSpace(label)
	s = strings.TrimPrefix(s, siteSoilClassPrefix)
	s = strings.TrimPrefix(s, siteClassPrefix)
	return s
}

// QuantileLabel formats a quantile statistic label, e.g. 0.9 -> "0.9".
func QuantileLabel(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// IsGridLocation reports whether a location id is a lat~lon grid point.
func IsGridLocation(name string) bool {
	return strings.Contains(name, "~")
}
