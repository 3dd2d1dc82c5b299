package validator

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
)

// marketplaceMarkers are the hostname fragments recognized as listing
// marketplaces. A URL without one of these is rejected before any remote
// call is made.
var marketplaceMarkers = []string{
	"airbnb.",
	"booking.",
	"abritel.",
	"vrbo.",
	"leboncoin.",
}

func marketplaceURLValidator(fl validator.FieldLevel) bool {
	raw := fl.Field().String()

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return false
	}

	host := strings.ToLower(parsed.Host)
	for _, marker := range marketplaceMarkers {
		if strings.Contains(host, marker) {
			return true
		}
	}
	return false
}

func parcoursTypeValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == string(api.ParcoursMenage) || value == string(api.ParcoursVoyageur)
}
