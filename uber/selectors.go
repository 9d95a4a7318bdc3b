// Package uber drives the m.uber.com fare pages: login with one-time code
// or password, fare deep links per route, and price extraction from the
// expanded fare cards.
package uber

import (
	"fmt"

	"github.com/andybalholm/cascadia"

	"github.com/farewatch/farewatch/models"
)

// CSS selectors for the auth and fare pages. The _css-* class names are
// build artifacts of the site's styling pipeline; update these when the
// site ships a new bundle and extraction starts failing.
const (
	// Present only when the session is logged in.
	selLoggedInProbe = "._css-ipKQbc"

	// Auth flow.
	selPhoneField     = "#PHONE_NUMBER_or_EMAIL_ADDRESS"
	selForwardButton  = "#forward-button"
	selPasswordOption = "#alt-PASSWORD"
	selPasswordField  = "#PASSWORD"
	selOTPFirstDigit  = "#PHONE_SMS_OTP-0"

	// Fare page. The ride list is the only ul with a generated class.
	selRideTypeList = `ul[class*="css-"]`
	selRideTypeItem = "li"

	// Expanded fare card.
	selRideName         = "h6._css-eMXiub:nth-child(1)"
	selRideEstimate     = "h6._css-eMXiub:nth-child(2)"
	selBaseFare         = "div._css-kROmvp:nth-child(2) > p:nth-child(2)"
	selMinimumFare      = "div._css-kROmvp:nth-child(3) > p:nth-child(2)"
	selPlusPerMinute    = "div._css-kROmvp:nth-child(4) > p:nth-child(2)"
	selPlusPerKilometer = "div._css-kROmvp:nth-child(5) > p:nth-child(2)"
	selWaitCharge       = "._css-lcvSVT"
)

// allSelectors lists every selector above for startup validation.
var allSelectors = []string{
	selLoggedInProbe,
	selPhoneField,
	selForwardButton,
	selPasswordOption,
	selPasswordField,
	selOTPFirstDigit,
	selRideTypeList,
	selRideTypeItem,
	selRideName,
	selRideEstimate,
	selBaseFare,
	selMinimumFare,
	selPlusPerMinute,
	selPlusPerKilometer,
	selWaitCharge,
}

// ValidateSelectors compiles the whole selector catalog. A typo here should
// fail the run at startup, not twenty minutes in with an opaque miss.
func ValidateSelectors() error {
	for _, sel := range allSelectors {
		if _, err := cascadia.Parse(sel); err != nil {
			return models.NewScrapeError(models.ErrCodeBadConfig,
				fmt.Sprintf("selector %q does not compile", sel), err)
		}
	}
	return nil
}
