package scorer

import (
	"fmt"
	"strings"
)

// deniedTerms is the expanded family-safety blocklist from the January 2026
// catalog audit, which found alcohol and sexual-health ads surfacing for
// kids queries. Matching is case-insensitive substring over the product's
// name and description.
var deniedTerms = []string{
	// Sexual/adult content
	"bedroom confidence", "erectile", "viagra", "sexual health",
	"reproductive health", "your status", "sti test", "std test",
	"reclaim your confidence", "regain confidence", "dating site",
	"singles near", "sexual performance", "libido", "erectile dysfunction",
	"adult toy", "lingerie", "sexy", "erotic", "intimate moments",
	// Alcohol
	"alcohol gift", "shop alcohol", "wine subscription", "beer delivery",
	"alcohol delivery", "gin gift", "whisky gift", "vodka gift",
	"wine gift", "champagne gift", "prosecco gift", "spirits gift",
	"cocktail gift", "beer gift", "ale gift", "lager gift",
	"bottle club", "wine club", "beer club", "gin club",
	"save on gin", "save on wine", "save on whisky",
	// Gambling
	"gambling", "casino", "betting", "poker", "slots",
	// Health supplements
	"weight loss pill", "diet pill", "slimming tablet",
	"fat burner", "appetite suppressant",
	// Vaping/smoking
	"cigarette", "vape juice", "cbd oil", "nicotine", "e-liquid",
}

// blockedMerchants are sellers banned from family results wholesale.
var blockedMerchants = []string{
	"bottle club", "the bottle club", "wine direct", "naked wines",
	"virgin wines", "laithwaites", "majestic wine", "beer hawk",
	"brewdog", "whisky exchange", "master of malt", "the drink shop",
	"slimming world", "weight watchers", "noom", "dating direct",
}

// denyReason reports whether a product is denied before any oracle call.
// Merchants are checked first, then the name+description text.
func denyReason(title, description, merchant string) (string, bool) {
	lowerMerchant := strings.ToLower(merchant)
	if lowerMerchant != "" {
		for _, m := range blockedMerchants {
			if strings.Contains(lowerMerchant, m) {
				return fmt.Sprintf("BLOCKED_MERCHANT: %s", merchant), true
			}
		}
	}

	text := strings.ToLower(title + " " + description)
	for _, term := range deniedTerms {
		if strings.Contains(text, term) {
			return fmt.Sprintf("INAPPROPRIATE: contains %q", term), true
		}
	}

	return "", false
}
