package content

import (
	"math/rand"
	"sync"

	"github.com/unclebandit/listing-campaigns/internal/model"
)

var hooks = map[model.ListingStatus][]string{
	model.StatusComingSoon: {
		"Coming soon!",
		"Sneak peek alert!",
		"Get ready for something special!",
	},
	model.StatusJustListed: {
		"Just listed!",
		"Brand new on the market!",
		"Fresh to the market!",
	},
	model.StatusOpenHouse: {
		"Open house this weekend!",
		"Come tour your next home!",
		"You're invited to our open house!",
	},
	model.StatusPriceDrop: {
		"Price improvement!",
		"New price alert!",
		"Just reduced!",
	},
	model.StatusUnderContract: {
		"Under contract!",
		"Another one off the market!",
		"Offer accepted!",
	},
	model.StatusSold: {
		"Just sold!",
		"SOLD!",
		"Another happy homeowner!",
	},
}

var callsToAction = map[model.ListingStatus][]string{
	model.StatusComingSoon: {
		"Message me for early access.",
		"Be the first to know. Reach out today!",
	},
	model.StatusJustListed: {
		"Schedule your private showing today!",
		"DM me for details or to book a tour.",
	},
	model.StatusOpenHouse: {
		"Stop by and say hello!",
		"RSVP by sending me a message.",
	},
	model.StatusPriceDrop: {
		"Don't miss this opportunity. Schedule a showing today!",
		"Now is the time. Contact me for details.",
	},
	model.StatusUnderContract: {
		"Thinking of selling? Let's talk.",
		"Want results like these? Reach out today.",
	},
	model.StatusSold: {
		"Thinking of selling? Let's talk about your home's value.",
		"Ready to make your move? Contact me today.",
	},
}

// exactly three per status
var statusTags = map[model.ListingStatus][3]string{
	model.StatusComingSoon:    {"ComingSoon", "SneakPeek", "StayTuned"},
	model.StatusJustListed:    {"JustListed", "NewListing", "ForSale"},
	model.StatusOpenHouse:     {"OpenHouse", "OpenHouseWeekend", "HomeTour"},
	model.StatusPriceDrop:     {"PriceReduced", "PriceImprovement", "NewPrice"},
	model.StatusUnderContract: {"UnderContract", "OfferAccepted", "PendingSale"},
	model.StatusSold:          {"JustSold", "Sold", "ClosedDeal"},
}

var genericTags = [4]string{"RealEstate", "Realtor", "DreamHome", "HomeSweetHome"}

const (
	largeHomeBedrooms = 4
	luxuryHomeSqft    = 3000
	millionDollar     = 1_000_000
)

// Rand is the random source used to pick phrases.
type Rand interface {
	Intn(n int) int
}

// lockedRand makes a *rand.Rand safe for the content worker pool.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe source seeded with seed.
func NewRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func pick(r Rand, pool []string, fallback string) string {
	if len(pool) == 0 {
		return fallback
	}
	return pool[r.Intn(len(pool))]
}

func pickHook(r Rand, status model.ListingStatus) string {
	return pick(r, hooks[status], status.Banner()+"!")
}

func pickCTA(r Rand, status model.ListingStatus) string {
	return pick(r, callsToAction[status], "Contact me for details.")
}
