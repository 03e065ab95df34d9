package client

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/okian/blueprint/internal/domain/model"
)

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Hedy", "Linus", "Margaret", "Dennis", "Barbara", "Ken", "Radia"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Lamarr", "Torvalds", "Hamilton", "Ritchie", "Liskov", "Thompson", "Perlman"}
	places     = []string{"London, UK", "New York, USA", "Vienna, Austria", "Helsinki, Finland", "Tehran, Iran", "Tokyo, Japan", "Lagos, Nigeria", "Lima, Peru"}
)

// Birth dates are drawn from this range.
var (
	earliestBirth = time.Date(1940, time.January, 1, 0, 0, 0, 0, time.UTC)
	latestBirth   = time.Date(2010, time.December, 31, 0, 0, 0, 0, time.UTC)
)

const minutesPerDay = 24 * 60

// randomInt returns a uniform value in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func pick(values []string) string {
	return values[randomInt(len(values))]
}

// RandomProfile returns a valid profile. When emailDomain is set the profile
// asks for delivery to a per-index address at that domain.
func RandomProfile(index int, emailDomain string) model.BirthProfile {
	days := int(latestBirth.Sub(earliestBirth).Hours() / 24)
	date := earliestBirth.AddDate(0, 0, randomInt(days+1))
	minute := randomInt(minutesPerDay)

	p := model.BirthProfile{
		Name:       pick(firstNames) + " " + pick(lastNames),
		BirthDate:  date.Format(model.DateLayout),
		BirthTime:  fmt.Sprintf("%02d:%02d", minute/60, minute%60),
		BirthPlace: pick(places),
	}
	if emailDomain != "" {
		p.Email = fmt.Sprintf("blueprint+%d@%s", index, emailDomain)
	}
	return p
}

// RandomProfiles returns n profiles.
func RandomProfiles(n int, emailDomain string) []model.BirthProfile {
	out := make([]model.BirthProfile, n)
	for i := range out {
		out[i] = RandomProfile(i, emailDomain)
	}
	return out
}
