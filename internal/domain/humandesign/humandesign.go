// Package humandesign assigns a human design type and authority from the
// hour of birth using a fixed time-of-day table.
package humandesign

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/blueprint/internal/domain/failure"
	"github.com/okian/blueprint/internal/domain/model"
)

// bucket covers hours in [from, to).
type bucket struct {
	from, to int
	design   model.HumanDesign
}

var buckets = []bucket{
	{6, 12, model.HumanDesign{Type: model.TypeGenerator, Authority: model.AuthoritySacral}},
	{12, 18, model.HumanDesign{Type: model.TypeProjector, Authority: model.AuthorityEmotional}},
	{18, 22, model.HumanDesign{Type: model.TypeManifestor, Authority: model.AuthoritySplenic}},
}

var fallback = model.HumanDesign{Type: model.TypeReflector, Authority: model.AuthorityLunar}

// Classify maps the hour preceding the first ':' in birthTime to its bucket.
// Hours outside every bucket, including out-of-range integers, are Reflector.
func Classify(birthTime string) (model.HumanDesign, error) {
	hour, err := Hour(birthTime)
	if err != nil {
		return model.HumanDesign{}, err
	}
	for _, b := range buckets {
		if hour >= b.from && hour < b.to {
			return b.design, nil
		}
	}
	return fallback, nil
}

// Hour parses the leading hour segment of birthTime.
func Hour(birthTime string) (int, error) {
	const op = "humandesign.hour"
	segment, _, _ := strings.Cut(birthTime, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(segment))
	if err != nil {
		return 0, failure.Wrap(op, failure.KindParse, fmt.Errorf("invalid hour %q in birth_time", segment))
	}
	return hour, nil
}
