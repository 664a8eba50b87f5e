// Package contract parses option variant tags into the model.Option tagged
// union and enumerates the supported variants.
package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/atmx/exotics-engine/internal/model"
)

// variantRegex matches:
//
//	asian-{call|put}
//	barrier-{up|down}-{in|out}-{call|put}
//	lookback-{fixed|floating}-{call|put}
//
// Example: barrier-down-out-put
var variantRegex = regexp.MustCompile(
	`^(asian|barrier-(up|down)-(in|out)|lookback-(fixed|floating))-(call|put)$`,
)

var ErrInvalidVariant = errors.New("contract: invalid option variant")

// ParseVariant parses and validates a variant tag. The returned option has
// its family sub-configuration populated from the tag; fields the tag does
// not carry (barrier level) are left zero and Asian options default to
// arithmetic averaging.
func ParseVariant(tag string) (model.Option, error) {
	matches := variantRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(tag)))
	if matches == nil {
		return model.Option{}, fmt.Errorf("%w: %q (expected asian-{call|put}, barrier-{up|down}-{in|out}-{call|put} or lookback-{fixed|floating}-{call|put})",
			ErrInvalidVariant, tag)
	}

	family, _, _ := strings.Cut(matches[1], "-")
	opt := model.Option{
		Family: model.Family(family),
		Type:   model.OptionType(matches[5]),
	}

	switch opt.Family {
	case model.FamilyAsian:
		opt.Asian = &model.AsianSpec{Average: model.Arithmetic}
	case model.FamilyBarrier:
		opt.Barrier = &model.BarrierSpec{
			Direction: model.BarrierDirection(matches[2]),
			Knock:     model.KnockType(matches[3]),
		}
	case model.FamilyLookback:
		opt.Lookback = &model.LookbackSpec{Strike: model.LookbackType(matches[4])}
	}
	return opt, nil
}

// Variants lists every supported tag.
func Variants() []string {
	tags := []string{"asian-call", "asian-put"}
	for _, dir := range []string{"up", "down"} {
		for _, knock := range []string{"in", "out"} {
			for _, typ := range []string{"call", "put"} {
				tags = append(tags, fmt.Sprintf("barrier-%s-%s-%s", dir, knock, typ))
			}
		}
	}
	for _, lb := range []string{"fixed", "floating"} {
		for _, typ := range []string{"call", "put"} {
			tags = append(tags, fmt.Sprintf("lookback-%s-%s", lb, typ))
		}
	}
	return tags
}
